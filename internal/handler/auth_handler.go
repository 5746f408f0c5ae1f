package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mohamkz/banking-app/internal/auth"
	"github.com/mohamkz/banking-app/internal/errors"
)

type AuthHandler struct {
	authService *auth.Service
}

func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	if fields := validateRegistration(&req); len(fields) > 0 {
		writeError(w, errors.NewValidationError(fields))
		return
	}

	if _, err := h.authService.Register(auth.RegisterRequest{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	}); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "user registered successfully"})
}

func validateRegistration(req *RegisterRequest) map[string]string {
	fields := make(map[string]string)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		fields["email"] = "must be a valid email address"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if strings.TrimSpace(req.FirstName) == "" {
		fields["first_name"] = "must not be blank"
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields["last_name"] = "must not be blank"
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		fields["phone_number"] = "must not be blank"
	}
	return fields
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{Token: token})
}

// Logout revokes the presented credential. It always succeeds; an absent
// or invalid token has nothing to revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := extractBearerToken(r); token != "" {
		h.authService.Logout(token)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}
