package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mohamkz/banking-app/internal/auth"
	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
)

type UserHandler struct {
	authService *auth.Service
}

func NewUserHandler(authService *auth.Service) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

type UserInfoResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UpdateUserRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func toUserInfo(user *domain.User) UserInfoResponse {
	return UserInfoResponse{
		ID:          user.ID,
		Email:       user.Email,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		PhoneNumber: user.PhoneNumber,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := Principal(r)
	writeJSON(w, http.StatusOK, toUserInfo(user))
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	user := Principal(r)
	updated, err := h.authService.UpdateProfile(user.Email, req.FirstName, req.LastName, req.PhoneNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserInfo(updated))
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	if len(req.NewPassword) < 8 {
		writeError(w, errors.NewValidationError(map[string]string{
			"new_password": "must be at least 8 characters",
		}))
		return
	}

	user := Principal(r)
	if err := h.authService.ChangePassword(user.Email, req.CurrentPassword, req.NewPassword, BearerToken(r)); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "password changed successfully"})
}
