package handler

import (
	"net/http"
	"strconv"

	"github.com/mohamkz/banking-app/internal/errors"
	"github.com/mohamkz/banking-app/internal/service"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

func (h *AdminHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.SystemStats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, errors.NewValidationError(map[string]string{
				"days": "must be a positive integer",
			}))
			return
		}
		days = parsed
	}

	stats, err := h.adminService.DailyStats(days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.MonthlyStats()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]UserInfoResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toUserInfo(user))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AdminHandler) Accounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.adminService.ListAccounts()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, toAccountResponse(account))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AdminHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	annotated, err := h.adminService.ListTransactions()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, annotated)
}
