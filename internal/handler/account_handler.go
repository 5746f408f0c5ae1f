package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/domain"
	"github.com/mohamkz/banking-app/internal/errors"
	"github.com/mohamkz/banking-app/internal/service"
)

type AccountHandler struct {
	accountService     *service.AccountService
	transactionService *service.TransactionService
}

func NewAccountHandler(accountService *service.AccountService, transactionService *service.TransactionService) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		transactionService: transactionService,
	}
}

type AccountResponse struct {
	ID            int64     `json:"id"`
	AccountNumber string    `json:"account_number"`
	Balance       string    `json:"balance"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	OpeningDate   time.Time `json:"opening_date"`
	UserID        int64     `json:"user_id"`
}

type DepositRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:            account.ID,
		AccountNumber: account.AccountNumber,
		Balance:       account.Balance.String(),
		Currency:      account.Currency,
		Status:        string(account.Status),
		OpeningDate:   account.OpeningDate,
		UserID:        account.UserID,
	}
}

func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	user := Principal(r)

	account, err := h.accountService.Open(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAccountResponse(account))
}

func (h *AccountHandler) ListOwned(w http.ResponseWriter, r *http.Request) {
	user := Principal(r)

	accounts, err := h.accountService.ListOwned(user.ID)
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

func (h *AccountHandler) View(w http.ResponseWriter, r *http.Request) {
	user := Principal(r)
	accountNumber := mux.Vars(r)["account_number"]

	account, err := h.accountService.Authorize(user.Email, accountNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAccountResponse(account))
}

func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	user := Principal(r)
	accountNumber := mux.Vars(r)["account_number"]

	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}
	if !amount.IsPositive() {
		writeError(w, errors.NewValidationError(map[string]string{
			"amount": "must be positive",
		}))
		return
	}

	if _, err := h.accountService.Authorize(user.Email, accountNumber); err != nil {
		writeServiceError(w, err)
		return
	}

	transaction, err := h.transactionService.Deposit(accountNumber, amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	view, err := h.transactionService.ToView(transaction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(view))
}
