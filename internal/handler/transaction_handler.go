package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/mohamkz/banking-app/internal/errors"
	"github.com/mohamkz/banking-app/internal/service"
)

type TransactionHandler struct {
	accountService     *service.AccountService
	transactionService *service.TransactionService
}

func NewTransactionHandler(accountService *service.AccountService, transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		accountService:     accountService,
		transactionService: transactionService,
	}
}

type TransferRequest struct {
	SenderAccountNumber   string `json:"sender_account_number"`
	ReceiverAccountNumber string `json:"receiver_account_number"`
	Amount                string `json:"amount"`
	Description           string `json:"description"`
}

type TransactionResponse struct {
	SenderAccountNumber   string    `json:"sender_account_number"`
	ReceiverAccountNumber string    `json:"receiver_account_number"`
	Amount                string    `json:"amount"`
	Description           string    `json:"description"`
	Type                  string    `json:"type"`
	Timestamp             time.Time `json:"timestamp"`
}

func toTransactionResponse(view *service.TransactionView) TransactionResponse {
	return TransactionResponse{
		SenderAccountNumber:   view.SenderAccountNumber,
		ReceiverAccountNumber: view.ReceiverAccountNumber,
		Amount:                view.Amount.String(),
		Description:           view.Description,
		Type:                  view.Type,
		Timestamp:             view.Timestamp,
	}
}

func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	user := Principal(r)

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	fields := make(map[string]string)
	if req.SenderAccountNumber == "" {
		fields["sender_account_number"] = "must not be blank"
	}
	if req.ReceiverAccountNumber == "" {
		fields["receiver_account_number"] = "must not be blank"
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		fields["amount"] = "must be a decimal number"
	} else if !amount.IsPositive() {
		fields["amount"] = "must be positive"
	}
	if len(fields) > 0 {
		writeError(w, errors.NewValidationError(fields))
		return
	}

	// The caller must own the sender account; the receiver only has to
	// exist, which the ledger checks itself.
	if _, err := h.accountService.Authorize(user.Email, req.SenderAccountNumber); err != nil {
		writeServiceError(w, err)
		return
	}

	transaction, err := h.transactionService.Transfer(
		req.SenderAccountNumber,
		req.ReceiverAccountNumber,
		amount,
		req.Description,
	)
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

// History serves the four history variants; the variant is bound at route
// registration.
func (h *TransactionHandler) History(variant service.HistoryVariant) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := Principal(r)
		accountNumber := mux.Vars(r)["account_number"]

		views, err := h.transactionService.History(accountNumber, user.Email, variant)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		response := make([]TransactionResponse, 0, len(views))
		for _, view := range views {
			response = append(response, toTransactionResponse(view))
		}
		writeJSON(w, http.StatusOK, response)
	}
}
