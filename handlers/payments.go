// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quorum/auth"
	"github.com/danielhkuo/quorum/middleware"
	"github.com/danielhkuo/quorum/models"
	"github.com/danielhkuo/quorum/payment"
)

type PaymentHandler struct {
	payments *payment.Ledger
	identity auth.IdentityProvider
}

func NewPaymentHandler(payments *payment.Ledger, identity auth.IdentityProvider) *PaymentHandler {
	return &PaymentHandler{payments: payments, identity: identity}
}

// CreatePayment handles POST /payments
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	var req models.CreatePaymentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	rec, err := h.payments.CreatePaymentRecord(r.Context(), agentID, req.TransactionID)
	if err != nil {
		writeError(w, err, "Failed to create payment")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, rec)
}

// ownPayment loads a payment belonging to the caller. Other agents'
// payments are reported as missing.
func (h *PaymentHandler) ownPayment(w http.ResponseWriter, r *http.Request) (models.PaymentRecord, bool) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return models.PaymentRecord{}, false
	}

	rec, ok, err := h.payments.GetPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, "Failed to load payment")
		return models.PaymentRecord{}, false
	}
	if !ok || rec.AgentID != agentID {
		middleware.ErrorResponse(w, http.StatusNotFound, "Payment not found")
		return models.PaymentRecord{}, false
	}
	return rec, true
}

// GetPayment handles GET /payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.ownPayment(w, r)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, rec)
}

// ConfirmPayment handles POST /payments/{id}/confirm
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.ownPayment(w, r)
	if !ok {
		return
	}

	confirmed, err := h.payments.ConfirmPayment(r.Context(), rec.ID)
	if err != nil {
		writeError(w, err, "Failed to confirm payment")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, confirmed)
}

// ValidatePayment handles POST /payments/validate
func (h *PaymentHandler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	var req models.ValidatePaymentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	resp := models.ValidatePaymentResponse{
		Price:       h.payments.Price(),
		AmountValid: h.payments.ValidatePaymentAmount(req.Amount),
	}
	if req.Balance != nil {
		sufficient := h.payments.HasSufficientBalance(*req.Balance)
		resp.SufficientBalance = &sufficient
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetHistory handles GET /agents/me/payments
func (h *PaymentHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	history, err := h.payments.GetPaymentHistory(r.Context(), agentID)
	if err != nil {
		writeError(w, err, "Failed to list payments")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, history)
}

// GetWallet handles GET /agents/me/wallet. The first request syncs from
// the coin ledger.
func (h *PaymentHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	wallet, cached, err := h.payments.GetWalletBalance(r.Context(), agentID)
	if err != nil {
		writeError(w, err, "Failed to load wallet")
		return
	}
	if !cached {
		if wallet, err = h.payments.SyncWalletBalance(r.Context(), agentID); err != nil {
			writeError(w, err, "Failed to sync wallet")
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.WalletResponse{
		WalletBalance:        wallet,
		Synced:               !cached,
		SufficientForPremium: h.payments.HasSufficientBalance(wallet.Balance),
	})
}

// SyncWallet handles POST /agents/me/wallet/sync
func (h *PaymentHandler) SyncWallet(w http.ResponseWriter, r *http.Request) {
	agentID, ok := requireAgent(h.identity, w, r)
	if !ok {
		return
	}

	wallet, err := h.payments.SyncWalletBalance(r.Context(), agentID)
	if err != nil {
		writeError(w, err, "Failed to sync wallet")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.WalletResponse{
		WalletBalance:        wallet,
		Synced:               true,
		SufficientForPremium: h.payments.HasSufficientBalance(wallet.Balance),
	})
}
