package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxListLimit)
	}

	txs, err := h.transactions.List(r.Context(), limit)
	if err != nil {
		fail(w, r, err)
		return
	}

	resp := make([]transactionResponse, len(txs))
	for i := range txs {
		resp[i] = toTransaction(&txs[i])
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.transactions.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, toTransaction(tx))
}

func (h *Handler) setTransactionStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}

	tx, err := h.status.SetStatus(r.Context(), chi.URLParam(r, "id"), transaction.Status(req.Status))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, toTransaction(tx))
}
