package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/workshop-pos/internal/domain/cart"
	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/priceedit"
	"github.com/xenking/workshop-pos/internal/domain/pricing"
	"github.com/xenking/workshop-pos/internal/domain/sale"
	"github.com/xenking/workshop-pos/internal/domain/settings"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

// maxBodyBytes bounds request bodies; every payload is a handful of fields.
const maxBodyBytes = 64 << 10

// Handler serves the point-of-sale REST API.
type Handler struct {
	catalog      catalog.Repository
	sales        *sale.Registry
	transactions transaction.Repository
	status       *transaction.StatusService
	settings     settings.Repository
	rates        pricing.RateSource
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	catalogRepo catalog.Repository,
	sales *sale.Registry,
	transactions transaction.Repository,
	settingsRepo settings.Repository,
	rates pricing.RateSource,
) *Handler {
	return &Handler{
		catalog:      catalogRepo,
		sales:        sales,
		transactions: transactions,
		status:       transaction.NewStatusService(transactions),
		settings:     settingsRepo,
		rates:        rates,
	}
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.listCatalog)
		r.Get("/catalog/{id}", h.getCatalogItem)

		r.Post("/sales", h.openSale)
		r.Route("/sales/{saleID}", func(r chi.Router) {
			r.Get("/", h.getSale)
			r.Delete("/", h.cancelSale)

			r.Post("/items", h.addItem)
			r.Put("/items/{itemID}", h.setQuantity)
			r.Delete("/items/{itemID}", h.removeItem)
			r.Put("/discount", h.setDiscount)

			r.Post("/price-edit", h.beginPriceEdit)
			r.Post("/price-edit/keys", h.pressKeys)
			r.Put("/price-edit/buffer", h.replaceBuffer)
			r.Post("/price-edit/commit", h.commitPriceEdit)
			r.Delete("/price-edit", h.cancelPriceEdit)

			r.Post("/checkout", h.checkout)
		})

		r.Get("/transactions", h.listTransactions)
		r.Get("/transactions/{id}", h.getTransaction)
		r.Put("/transactions/{id}/status", h.setTransactionStatus)

		r.Get("/settings/vat-rate", h.getVATRate)
		r.Put("/settings/vat-rate", h.setVATRate)
	})
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respond(w, status, errorResponse{Code: status, Message: msg})
}

// decode reads a JSON body into dst. Unknown fields are rejected so typos in
// client payloads surface as 400s.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes. Only storage failures
// and unexpected errors are 5xx.
func statusFor(err error) int {
	var (
		pErr *transaction.PersistenceError
		rErr *priceedit.RejectedInputError
	)
	switch {
	case errors.As(err, &pErr):
		return http.StatusServiceUnavailable
	case errors.As(err, &rErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, sale.ErrSessionNotFound),
		errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, transaction.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrFrozen),
		errors.Is(err, sale.ErrCheckoutInProgress),
		errors.Is(err, priceedit.ErrNotEditing),
		errors.Is(err, transaction.ErrInvalidStatusTransition):
		return http.StatusConflict
	case errors.Is(err, cart.ErrInvalidPrice),
		errors.Is(err, catalog.ErrUnknownType),
		errors.Is(err, priceedit.ErrInvalidKey),
		errors.Is(err, transaction.ErrEmptyCart),
		errors.Is(err, transaction.ErrInvalidPaymentMethod),
		errors.Is(err, transaction.ErrInvalidStatus):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with the status statusFor picks. Unexpected errors are
// logged and hidden from the client; storage failures keep their message.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		respondError(w, status, "internal error")
		return
	}
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Warn("Storage unavailable", zap.Error(err))
	}
	respondError(w, status, err.Error())
}
