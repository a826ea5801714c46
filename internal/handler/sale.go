package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/workshop-pos/internal/domain/priceedit"
	"github.com/xenking/workshop-pos/internal/domain/sale"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

// session resolves the {saleID} path parameter, writing a 404 if it is
// unknown.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*sale.Session, bool) {
	s, err := h.sales.Get(chi.URLParam(r, "saleID"))
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	return s, true
}

// mutate runs fn against the session and responds with its new snapshot.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, status int, fn func(*sale.Session) error) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := fn(s); err != nil {
		fail(w, r, err)
		return
	}
	respond(w, status, toSale(s.Snapshot()))
}

func (h *Handler) openSale(w http.ResponseWriter, r *http.Request) {
	s := h.sales.Open(r.Context())
	w.Header().Set("Location", "/api/sales/"+s.ID())
	respond(w, http.StatusCreated, toSale(s.Snapshot()))
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(*sale.Session) error { return nil })
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Cancel(); err != nil {
		fail(w, r, err)
		return
	}
	if err := h.sales.Close(s.ID()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		respondError(w, http.StatusBadRequest, "itemId is required")
		return
	}
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		return s.Add(r.Context(), req.ItemID)
	})
}

func (h *Handler) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "quantity is required")
		return
	}
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		return s.SetQuantity(chi.URLParam(r, "itemID"), *req.Quantity)
	})
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		return s.Remove(chi.URLParam(r, "itemID"))
	})
}

func (h *Handler) setDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if !decode(w, r, &req) {
		return
	}
	if !req.Percentage.Valid {
		respondError(w, http.StatusBadRequest, "percentage is required")
		return
	}
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		return s.SetDiscount(req.Percentage.Decimal)
	})
}

func (h *Handler) beginPriceEdit(w http.ResponseWriter, r *http.Request) {
	var req priceEditRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		return s.BeginPriceEdit(req.ItemID)
	})
}

func (h *Handler) pressKeys(w http.ResponseWriter, r *http.Request) {
	var req keysRequest
	if !decode(w, r, &req) {
		return
	}
	keys := make([]priceedit.Key, len(req.Keys))
	for i, k := range req.Keys {
		keys[i] = priceedit.Key(k)
	}
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		return s.PressKeys(keys)
	})
}

func (h *Handler) replaceBuffer(w http.ResponseWriter, r *http.Request) {
	var req bufferRequest
	if !decode(w, r, &req) {
		return
	}
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		return s.ReplacePriceBuffer(req.Text)
	})
}

func (h *Handler) commitPriceEdit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		_, err := s.CommitPriceEdit()
		return err
	})
}

func (h *Handler) cancelPriceEdit(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, http.StatusOK, func(s *sale.Session) error {
		s.CancelPriceEdit()
		return nil
	})
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if !decode(w, r, &req) {
		return
	}

	s, ok := h.session(w, r)
	if !ok {
		return
	}

	tx, err := s.Checkout(r.Context(), sale.CheckoutRequest{
		PaymentMethod: transaction.PaymentMethod(req.PaymentMethod),
		CustomerRef:   req.CustomerRef,
		Status:        transaction.Status(req.Status),
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	zctx.From(r.Context()).Info("Sale checked out",
		zap.String("sale_id", s.ID()),
		zap.String("transaction_id", tx.ID),
		zap.String("total", tx.Total.String()),
	)
	respond(w, http.StatusCreated, toTransaction(tx))
}
