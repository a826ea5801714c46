package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/workshop-pos/internal/domain/pricing"
	"github.com/xenking/workshop-pos/internal/domain/settings"
)

// getVATRate reports the rate checkouts currently apply, including the
// configured fallback and the default.
func (h *Handler) getVATRate(w http.ResponseWriter, r *http.Request) {
	rate := pricing.ResolveTaxRate(r.Context(), h.rates)

	resp := vatRateResponse{Rate: rate.Percent.String(), Defaulted: rate.Defaulted}
	if rate.Reason != nil {
		resp.Reason = rate.Reason.Error()
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) setVATRate(w http.ResponseWriter, r *http.Request) {
	var req vatRateRequest
	if !decode(w, r, &req) {
		return
	}

	rate, err := pricing.ParseTaxRate(req.Rate)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid VAT rate "+req.Rate)
		return
	}
	if err := h.settings.Set(r.Context(), settings.KeyVATRate, rate.String()); err != nil {
		fail(w, r, err)
		return
	}

	zctx.From(r.Context()).Info("VAT rate updated", zap.String("rate", rate.String()))
	respond(w, http.StatusOK, vatRateResponse{Rate: rate.String()})
}
