package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}

	resp := make([]catalogItemResponse, len(items))
	for i, it := range items {
		resp[i] = toCatalogItem(it)
	}
	respond(w, http.StatusOK, resp)
}

func (h *Handler) getCatalogItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	respond(w, http.StatusOK, toCatalogItem(*item))
}
