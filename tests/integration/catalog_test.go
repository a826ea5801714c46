//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListCatalog(t *testing.T) {
	resp := doGet(t, "/api/catalog")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	items := decodeJSON[[]catalogItemResponse](t, resp)
	if len(items) != 9 {
		t.Fatalf("expected 9 items, got %d", len(items))
	}

	types := make(map[string]int)
	for _, it := range items {
		types[it.Type]++
		if it.UnitPrice == "" {
			t.Errorf("item %s has no unit price", it.ID)
		}
	}
	for _, typ := range []string{"product", "service", "part"} {
		if types[typ] == 0 {
			t.Errorf("no %s in catalog", typ)
		}
	}
}

func TestGetCatalogItem(t *testing.T) {
	resp := doGet(t, "/api/catalog/scr-ip12")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	item := decodeJSON[catalogItemResponse](t, resp)
	if item.Name != "Screen iPhone 12" || item.UnitPrice != "89.90" || item.Type != "part" {
		t.Errorf("unexpected item: %+v", item)
	}
}

func TestGetCatalogItem_NotFound(t *testing.T) {
	resp := doGet(t, "/api/catalog/does-not-exist")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Errorf("expected code 404, got %d", body.Code)
	}
}
