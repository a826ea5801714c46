package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/workshop-pos/internal/domain/cart"
	"github.com/xenking/workshop-pos/internal/domain/catalog"
	"github.com/xenking/workshop-pos/internal/domain/pricing"
	"github.com/xenking/workshop-pos/internal/domain/sale"
	"github.com/xenking/workshop-pos/internal/domain/transaction"
)

// Requests.

type addItemRequest struct {
	ItemID string `json:"itemId"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

type discountRequest struct {
	Percentage decimal.NullDecimal `json:"percentage"`
}

type priceEditRequest struct {
	ItemID string `json:"itemId"`
}

type keysRequest struct {
	Keys []string `json:"keys"`
}

type bufferRequest struct {
	Text string `json:"text"`
}

type checkoutRequest struct {
	PaymentMethod string `json:"paymentMethod"`
	CustomerRef   string `json:"customerRef,omitempty"`
	Status        string `json:"status,omitempty"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type vatRateRequest struct {
	Rate string `json:"rate"`
}

// Responses. Money is always a decimal string.

type catalogItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	UnitPrice string `json:"unitPrice"`
	Category  string `json:"category,omitempty"`
}

type lineResponse struct {
	ItemID     string `json:"itemId"`
	Type       string `json:"type"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  string `json:"unitPrice"`
	TotalPrice string `json:"totalPrice"`
}

type totalsResponse struct {
	Subtotal            string `json:"subtotal"`
	Tax                 string `json:"tax"`
	VATRate             string `json:"vatRate"`
	TotalBeforeDiscount string `json:"totalBeforeDiscount"`
	DiscountAmount      string `json:"discountAmount"`
	Total               string `json:"total"`
	DefaultTaxRate      bool   `json:"defaultTaxRate,omitempty"`
}

type priceEditResponse struct {
	ItemID string `json:"itemId"`
	Buffer string `json:"buffer"`
}

type saleResponse struct {
	ID                 string             `json:"id"`
	Items              []lineResponse     `json:"items"`
	DiscountPercentage string             `json:"discountPercentage"`
	Totals             totalsResponse     `json:"totals"`
	PriceEdit          *priceEditResponse `json:"priceEdit,omitempty"`
	CheckingOut        bool               `json:"checkingOut,omitempty"`
}

type transactionResponse struct {
	ID                  string         `json:"id"`
	CustomerRef         string         `json:"customerRef,omitempty"`
	Items               []lineResponse `json:"items,omitempty"`
	Subtotal            string         `json:"subtotal"`
	Tax                 string         `json:"tax"`
	VATRate             string         `json:"vatRate"`
	TotalBeforeDiscount string         `json:"totalBeforeDiscount"`
	DiscountPercentage  string         `json:"discountPercentage"`
	DiscountAmount      string         `json:"discountAmount"`
	Total               string         `json:"total"`
	PaymentMethod       string         `json:"paymentMethod"`
	Status              string         `json:"status"`
	CreatedAt           time.Time      `json:"createdAt"`
}

type vatRateResponse struct {
	Rate      string `json:"rate"`
	Defaulted bool   `json:"defaulted,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func toCatalogItem(it catalog.Item) catalogItemResponse {
	return catalogItemResponse{
		ID:        it.ID,
		Name:      it.Name,
		Type:      string(it.Type),
		UnitPrice: pricing.FormatMoney(it.UnitPrice),
		Category:  it.Category,
	}
}

func toLines(items []cart.LineItem) []lineResponse {
	out := make([]lineResponse, len(items))
	for i, l := range items {
		out[i] = lineResponse{
			ItemID:     l.ItemID,
			Type:       string(l.Type),
			Name:       l.Name,
			Quantity:   l.Quantity,
			UnitPrice:  pricing.FormatMoney(l.UnitPrice),
			TotalPrice: pricing.FormatMoney(l.TotalPrice),
		}
	}
	return out
}

func toTotals(t pricing.Totals) totalsResponse {
	return totalsResponse{
		Subtotal:            pricing.FormatMoney(t.Subtotal),
		Tax:                 pricing.FormatMoney(t.Tax),
		VATRate:             t.VATRate.String(),
		TotalBeforeDiscount: pricing.FormatMoney(t.TotalBeforeDiscount),
		DiscountAmount:      pricing.FormatMoney(t.DiscountAmount),
		Total:               pricing.FormatMoney(t.Total),
		DefaultTaxRate:      t.DefaultTaxRate,
	}
}

func toSale(s sale.Snapshot) saleResponse {
	resp := saleResponse{
		ID:                 s.ID,
		Items:              toLines(s.Items),
		DiscountPercentage: s.DiscountPercentage.String(),
		Totals:             toTotals(s.Totals),
		CheckingOut:        s.CheckingOut,
	}
	if s.Editing != nil {
		resp.PriceEdit = &priceEditResponse{ItemID: s.Editing.ItemID, Buffer: s.Editing.Buffer}
	}
	return resp
}

func toTransaction(tx *transaction.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:                  tx.ID,
		CustomerRef:         tx.CustomerRef,
		Subtotal:            pricing.FormatMoney(tx.Subtotal),
		Tax:                 pricing.FormatMoney(tx.Tax),
		VATRate:             tx.VATRate.String(),
		TotalBeforeDiscount: pricing.FormatMoney(tx.TotalBeforeDiscount),
		DiscountPercentage:  tx.DiscountPercentage.String(),
		DiscountAmount:      pricing.FormatMoney(tx.DiscountAmount),
		Total:               pricing.FormatMoney(tx.Total),
		PaymentMethod:       string(tx.PaymentMethod),
		Status:              string(tx.Status),
		CreatedAt:           tx.CreatedAt,
	}
	if len(tx.Items) > 0 {
		resp.Items = toLines(tx.Items)
	}
	return resp
}
