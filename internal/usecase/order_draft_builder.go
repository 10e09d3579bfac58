package usecase

import (
	"strings"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
)

type DraftInput struct {
	Items     []model.CartItem
	Customer  model.CustomerInfo
	PromoCode string
}

// 永続化前の、価格計算済みの注文
type OrderDraft struct {
	Order     model.Order
	Promotion pricing.PromotionResult
}

type OrderDraftBuilder struct {
	shipping  int64
	currency  string
	validator InputValidator
	idGen     IDGenerator
	clock     Clock
}

func NewOrderDraftBuilder(shipping int64, currency string, validator InputValidator, idGen IDGenerator, clock Clock) *OrderDraftBuilder {
	if currency == "" {
		currency = "usd"
	}
	return &OrderDraftBuilder{
		shipping:  shipping,
		currency:  strings.ToLower(currency),
		validator: validator,
		idGen:     idGen,
		clock:     clock,
	}
}

// Build はカートから注文ドラフトを作る。在庫は見ない。
func (b *OrderDraftBuilder) Build(in DraftInput) (OrderDraft, error) {
	if len(in.Items) == 0 {
		return OrderDraft{}, EmptyCartError()
	}
	customer := normalizeCustomer(in.Customer)
	if missing := b.validator.ValidateCustomer(customer); len(missing) > 0 {
		return OrderDraft{}, ValidationError(missing...)
	}

	//明細の凍結
	items := make([]model.OrderItem, 0, len(in.Items))
	for _, ci := range in.Items {
		items = append(items, model.OrderItem{
			ProductID: ci.ProductID,
			VariantID: ci.VariantID,
			Name:      ci.Name,
			UnitPrice: ci.UnitPrice,
			Quantity:  ci.Quantity,
			Size:      ci.Size,
			Color:     ci.Color,
			SKU:       ci.SKU,
			ImageRef:  ci.ImageRef,
			Slug:      ci.Slug,
		})
	}

	price, promo := pricing.Price(pricing.Subtotal(items), b.shipping, in.PromoCode)
	promoCode := ""
	if promo.Applied {
		promoCode = strings.ToUpper(strings.TrimSpace(in.PromoCode))
	}

	now := b.clock.Now()
	return OrderDraft{
		Order: model.Order{
			OrderID:   b.newOrderID(now),
			Customer:  customer,
			Items:     items,
			Pricing:   price,
			PromoCode: promoCode,
			Currency:  b.currency,
			Status:    model.OrderStatusNew,
			Payment:   model.PaymentStatusPending,
			Priority:  model.OrderPriorityNormal,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Promotion: promo,
	}, nil
}

// ORD-<UTC日時>-<uuid v4 の先頭20桁>。ランダム部は74bit。
func (b *OrderDraftBuilder) newOrderID(now time.Time) string {
	raw := strings.ToUpper(strings.ReplaceAll(b.idGen.NewID(), "-", ""))
	if len(raw) > 20 {
		raw = raw[:20]
	}
	return "ORD-" + now.UTC().Format("20060102-150405") + "-" + raw
}

func normalizeCustomer(c model.CustomerInfo) model.CustomerInfo {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Address2 = strings.TrimSpace(c.Address2)
	c.City = strings.TrimSpace(c.City)
	c.State = strings.TrimSpace(c.State)
	c.PostalCode = strings.TrimSpace(c.PostalCode)
	c.Country = strings.ToUpper(strings.TrimSpace(c.Country))
	return c
}
