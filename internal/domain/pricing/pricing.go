package pricing

import "storefront/internal/domain/model"

// 固定送料（4.99）。ライブの送料計算はしない。
const DefaultShipping int64 = 499

// Subtotal は単価×数量の合計。クライアント側の合計は信用しない。
func Subtotal[T interface{ LineTotal() int64 }](lines []T) int64 {
	var total int64
	for _, l := range lines {
		total += l.LineTotal()
	}
	return total
}

// Price は小計・送料・プロモーション結果から OrderPricing を組み立てる。
// 不正なコードは値引きなしとして扱い、PromotionResult.Error で呼び出し側に返す。
func Price(subtotal, shipping int64, promoCode string) (model.OrderPricing, PromotionResult) {
	original := subtotal + shipping
	promo := Evaluate(promoCode, subtotal, shipping)

	p := model.OrderPricing{
		Subtotal:      subtotal,
		Shipping:      shipping,
		Discount:      0,
		Total:         original,
		OriginalTotal: original,
	}
	if !promo.Applied {
		return p, promo
	}

	if promo.ShippingOverride != nil {
		p.Shipping = *promo.ShippingOverride
	}
	p.Discount = promo.DiscountAmount
	p.Total = original - promo.DiscountAmount
	return p, promo
}
