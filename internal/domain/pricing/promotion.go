package pricing

import "strings"

const (
	// 現在有効な唯一のプロモーションコード
	TrialPromoCode = "DELFREETRIAL"

	// プロモーション適用時の請求額（1.00）
	NominalCharge int64 = 100

	ErrInvalidPromoCode = "Invalid promotion code"
)

type PromotionResult struct {
	Applied          bool   `json:"applied"`
	DiscountAmount   int64  `json:"discount_amount"`
	ShippingOverride *int64 `json:"shipping_override,omitempty"`
	Error            string `json:"error,omitempty"`
}

// Evaluate はコード文字列を値引きに変換する純粋関数。
// 大文字小文字と前後の空白は無視する。空コードは「未適用・エラーなし」。
//
// TrialPromoCode は送料を0にし、請求額を NominalCharge に固定する。
// 値引き額は subtotal + shipping - NominalCharge。合計が既に NominalCharge 以下なら
// 送料もそのままにして、請求額を上げも下げもしない。
func Evaluate(code string, subtotal, shipping int64) PromotionResult {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return PromotionResult{}
	}
	if normalized != TrialPromoCode {
		return PromotionResult{Applied: false, Error: ErrInvalidPromoCode}
	}

	discount := subtotal + shipping - NominalCharge
	if discount <= 0 {
		// 既に NominalCharge 以下。値引きも送料無料もしない
		return PromotionResult{Applied: true}
	}
	freeShipping := int64(0)
	return PromotionResult{
		Applied:          true,
		DiscountAmount:   discount,
		ShippingOverride: &freeShipping,
	}
}
