package model

// カートの明細。(ProductID, VariantID) で一意。
type CartItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	ImageRef  string `json:"image_ref,omitempty"`
	Slug      string `json:"slug,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	SKU       string `json:"sku,omitempty"`
}

func (i CartItem) SameLine(productID, variantID string) bool {
	return i.ProductID == productID && i.VariantID == variantID
}

func (i CartItem) LineTotal() int64 {
	return i.UnitPrice * i.Quantity
}
