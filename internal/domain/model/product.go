package model

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          string         `gorm:"type:varchar(64);primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Slug        string         `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	ImageRef    string         `gorm:"type:varchar(512)" json:"image_ref"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	Variants    []Variant      `gorm:"foreignKey:ProductID;references:ID" json:"variants,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// サイズ・色ごとのSKU。価格と在庫はここが正。
type Variant struct {
	ID        string    `gorm:"type:varchar(64);primaryKey" json:"id"`
	ProductID string    `gorm:"type:varchar(64);not null;index" json:"product_id"`
	SKU       string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"sku"`
	Size      string    `gorm:"type:varchar(20)" json:"size"`
	Color     string    `gorm:"type:varchar(50)" json:"color"`
	Price     int64     `gorm:"not null" json:"price"`
	Stock     int64     `gorm:"not null" json:"stock"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

var sizeRank = map[string]int{"XS": 0, "S": 1, "M": 2, "L": 3, "XL": 4, "XXL": 5}

// クイック追加で使うバリアントを決める。
// 在庫ありの中で最安、同額ならサイズ順（XS<S<M<L<XL<XXL<その他はアルファベット順）、最後にSKU。
func SelectDefaultVariant(variants []Variant) (Variant, bool) {
	candidates := make([]Variant, 0, len(variants))
	for _, v := range variants {
		if v.Stock > 0 {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return Variant{}, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		if c := compareSize(a.Size, b.Size); c != 0 {
			return c < 0
		}
		return a.SKU < b.SKU
	})
	return candidates[0], true
}

func compareSize(a, b string) int {
	ra, okA := sizeRank[strings.ToUpper(a)]
	rb, okB := sizeRank[strings.ToUpper(b)]
	switch {
	case okA && okB:
		return ra - rb
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(strings.ToUpper(a), strings.ToUpper(b))
}

// カートに入れる明細を作る（価格・名前はカタログから）。
func (v Variant) ToCartItem(p Product, qty int64) CartItem {
	return CartItem{
		ProductID: p.ID,
		VariantID: v.ID,
		Name:      p.Name,
		UnitPrice: v.Price,
		Quantity:  qty,
		ImageRef:  p.ImageRef,
		Slug:      p.Slug,
		Size:      v.Size,
		Color:     v.Color,
		SKU:       v.SKU,
	}
}
