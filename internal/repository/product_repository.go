package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// ExpectStatus と現在の status が一致しなかった
var ErrStatusConflict = errors.New("status conflict")

// 一覧検索
type ProductListQuery struct {
	Page  int
	Limit int
	Q     string
}

// カタログ（商品・バリアント）の読み取り。
type ProductRepository interface {
	ListPublic(ctx context.Context, q ProductListQuery) ([]model.Product, int64, error)
	FindBySlug(ctx context.Context, slug string) (model.Product, error)

	// バリアントを持たない商品を返す
	FindByID(ctx context.Context, id string) (model.Product, error)

	ListVariants(ctx context.Context, productID string) ([]model.Variant, error)
	FindVariant(ctx context.Context, productID string, variantID string) (model.Variant, error)
}
