package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page  int
	Limit int
	Q     string
}

type ProductSummary struct {
	model.Product
	DefaultVariantID string `json:"default_variant_id,omitempty"`
	FromPrice        int64  `json:"from_price"`
	InStock          bool   `json:"in_stock"`
}

type ProductListOutput struct {
	Items []ProductSummary `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type ProductDetailOutput struct {
	model.Product
	DefaultVariant *model.Variant `json:"default_variant"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:  in.Page,
		Limit: in.Limit,
		Q:     strings.TrimSpace(in.Q),
	})
	if err != nil {
		return ProductListOutput{}, internalError(err)
	}

	out := make([]ProductSummary, 0, len(items))
	for _, p := range items {
		out = append(out, summarize(p))
	}
	return ProductListOutput{Items: out, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

func summarize(p model.Product) ProductSummary {
	s := ProductSummary{Product: p}
	if v, ok := model.SelectDefaultVariant(p.Variants); ok {
		s.DefaultVariantID = v.ID
		s.FromPrice = v.Price
		s.InStock = true
		return s
	}
	// 在庫なし：表示用に最安値だけ出す
	for i, v := range p.Variants {
		if i == 0 || v.Price < s.FromPrice {
			s.FromPrice = v.Price
		}
	}
	return s
}

func (u *ProductUsecase) GetProductDetail(ctx context.Context, slug string) (ProductDetailOutput, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" || len(slug) > 255 {
		return ProductDetailOutput{}, NewHTTPError(http.StatusBadRequest, "invalid slug")
	}

	p, err := u.productRepo.FindBySlug(ctx, slug)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductDetailOutput{}, NotFoundError("product")
	}
	if err != nil {
		return ProductDetailOutput{}, internalError(err)
	}

	out := ProductDetailOutput{Product: p}
	if v, ok := model.SelectDefaultVariant(p.Variants); ok {
		out.DefaultVariant = &v
	}
	return out, nil
}
