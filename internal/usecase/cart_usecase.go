package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/cart"
	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// カートセッションごとに cart.Store を開いて操作する
type CartUsecase struct {
	sessions *cart.Sessions
	products repo.ProductRepository
	logger   *zap.Logger
	timeout  time.Duration
}

// DI
func NewCartUsecase(storage cart.Storage, products repo.ProductRepository, logger *zap.Logger, timeout time.Duration) *CartUsecase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CartUsecase{
		sessions: cart.NewSessions(storage, logger),
		products: products,
		logger:   logger,
		timeout:  timeout,
	}
}

type CartOutput struct {
	Items     []model.CartItem `json:"items"`
	Total     int64            `json:"total"`
	ItemCount int64            `json:"item_count"`
	Degraded  bool             `json:"degraded,omitempty"`
}

type AddCartItemInput struct {
	ProductID string
	VariantID string
	Quantity  int64
}

func (u *CartUsecase) open(ctx context.Context, sessionID string) *cart.Store {
	return u.sessions.Open(ctx, sessionID)
}

// ストレージ・カタログ呼び出しの上限
func (u *CartUsecase) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, u.timeout)
}

func toCartOutput(s *cart.Store) CartOutput {
	return CartOutput{Items: s.Items(), Total: s.Total(), ItemCount: s.ItemCount(), Degraded: s.Degraded()}
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) CartOutput {
	ctx, cancel := u.bound(ctx)
	defer cancel()

	return toCartOutput(u.open(ctx, sessionID))
}

func (u *CartUsecase) Items(ctx context.Context, sessionID string) []model.CartItem {
	ctx, cancel := u.bound(ctx)
	defer cancel()

	return u.open(ctx, sessionID).Items()
}

// 名前・価格・オプションはカタログから引く（クライアントの値は使わない）。在庫はここでは見ない。
func (u *CartUsecase) AddItem(ctx context.Context, sessionID string, in AddCartItemInput) (CartOutput, error) {
	var fields []string
	if strings.TrimSpace(in.ProductID) == "" {
		fields = append(fields, "product_id")
	}
	if strings.TrimSpace(in.VariantID) == "" {
		fields = append(fields, "variant_id")
	}
	if in.Quantity < 1 || in.Quantity > MaxLineQuantity {
		fields = append(fields, "quantity")
	}
	if len(fields) > 0 {
		return CartOutput{}, ValidationError(fields...)
	}

	ctx, cancel := u.bound(ctx)
	defer cancel()

	p, err := u.activeProduct(ctx, in.ProductID)
	if err != nil {
		return CartOutput{}, err
	}
	v, err := u.products.FindVariant(ctx, p.ID, in.VariantID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartOutput{}, NotFoundError("variant")
	}
	if err != nil {
		return CartOutput{}, internalError(err)
	}

	s := u.open(ctx, sessionID)
	if err := s.Add(ctx, v.ToCartItem(p, in.Quantity)); err != nil {
		return CartOutput{}, ValidationError("quantity")
	}
	return toCartOutput(s), nil
}

// 既定バリアント（在庫あり最安）を1つ入れる
func (u *CartUsecase) QuickAdd(ctx context.Context, sessionID string, productID string) (CartOutput, error) {
	if strings.TrimSpace(productID) == "" {
		return CartOutput{}, ValidationError("product_id")
	}
	ctx, cancel := u.bound(ctx)
	defer cancel()

	p, err := u.activeProduct(ctx, productID)
	if err != nil {
		return CartOutput{}, err
	}
	vs, err := u.products.ListVariants(ctx, p.ID)
	if err != nil {
		return CartOutput{}, internalError(err)
	}
	v, ok := model.SelectDefaultVariant(vs)
	if !ok {
		return CartOutput{}, NewHTTPError(http.StatusConflict, "out of stock")
	}

	s := u.open(ctx, sessionID)
	if err := s.Add(ctx, v.ToCartItem(p, 1)); err != nil {
		return CartOutput{}, internalError(err)
	}
	return toCartOutput(s), nil
}

// 0以下は削除と同じ
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID, productID, variantID string, qty int64) (CartOutput, error) {
	if qty > MaxLineQuantity {
		return CartOutput{}, ValidationError("quantity")
	}
	ctx, cancel := u.bound(ctx)
	defer cancel()

	s := u.open(ctx, sessionID)
	s.UpdateQuantity(ctx, productID, variantID, qty)
	return toCartOutput(s), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, sessionID, productID, variantID string) CartOutput {
	ctx, cancel := u.bound(ctx)
	defer cancel()

	s := u.open(ctx, sessionID)
	s.Remove(ctx, productID, variantID)
	return toCartOutput(s)
}

func (u *CartUsecase) Clear(ctx context.Context, sessionID string) CartOutput {
	ctx, cancel := u.bound(ctx)
	defer cancel()

	s := u.open(ctx, sessionID)
	s.Clear(ctx)
	return toCartOutput(s)
}

func (u *CartUsecase) activeProduct(ctx context.Context, productID string) (model.Product, error) {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
		return model.Product{}, NotFoundError("product")
	}
	if err != nil {
		return model.Product{}, internalError(err)
	}
	return p, nil
}
