package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// 注文の参照（読み取りのみ）
type OrderUsecase struct {
	orders  repo.OrderRepository
	timeout time.Duration
}

func NewOrderUsecase(orders repo.OrderRepository, timeout time.Duration) *OrderUsecase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OrderUsecase{orders: orders, timeout: timeout}
}

// 注文番号で取得。webhook 到着前なら status=new のまま返る。
func (u *OrderUsecase) GetOrder(ctx context.Context, orderID string) (model.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || len(orderID) > 64 {
		return model.Order{}, ValidationError("order_id")
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	o, err := u.orders.FindByOrderID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NotFoundError("order")
	}
	if err != nil {
		return model.Order{}, internalError(err)
	}
	return o, nil
}
