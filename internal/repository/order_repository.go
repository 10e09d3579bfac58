package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type AdminOrderListFilter struct {
	Page   int
	Limit  int
	Status string
	From   *time.Time
	To     *time.Time
}

// 注文ストア（注文ステータスの唯一の正）。
// 実装は Postgres(GORM) と Firestore の二つ。
type OrderRepository interface {
	// 注文と明細をまとめて保存し、ストア側の内部IDを返す
	Create(ctx context.Context, order model.Order) (string, error)

	FindByID(ctx context.Context, internalID string) (model.Order, error)
	FindByOrderID(ctx context.Context, orderID string) (model.Order, error)

	// 指定項目だけ上書きする（加算はしない）
	Patch(ctx context.Context, internalID string, patch model.OrderPatch) error

	//管理者用の注文一覧
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)

	// status=completed かつ created_at < cutoff の注文
	ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error)

	// 物理削除（明細も消す）
	Delete(ctx context.Context, internalID string) error
}
