package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type IDGenerator interface {
	NewID() string
}

type Clock interface {
	Now() time.Time
}

// 決済プロセッサ（Stripe）
type PaymentGateway interface {
	CreateSession(ctx context.Context, order model.Order) (model.PaymentSession, error)
	ParseWebhook(payload []byte, signature string) (model.PaymentEvent, error)
}

type EventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, ev model.OrderStatusChanged) error
}

type ReceiptNotifier interface {
	SendReceipt(ctx context.Context, order model.Order) error
}

// 入力チェック（validator パッケージが実装）。不正な項目名を返す。
type InputValidator interface {
	ValidateCustomer(c model.CustomerInfo) []string
	ValidateReview(in ReviewInput) []string
}
