package usecase

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 支払い済みで在庫を動かすもの
type PaidOrderRecorder interface {
	RecordOrderPaid(ctx context.Context, o model.Order)
}

// WebhookUsecase は決済イベントを注文ストアへ反映する。
// status=processing / paymentStatus=succeeded を書くのはここだけ。
type WebhookUsecase struct {
	payments  PaymentGateway
	orders    repo.OrderRepository
	inventory PaidOrderRecorder
	events    EventPublisher
	notifier  ReceiptNotifier
	clock     Clock
	logger    *zap.Logger
	timeout   time.Duration
}

func NewWebhookUsecase(
	payments PaymentGateway,
	orders repo.OrderRepository,
	inventory PaidOrderRecorder,
	events EventPublisher,
	notifier ReceiptNotifier,
	clock Clock,
	logger *zap.Logger,
	timeout time.Duration,
) *WebhookUsecase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookUsecase{
		payments:  payments,
		orders:    orders,
		inventory: inventory,
		events:    events,
		notifier:  notifier,
		clock:     clock,
		logger:    logger,
		timeout:   timeout,
	}
}

// HandleWebhook が nil を返したら 200 で受領を返す。
// エラーは署名不正（400）か、ストアなどの一時的な失敗（再送してほしい）。
func (u *WebhookUsecase) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.payments.ParseWebhook(payload, signature)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrWebhookSignature):
		u.logger.Warn("webhook rejected", zap.Error(err))
		return SignatureError(err)
	case errors.Is(err, model.ErrWebhookPayload):
		// 署名は正しいので再送されても読めない。受領だけ返す
		u.logger.Error("verified webhook payload unreadable", zap.Error(err))
		return nil
	default:
		u.logger.Error("webhook parse failed", zap.Error(err))
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	log := u.logger.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.RawType))

	var target transition
	switch ev.Kind {
	case model.PaymentEventSessionCompleted:
		target = paidTransition
	case model.PaymentEventSessionExpired:
		target = expiredTransition
	default:
		log.Debug("webhook event ignored")
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	o, err := u.findOrder(ctx, ev)
	if errors.Is(err, repo.ErrNotFound) {
		// 再送しても解決しないので受領だけ返す
		log.Warn("webhook for unknown order",
			zap.String("order_id", ev.OrderID), zap.String("internal_order_id", ev.InternalOrderID))
		return nil
	}
	if err != nil {
		log.Error("order lookup failed", zap.Error(err))
		return PersistenceError(err)
	}
	log = log.With(zap.String("order_id", o.OrderID), zap.String("internal_order_id", o.ID))

	applied, err := u.apply(ctx, o, ev, target, log)
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	o.Status = target.status
	o.Payment = target.payment
	o.UpdatedAt = u.clock.Now()
	u.afterTransition(ctx, o, target, log)
	return nil
}

type transition struct {
	status  model.OrderStatus
	payment model.PaymentStatus
}

var (
	paidTransition    = transition{model.OrderStatusProcessing, model.PaymentStatusSucceeded}
	expiredTransition = transition{model.OrderStatusExpired, model.PaymentStatusFailed}
)

// 反映したら true。すでに反映済み、または遷移できないなら false。
func (u *WebhookUsecase) apply(ctx context.Context, o model.Order, ev model.PaymentEvent, t transition, log *zap.Logger) (bool, error) {
	if o.Status == t.status && o.Payment == t.payment {
		log.Info("webhook already applied")
		return false, nil
	}
	if !o.Status.CanTransitionTo(t.status) {
		log.Warn("webhook transition not allowed",
			zap.String("from", string(o.Status)), zap.String("to", string(t.status)))
		return false, nil
	}

	from := o.Status
	patch := model.OrderPatch{
		ExpectStatus:  &from,
		Status:        &t.status,
		PaymentStatus: &t.payment,
		UpdatedAt:     u.clock.Now(),
	}
	if t == paidTransition {
		patch.PaymentSessionID = nonEmpty(ev.SessionID)
		patch.PaymentCustomerID = nonEmpty(ev.CustomerID)
		patch.PaymentIntentID = nonEmpty(ev.PaymentIntentID)
	}

	err := u.orders.Patch(ctx, o.ID, patch)
	if errors.Is(err, repo.ErrStatusConflict) {
		// 同じイベントの並行配信で先に反映された
		log.Info("order changed concurrently, skipping")
		return false, nil
	}
	if errors.Is(err, repo.ErrNotFound) {
		log.Warn("order vanished before patch")
		return false, nil
	}
	if err != nil {
		log.Error("order patch failed", zap.Error(err))
		return false, PersistenceError(err)
	}

	log.Info("order reconciled",
		zap.String("from", string(from)), zap.String("status", string(t.status)))
	return true, nil
}

// 在庫・イベント・領収メール。どれも失敗はログだけ。
func (u *WebhookUsecase) afterTransition(ctx context.Context, o model.Order, t transition, log *zap.Logger) {
	if t == paidTransition {
		u.inventory.RecordOrderPaid(ctx, o)
	}

	if err := u.events.PublishOrderStatusChanged(ctx, model.NewOrderStatusChanged(o, "webhook", o.UpdatedAt)); err != nil {
		log.Warn("publish order event failed", zap.Error(err))
	}

	if t == paidTransition {
		if err := u.notifier.SendReceipt(ctx, o); err != nil {
			log.Warn("receipt mail failed", zap.Error(err))
		}
	}
}

// internalOrderId を優先し、なければ注文番号で探す
func (u *WebhookUsecase) findOrder(ctx context.Context, ev model.PaymentEvent) (model.Order, error) {
	if ev.InternalOrderID != "" {
		o, err := u.orders.FindByID(ctx, ev.InternalOrderID)
		if err == nil || !errors.Is(err, repo.ErrNotFound) || ev.OrderID == "" {
			return o, err
		}
	}
	if ev.OrderID != "" {
		return u.orders.FindByOrderID(ctx, ev.OrderID)
	}
	return model.Order{}, repo.ErrNotFound
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
