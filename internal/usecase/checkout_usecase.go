package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/domain/pricing"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 1明細あたりの上限数量
const MaxLineQuantity int64 = 20

type CheckoutLine struct {
	ProductID string
	VariantID string
	Quantity  int64
}

type CheckoutInput struct {
	Items     []CheckoutLine
	Customer  model.CustomerInfo
	PromoCode string
}

type CheckoutOutput struct {
	SessionID   string                  `json:"session_id"`
	RedirectURL string                  `json:"redirect_url"`
	OrderID     string                  `json:"order_id"`
	Pricing     model.OrderPricing      `json:"pricing"`
	Promotion   pricing.PromotionResult `json:"promotion"`
}

type CheckoutUsecase struct {
	products repo.ProductRepository
	orders   repo.OrderRepository
	payments PaymentGateway
	builder  *OrderDraftBuilder
	logger   *zap.Logger
	timeout  time.Duration
}

func NewCheckoutUsecase(
	products repo.ProductRepository,
	orders repo.OrderRepository,
	payments PaymentGateway,
	builder *OrderDraftBuilder,
	logger *zap.Logger,
	timeout time.Duration,
) *CheckoutUsecase {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CheckoutUsecase{
		products: products,
		orders:   orders,
		payments: payments,
		builder:  builder,
		logger:   logger,
		timeout:  timeout,
	}
}

// Checkout は 注文保存 → 決済セッション作成 の順で進める。
// 保存に失敗したらセッションは作らない。
func (u *CheckoutUsecase) Checkout(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	if len(in.Items) == 0 {
		return CheckoutOutput{}, EmptyCartError()
	}

	//入力チェック（注文者＋明細をまとめて返す）
	fields := u.builder.validator.ValidateCustomer(normalizeCustomer(in.Customer))
	items, itemFields, err := u.resolveLines(ctx, in.Items)
	if err != nil {
		return CheckoutOutput{}, err
	}
	fields = append(fields, itemFields...)
	if len(fields) > 0 {
		return CheckoutOutput{}, ValidationError(fields...)
	}

	draft, err := u.builder.Build(DraftInput{Items: items, Customer: in.Customer, PromoCode: in.PromoCode})
	if err != nil {
		return CheckoutOutput{}, err
	}
	order := draft.Order
	log := u.logger.With(zap.String("order_id", order.OrderID))
	if draft.Promotion.Error != "" {
		log.Info("promotion code rejected", zap.String("promo_code", in.PromoCode))
	}

	//注文を保存
	saveCtx, cancel := context.WithTimeout(ctx, u.timeout)
	internalID, err := u.orders.Create(saveCtx, order)
	cancel()
	if err != nil {
		log.Error("order persist failed", zap.Error(err))
		return CheckoutOutput{}, PersistenceError(err)
	}
	order.ID = internalID

	//決済セッション作成
	payCtx, cancel := context.WithTimeout(ctx, u.timeout)
	session, err := u.payments.CreateSession(payCtx, order)
	cancel()
	if err != nil {
		log.Error("payment session failed", zap.String("internal_order_id", internalID), zap.Error(err))
		return CheckoutOutput{}, PaymentGatewayError(err)
	}
	if session.AmountCharged != order.Pricing.Total {
		log.Error("payment session amount mismatch",
			zap.Int64("charged", session.AmountCharged), zap.Int64("total", order.Pricing.Total))
		return CheckoutOutput{}, PaymentGatewayError(fmt.Errorf("charged %d, expected %d", session.AmountCharged, order.Pricing.Total))
	}

	// セッションIDの保存に失敗しても、metadata から照合できるので続行
	patchCtx, cancel := context.WithTimeout(ctx, u.timeout)
	err = u.orders.Patch(patchCtx, internalID, model.OrderPatch{
		PaymentSessionID: &session.SessionID,
		UpdatedAt:        u.builder.clock.Now(),
	})
	cancel()
	if err != nil {
		log.Warn("attach payment session id failed", zap.String("session_id", session.SessionID), zap.Error(err))
	}

	log.Info("checkout session created",
		zap.String("internal_order_id", internalID),
		zap.String("session_id", session.SessionID),
		zap.Int64("total", order.Pricing.Total))

	return CheckoutOutput{
		SessionID:   session.SessionID,
		RedirectURL: session.RedirectURL,
		OrderID:     order.OrderID,
		Pricing:     order.Pricing,
		Promotion:   draft.Promotion,
	}, nil
}

// 明細をカタログで引き直す。価格・名前はカタログの値を使い、在庫と上限を確認する。
// 同じバリアントが複数行あれば数量を合算する。
func (u *CheckoutUsecase) resolveLines(ctx context.Context, lines []CheckoutLine) ([]model.CartItem, []string, error) {
	type merged struct {
		index int
		line  CheckoutLine
	}
	order := make([]string, 0, len(lines))
	byKey := map[string]*merged{}
	var fields []string

	for i, l := range lines {
		if l.Quantity < 1 {
			fields = append(fields, fmt.Sprintf("items[%d].quantity", i))
			continue
		}
		key := l.ProductID + "\x00" + l.VariantID
		if m, ok := byKey[key]; ok {
			m.line.Quantity += l.Quantity
			continue
		}
		byKey[key] = &merged{index: i, line: l}
		order = append(order, key)
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	items := make([]model.CartItem, 0, len(order))
	for _, key := range order {
		m := byKey[key]
		p, err := u.products.FindByID(ctx, m.line.ProductID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && !p.IsActive) {
			fields = append(fields, fmt.Sprintf("items[%d].product_id", m.index))
			continue
		}
		if err != nil {
			return nil, nil, internalError(err)
		}

		v, err := u.products.FindVariant(ctx, m.line.ProductID, m.line.VariantID)
		if errors.Is(err, repo.ErrNotFound) {
			fields = append(fields, fmt.Sprintf("items[%d].variant_id", m.index))
			continue
		}
		if err != nil {
			return nil, nil, internalError(err)
		}

		if m.line.Quantity > v.Stock || m.line.Quantity > MaxLineQuantity {
			fields = append(fields, fmt.Sprintf("items[%d].quantity", m.index))
			continue
		}
		items = append(items, v.ToCartItem(p, m.line.Quantity))
	}
	return items, fields, nil
}
