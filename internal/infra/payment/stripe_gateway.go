package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"storefront/internal/domain/model"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	MetadataOrderID         = "orderId"
	MetadataInternalOrderID = "internalOrderId"
)

var (
	ErrAmountMismatch   = errors.New("payment: session amount does not match order total")
	ErrInvalidSignature = fmt.Errorf("payment: %w", model.ErrWebhookSignature)
	ErrMalformedEvent   = fmt.Errorf("payment: %w", model.ErrWebhookPayload)
)

// checkout/session.Client の New だけを使う
type sessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	PublicBaseURL string
}

type StripeGateway struct {
	sessions      sessionCreator
	webhookSecret string
	currency      string
	baseURL       string
}

func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	client := session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: cfg.SecretKey}
	return newStripeGateway(client, cfg)
}

func newStripeGateway(sessions sessionCreator, cfg StripeConfig) *StripeGateway {
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &StripeGateway{
		sessions:      sessions,
		webhookSecret: cfg.WebhookSecret,
		currency:      currency,
		baseURL:       strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// 注文のスナップショットから Checkout Session を作る。
// 請求額は必ず order.Pricing.Total と一致させる。
func (g *StripeGateway) CreateSession(ctx context.Context, order model.Order) (model.PaymentSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.successURL(order.OrderID)),
		CancelURL:         stripe.String(g.baseURL + "/cart"),
		ClientReferenceID: stripe.String(order.OrderID),
	}
	if order.Customer.Email != "" {
		params.CustomerEmail = stripe.String(order.Customer.Email)
	}
	params.Context = ctx

	lines, shipping := g.buildCharges(order)
	params.LineItems = lines
	params.ShippingOptions = []*stripe.CheckoutSessionShippingOptionParams{
		g.shippingOption(shipping),
	}
	params.AddMetadata(MetadataOrderID, order.OrderID)
	params.AddMetadata(MetadataInternalOrderID, order.ID)
	params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
		Metadata: map[string]string{
			MetadataOrderID:         order.OrderID,
			MetadataInternalOrderID: order.ID,
		},
	}

	charged := AmountCharged(params)
	if charged != order.Pricing.Total {
		return model.PaymentSession{}, fmt.Errorf("%w: charged=%d total=%d", ErrAmountMismatch, charged, order.Pricing.Total)
	}

	s, err := g.sessions.New(params)
	if err != nil {
		return model.PaymentSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return model.PaymentSession{SessionID: s.ID, RedirectURL: s.URL, AmountCharged: charged}, nil
}

// 値引きがあるときは明細を出さず、合計額の1行だけにする（送料0）
func (g *StripeGateway) buildCharges(order model.Order) ([]*stripe.CheckoutSessionLineItemParams, int64) {
	if order.Pricing.Discount > 0 {
		return []*stripe.CheckoutSessionLineItemParams{
			g.lineItem("Order "+order.OrderID, order.Pricing.Total, 1),
		}, 0
	}

	lines := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))
	for _, it := range order.Items {
		lines = append(lines, g.lineItem(itemLabel(it), it.UnitPrice, it.Quantity))
	}
	return lines, order.Pricing.Shipping
}

func (g *StripeGateway) lineItem(name string, unit int64, qty int64) *stripe.CheckoutSessionLineItemParams {
	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(g.currency),
			UnitAmount: stripe.Int64(unit),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(name),
			},
		},
		Quantity: stripe.Int64(qty),
	}
}

func (g *StripeGateway) shippingOption(amount int64) *stripe.CheckoutSessionShippingOptionParams {
	name := "Standard shipping"
	if amount == 0 {
		name = "Free shipping"
	}
	return &stripe.CheckoutSessionShippingOptionParams{
		ShippingRateData: &stripe.CheckoutSessionShippingOptionShippingRateDataParams{
			Type:        stripe.String("fixed_amount"),
			DisplayName: stripe.String(name),
			FixedAmount: &stripe.CheckoutSessionShippingOptionShippingRateDataFixedAmountParams{
				Amount:   stripe.Int64(amount),
				Currency: stripe.String(g.currency),
			},
		},
	}
}

func (g *StripeGateway) successURL(orderID string) string {
	return g.baseURL + "/checkout/success?orderId=" + url.QueryEscape(orderID)
}

func itemLabel(it model.OrderItem) string {
	opts := make([]string, 0, 2)
	if it.Size != "" {
		opts = append(opts, it.Size)
	}
	if it.Color != "" {
		opts = append(opts, it.Color)
	}
	if len(opts) == 0 {
		return it.Name
	}
	return it.Name + " (" + strings.Join(opts, " / ") + ")"
}

// セッションパラメータから実際に請求される額を計算する
func AmountCharged(params *stripe.CheckoutSessionParams) int64 {
	var sum int64
	for _, li := range params.LineItems {
		if li.PriceData == nil || li.PriceData.UnitAmount == nil || li.Quantity == nil {
			continue
		}
		sum += *li.PriceData.UnitAmount * *li.Quantity
	}
	if len(params.ShippingOptions) > 0 {
		if rd := params.ShippingOptions[0].ShippingRateData; rd != nil && rd.FixedAmount != nil && rd.FixedAmount.Amount != nil {
			sum += *rd.FixedAmount.Amount
		}
	}
	return sum
}

// 署名を検証してからイベントを読む。検証に失敗したら ErrInvalidSignature、
// 検証後に中身が読めなければ ErrMalformedEvent。
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (model.PaymentEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return model.PaymentEvent{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := model.PaymentEvent{ID: ev.ID, RawType: string(ev.Type), Kind: model.PaymentEventIgnored}

	switch ev.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		out.Kind = model.PaymentEventSessionCompleted
	case stripe.EventTypeCheckoutSessionExpired:
		out.Kind = model.PaymentEventSessionExpired
	default:
		return out, nil
	}

	if ev.Data == nil {
		return model.PaymentEvent{}, fmt.Errorf("%w: event %s has no data", ErrMalformedEvent, ev.ID)
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return model.PaymentEvent{}, fmt.Errorf("%w: decode checkout session: %v", ErrMalformedEvent, err)
	}

	out.SessionID = s.ID
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	out.OrderID = s.Metadata[MetadataOrderID]
	out.InternalOrderID = s.Metadata[MetadataInternalOrderID]
	return out, nil
}
