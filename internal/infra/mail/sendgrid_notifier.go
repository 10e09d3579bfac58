package mail

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/domain/model"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sender interface {
	SendWithContext(ctx context.Context, email *sgmail.SGMailV3) (*rest.Response, error)
}

// 決済完了後の領収メールを SendGrid で送る
type SendGridNotifier struct {
	client   sender
	from     string
	fromName string
}

func NewSendGridNotifier(apiKey, from string) *SendGridNotifier {
	return &SendGridNotifier{client: sendgrid.NewSendClient(apiKey), from: from, fromName: "Storefront"}
}

func (n *SendGridNotifier) SendReceipt(ctx context.Context, o model.Order) error {
	if strings.TrimSpace(o.Customer.Email) == "" {
		return fmt.Errorf("to address is empty")
	}
	if n.from == "" {
		return fmt.Errorf("from address is empty")
	}

	subject := "Your order " + o.OrderID
	body := ReceiptText(o)
	msg := sgmail.NewSingleEmail(
		sgmail.NewEmail(n.fromName, n.from),
		subject,
		sgmail.NewEmail(o.Customer.Name, o.Customer.Email),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	resp, err := n.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid send failed: status=%d, body=%s", resp.StatusCode, resp.Body)
	}
	return nil
}

// SENDGRID_API_KEY 未設定時
type NopNotifier struct{}

func (NopNotifier) SendReceipt(context.Context, model.Order) error { return nil }

// 領収メール本文（プレーンテキスト）
func ReceiptText(o model.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order, %s.\n\n", o.Customer.Name)
	fmt.Fprintf(&b, "Order: %s\n\n", o.OrderID)
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%d x %s", it.Quantity, it.Name)
		if it.Size != "" || it.Color != "" {
			fmt.Fprintf(&b, " [%s]", strings.Trim(it.Size+" "+it.Color, " "))
		}
		fmt.Fprintf(&b, "  %s\n", money(it.LineTotal(), o.Currency))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Subtotal: %s\n", money(o.Pricing.Subtotal, o.Currency))
	fmt.Fprintf(&b, "Shipping: %s\n", money(o.Pricing.Shipping, o.Currency))
	if o.Pricing.Discount > 0 {
		fmt.Fprintf(&b, "Discount (%s): -%s\n", o.PromoCode, money(o.Pricing.Discount, o.Currency))
	}
	fmt.Fprintf(&b, "Total: %s\n", money(o.Pricing.Total, o.Currency))
	return b.String()
}

func money(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
