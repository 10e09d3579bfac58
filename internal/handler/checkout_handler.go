package handler

import (
	"context"
	"io"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// webhook の本文上限
const maxWebhookBody = 1 << 20

type checkoutService interface {
	Checkout(ctx context.Context, in usecase.CheckoutInput) (usecase.CheckoutOutput, error)
}

type orderService interface {
	GetOrder(ctx context.Context, orderID string) (model.Order, error)
}

type webhookService interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// チェックアウト・決済 webhook・注文参照
type CheckoutHandler struct {
	checkout checkoutService
	orders   orderService
	webhook  webhookService
	cart     cartService
}

func NewCheckoutHandler(checkout checkoutService, orders orderService, webhook webhookService, cart cartService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, orders: orders, webhook: webhook, cart: cart}
}

type CheckoutItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

// items を省略したらセッションのカートを使う
type CheckoutRequest struct {
	Items        []CheckoutItemRequest `json:"items"`
	CustomerInfo model.CustomerInfo    `json:"customer_info"`
	PromoCode    string                `json:"promo_code"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo, session echo.MiddlewareFunc) {
	e.POST("/checkout-session", h.createSession, session)
	e.GET("/checkout/success", h.success, session)
	e.GET("/orders/:orderId", h.getOrder)

	// 署名で認証するのでクッキーは見ない
	e.POST("/webhook", h.handleWebhook)
}

func (h *CheckoutHandler) createSession(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	ctx := c.Request().Context()
	var lines []usecase.CheckoutLine
	if req.Items == nil {
		for _, it := range h.cart.Items(ctx, sid) {
			lines = append(lines, usecase.CheckoutLine{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity})
		}
	} else {
		for _, it := range req.Items {
			lines = append(lines, usecase.CheckoutLine{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity})
		}
	}

	out, err := h.checkout.Checkout(ctx, usecase.CheckoutInput{
		Items:     lines,
		Customer:  req.CustomerInfo,
		PromoCode: req.PromoCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	// 決済画面へ進むのでカートは空にする
	h.cart.Clear(ctx, sid)
	return c.JSON(http.StatusOK, out)
}

// 決済後の戻り先。状態は読むだけで、webhook 前なら new のまま返る。
func (h *CheckoutHandler) success(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	o, err := h.orders.GetOrder(c.Request().Context(), c.QueryParam("orderId"))
	if err != nil {
		return writeError(c, err)
	}

	h.cart.Clear(c.Request().Context(), sid)
	return c.JSON(http.StatusOK, o)
}

func (h *CheckoutHandler) getOrder(c echo.Context) error {
	o, err := h.orders.GetOrder(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *CheckoutHandler) handleWebhook(c echo.Context) error {
	// 署名検証には生の本文が要る
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil || len(payload) > maxWebhookBody {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad request"})
	}

	if err := h.webhook.HandleWebhook(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, WebhookAck{Received: true})
}
