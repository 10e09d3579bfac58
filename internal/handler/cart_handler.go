package handler

import (
	"context"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type cartService interface {
	GetCart(ctx context.Context, sessionID string) usecase.CartOutput
	Items(ctx context.Context, sessionID string) []model.CartItem
	AddItem(ctx context.Context, sessionID string, in usecase.AddCartItemInput) (usecase.CartOutput, error)
	QuickAdd(ctx context.Context, sessionID string, productID string) (usecase.CartOutput, error)
	UpdateQuantity(ctx context.Context, sessionID, productID, variantID string, qty int64) (usecase.CartOutput, error)
	RemoveItem(ctx context.Context, sessionID, productID, variantID string) usecase.CartOutput
	Clear(ctx context.Context, sessionID string) usecase.CartOutput
}

// /cartのHTTP
type CartHandler struct {
	uc cartService
}

// DI
func NewCartHandler(uc cartService) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int64  `json:"quantity"`
}

type QuickAddRequest struct {
	ProductID string `json:"product_id"`
}

type UpdateCartItemRequest struct {
	Quantity *int64 `json:"quantity"`
}

// /cart を登録（cart_session クッキー必須）
func (h *CartHandler) RegisterRoutes(e *echo.Echo, session echo.MiddlewareFunc) {
	g := e.Group("/cart", session)

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.POST("/quick-add", h.quickAdd)
	g.PATCH("/items/:productId/:variantId", h.patchItem)
	g.DELETE("/items/:productId/:variantId", h.deleteItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return c.JSON(http.StatusOK, h.uc.GetCart(c.Request().Context(), sid))
}

func (h *CartHandler) addItem(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddItem(c.Request().Context(), sid, usecase.AddCartItemInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) quickAdd(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req QuickAddRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.QuickAdd(c.Request().Context(), sid, req.ProductID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), sid, c.Param("productId"), c.Param("variantId"), *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return c.JSON(http.StatusOK, h.uc.RemoveItem(c.Request().Context(), sid, c.Param("productId"), c.Param("variantId")))
}

func (h *CartHandler) clear(c echo.Context) error {
	sid, ok := middleware.CartSessionID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}
	return c.JSON(http.StatusOK, h.uc.Clear(c.Request().Context(), sid))
}
