package server

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Product        *handler.ProductHandler
	Cart           *handler.CartHandler
	Checkout       *handler.CheckoutHandler
	AdminOrder     *handler.AdminOrderHandler
	AdminInventory *handler.AdminInventoryHandler
}

// cartSession は cart_session クッキーのミドルウェア、adminSecretHash は X-Admin-Secret の照合用
func (s *Server) RegisterRoutes(h Handlers, cartSession echo.MiddlewareFunc, adminSecretHash string) {
	s.e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	h.Product.RegisterRoutes(s.e)
	h.Cart.RegisterRoutes(s.e, cartSession)
	h.Checkout.RegisterRoutes(s.e, cartSession)

	admin := s.e.Group("/admin", middleware.AdminSecretGuard(adminSecretHash))
	h.AdminOrder.RegisterRoutes(admin)
	h.AdminInventory.RegisterRoutes(admin)
}
