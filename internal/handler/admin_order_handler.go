package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type adminOrderService interface {
	List(ctx context.Context, f repository.AdminOrderListFilter) (usecase.AdminOrderListOutput, error)
	UpdateStatus(ctx context.Context, actor string, orderID string, status string) (model.Order, error)
	UpdatePriority(ctx context.Context, actor string, orderID string, priority string) (model.Order, error)
}

type retentionService interface {
	Sweep(ctx context.Context, actor string) (usecase.SweepResult, error)
}

type AdminOrderHandler struct {
	uc        adminOrderService
	retention retentionService
}

func NewAdminOrderHandler(uc adminOrderService, retention retentionService) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, retention: retention}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

type OrderPriorityUpdateRequest struct {
	Priority string `json:"priority"`
}

// admin は AdminSecretGuard 済みのグループ
func (h *AdminOrderHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/orders", h.list)
	admin.PUT("/orders/:orderId/status", h.updateStatus)
	admin.PUT("/orders/:orderId/priority", h.updatePriority)
	admin.POST("/retention/sweep", h.sweep)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	status := c.QueryParam("status")

	var fromPtr *time.Time
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		fromPtr = &tm
	}

	var toPtr *time.Time
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		toPtr = &tm
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:   page,
		Limit:  limit,
		Status: status,
		From:   fromPtr,
		To:     toPtr,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	o, err := h.uc.UpdateStatus(c.Request().Context(), middleware.AdminActor(c), c.Param("orderId"), req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminOrderHandler) updatePriority(c echo.Context) error {
	var req OrderPriorityUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	o, err := h.uc.UpdatePriority(c.Request().Context(), middleware.AdminActor(c), c.Param("orderId"), req.Priority)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminOrderHandler) sweep(c echo.Context) error {
	res, err := h.retention.Sweep(c.Request().Context(), middleware.AdminActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
