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

type inventoryService interface {
	SetStock(ctx context.Context, actor string, variantID string, in usecase.SetStockInput) (model.InventoryMovement, error)
	Report(ctx context.Context, lowStock *int64) (usecase.InventoryReport, error)
}

type auditLogService interface {
	List(ctx context.Context, f repository.AuditLogFilter) ([]model.AuditLog, error)
}

// InventoryUpdateRequest は在庫更新の入力です。
type InventoryUpdateRequest struct {
	Stock  *int64 `json:"stock"`
	Reason string `json:"reason"`
}

type ReviewModerateRequest struct {
	Status string `json:"status"`
}

// /admin/inventory, /admin/reviews, /admin/audit-logs をまとめる
type AdminInventoryHandler struct {
	inventory inventoryService
	reviews   reviewService
	audit     auditLogService
}

// DI
func NewAdminInventoryHandler(inventory inventoryService, reviews reviewService, audit auditLogService) *AdminInventoryHandler {
	return &AdminInventoryHandler{inventory: inventory, reviews: reviews, audit: audit}
}

func (h *AdminInventoryHandler) RegisterRoutes(admin *echo.Group) {
	admin.PUT("/inventory/:variantId", h.updateInventory)
	admin.GET("/inventory/report", h.report)
	admin.GET("/reviews", h.listReviews)
	admin.PUT("/reviews/:id", h.moderateReview)
	admin.GET("/audit-logs", h.listAuditLogs)
}

func (h *AdminInventoryHandler) updateInventory(c echo.Context) error {
	var req InventoryUpdateRequest
	if err := c.Bind(&req); err != nil || req.Stock == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	m, err := h.inventory.SetStock(c.Request().Context(), middleware.AdminActor(c), c.Param("variantId"), usecase.SetStockInput{
		Stock:  *req.Stock,
		Reason: req.Reason,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *AdminInventoryHandler) report(c echo.Context) error {
	var lowStock *int64
	if v := c.QueryParam("low_stock"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid low_stock"})
		}
		lowStock = &n
	}

	out, err := h.inventory.Report(c.Request().Context(), lowStock)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminInventoryHandler) listReviews(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	rs, err := h.reviews.AdminList(c.Request().Context(), c.QueryParam("status"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": rs})
}

func (h *AdminInventoryHandler) moderateReview(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req ReviewModerateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	r, err := h.reviews.Moderate(c.Request().Context(), middleware.AdminActor(c), id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *AdminInventoryHandler) listAuditLogs(c echo.Context) error {
	f := repository.AuditLogFilter{Limit: 50}

	if v := c.QueryParam("actor"); v != "" {
		f.Actor = &v
	}
	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resource_type"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}
	if v := c.QueryParam("resource_id"); v != "" {
		f.ResourceID = &v
	}
	if v := c.QueryParam("from"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid from"})
		}
		f.CreatedFrom = &tm
	}
	if v := c.QueryParam("to"); v != "" {
		tm, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid to"})
		}
		f.CreatedTo = &tm
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		f.Limit = l
	}
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		f.Offset = o
	}

	logs, err := h.audit.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": logs})
}
