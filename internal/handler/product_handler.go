package handler

import (
	"context"
	"net/http"
	"strconv"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error     string   `json:"error"`
	Fields    []string `json:"fields,omitempty"`
	Retryable bool     `json:"retryable,omitempty"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Fields: he.Fields, Retryable: he.Retryable})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

type productService interface {
	ListPublicProducts(ctx context.Context, in usecase.ListProductsInput) (usecase.ProductListOutput, error)
	GetProductDetail(ctx context.Context, slug string) (usecase.ProductDetailOutput, error)
}

type reviewService interface {
	Submit(ctx context.Context, slug string, in usecase.ReviewInput) (model.Review, error)
	ListApproved(ctx context.Context, slug string) ([]model.Review, error)
	AdminList(ctx context.Context, status string, limit int) ([]model.Review, error)
	Moderate(ctx context.Context, actor string, id int64, status string) (model.Review, error)
}

// /products の公開API（レビュー含む）
type ProductHandler struct {
	uc      productService
	reviews reviewService
}

// DI
func NewProductHandler(uc productService, reviews reviewService) *ProductHandler {
	return &ProductHandler{uc: uc, reviews: reviews}
}

type ReviewCreateRequest struct {
	AuthorName string `json:"author_name"`
	Rating     int    `json:"rating"`
	Body       string `json:"body"`
}

// 公開商品のルートを登録
func (h *ProductHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/products", h.list)
	e.GET("/products/:slug", h.detail)
	e.GET("/products/:slug/reviews", h.listReviews)
	e.POST("/products/:slug/reviews", h.createReview)
}

func (h *ProductHandler) list(c echo.Context) error {
	// page（default 1）
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	// limit（default 20）
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:  page,
		Limit: limit,
		Q:     c.QueryParam("q"),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.GetProductDetail(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) listReviews(c echo.Context) error {
	rs, err := h.reviews.ListApproved(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": rs})
}

func (h *ProductHandler) createReview(c echo.Context) error {
	var req ReviewCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	r, err := h.reviews.Submit(c.Request().Context(), c.Param("slug"), usecase.ReviewInput{
		AuthorName: req.AuthorName,
		Rating:     req.Rating,
		Body:       req.Body,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}
