package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newCartEcho(uc *CartMock) *echo.Echo {
	e := echo.New()
	NewCartHandler(uc).RegisterRoutes(e, fixedSession("sid-1"))
	return e
}

func serve(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCartHandler_AddItem(t *testing.T) {
	uc := &CartMock{}
	uc.On("AddItem", mock.Anything, "sid-1", usecase.AddCartItemInput{ProductID: "p1", VariantID: "v1", Quantity: 2}).
		Return(usecase.CartOutput{
			Items:     []model.CartItem{{ProductID: "p1", VariantID: "v1", UnitPrice: 5000, Quantity: 2}},
			Total:     10000,
			ItemCount: 2,
		}, nil)

	rec := serve(newCartEcho(uc), http.MethodPost, "/cart/items", `{"product_id":"p1","variant_id":"v1","quantity":2}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":10000`)
	assert.Contains(t, rec.Body.String(), `"item_count":2`)
}

func TestCartHandler_QuickAddOutOfStock(t *testing.T) {
	uc := &CartMock{}
	uc.On("QuickAdd", mock.Anything, "sid-1", "p2").Return(usecase.CartOutput{}, usecase.NewHTTPError(http.StatusConflict, "out of stock"))

	rec := serve(newCartEcho(uc), http.MethodPost, "/cart/quick-add", `{"product_id":"p2"}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"out of stock"}`, rec.Body.String())
}

func TestCartHandler_PatchRequiresQuantity(t *testing.T) {
	uc := &CartMock{}
	uc.On("UpdateQuantity", mock.Anything, "sid-1", "p1", "v1", int64(0)).Return(usecase.CartOutput{}, nil)
	e := newCartEcho(uc)

	rec := serve(e, http.MethodPatch, "/cart/items/p1/v1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(e, http.MethodPatch, "/cart/items/p1/v1", `{"quantity":0}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	uc.AssertExpectations(t)
}

func TestCartHandler_DeleteAndClear(t *testing.T) {
	uc := &CartMock{}
	uc.On("RemoveItem", mock.Anything, "sid-1", "p1", "v1").Return(usecase.CartOutput{})
	uc.On("Clear", mock.Anything, "sid-1").Return(usecase.CartOutput{})
	uc.On("GetCart", mock.Anything, "sid-1").Return(usecase.CartOutput{Items: []model.CartItem{}})
	e := newCartEcho(uc)

	assert.Equal(t, http.StatusOK, serve(e, http.MethodDelete, "/cart/items/p1/v1", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodDelete, "/cart", "").Code)
	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/cart", "").Code)
	uc.AssertExpectations(t)
}
