package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type webhookFixture struct {
	orders    *memOrders
	inventory *memInventory
	payments  *PaymentGatewayMock
	events    *recordingPublisher
	mails     *recordingNotifier
	uc        *usecase.WebhookUsecase
}

func newWebhookFixture(t *testing.T, store repo.OrderRepository) *webhookFixture {
	t.Helper()
	orders := newMemOrders()
	if store == nil {
		store = orders
	}
	clock := &fixedClock{now: testNow.Add(time.Minute)}
	inv := newMemInventory(map[string]int64{"v1": 10, "v2": 1})
	f := &webhookFixture{
		orders:    orders,
		inventory: inv,
		payments:  &PaymentGatewayMock{},
		events:    &recordingPublisher{},
		mails:     &recordingNotifier{},
	}
	invUC := usecase.NewInventoryUsecase(inv, &AuditRepoMock{}, clock, zap.NewNop())
	f.uc = usecase.NewWebhookUsecase(f.payments, store, invUC, f.events, f.mails, clock, zap.NewNop(), time.Second)
	return f
}

func newOrder(id string, status model.OrderStatus) model.Order {
	pay := model.PaymentStatusPending
	if status == model.OrderStatusProcessing || status == model.OrderStatusCompleted {
		pay = model.PaymentStatusSucceeded
	}
	return model.Order{
		ID:       id,
		OrderID:  "ORD-" + id,
		Customer: customer(),
		Items: []model.OrderItem{
			{ProductID: "p1", VariantID: "v1", Name: "Tee", UnitPrice: 5000, Quantity: 2},
			{ProductID: "p2", VariantID: "v2", Name: "Cap", UnitPrice: 2000, Quantity: 2},
		},
		Status:    status,
		Payment:   pay,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func completedEvent(internalID string) model.PaymentEvent {
	return model.PaymentEvent{
		ID:              "evt_1",
		Kind:            model.PaymentEventSessionCompleted,
		RawType:         "checkout.session.completed",
		SessionID:       "cs_1",
		CustomerID:      "cus_1",
		PaymentIntentID: "pi_1",
		InternalOrderID: internalID,
		OrderID:         "ORD-" + internalID,
	}
}

func TestWebhook_CompletedTwiceAppliesOnce(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("X", model.OrderStatusNew))
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(completedEvent("X"), nil)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
	require.NoError(t, f.uc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	o := f.orders.get("X")
	assert.Equal(t, model.OrderStatusProcessing, o.Status)
	assert.Equal(t, model.PaymentStatusSucceeded, o.Payment)
	assert.Equal(t, "cs_1", o.PaymentSessionID)
	assert.Equal(t, "cus_1", o.PaymentCustomerID)
	assert.Equal(t, "pi_1", o.PaymentIntentID)
	assert.Equal(t, testNow.Add(time.Minute), o.UpdatedAt)

	assert.Equal(t, 1, f.orders.patches)
	assert.Len(t, f.inventory.movements, 2)
	assert.Len(t, f.events.events, 1)
	assert.Equal(t, []string{"ORD-X"}, f.mails.sent)
}

func TestWebhook_ConcurrentDeliveriesApplyOnce(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("X", model.OrderStatusNew))
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(completedEvent("X"), nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, f.uc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.orders.patches)
	assert.Len(t, f.inventory.movements, 2)
	assert.Len(t, f.events.events, 1)
}

func TestWebhook_InventoryDecrementsAndClamps(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("X", model.OrderStatusNew))
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(completedEvent("X"), nil)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))

	assert.Equal(t, int64(8), f.inventory.stock["v1"])
	assert.Equal(t, int64(0), f.inventory.stock["v2"])
	for _, m := range f.inventory.movements {
		assert.Equal(t, model.MovementReasonOrderPaid, m.Reason)
		assert.Equal(t, "ORD-X", m.OrderID)
	}
}

func TestWebhook_Expired(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("Y", model.OrderStatusNew))
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(model.PaymentEvent{
		Kind: model.PaymentEventSessionExpired, InternalOrderID: "Y",
	}, nil)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))

	o := f.orders.get("Y")
	assert.Equal(t, model.OrderStatusExpired, o.Status)
	assert.Equal(t, model.PaymentStatusFailed, o.Payment)
	assert.Empty(t, f.inventory.movements)
	assert.Empty(t, f.mails.sent)
	assert.Len(t, f.events.events, 1)
}

func TestWebhook_LateExpiredDoesNotDowngrade(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("Z", model.OrderStatusProcessing))
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(model.PaymentEvent{
		Kind: model.PaymentEventSessionExpired, InternalOrderID: "Z",
	}, nil)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, model.OrderStatusProcessing, f.orders.get("Z").Status)
	assert.Equal(t, 0, f.orders.patches)
}

func TestWebhook_BadSignature(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("X", model.OrderStatusNew))
	f.payments.On("ParseWebhook", mock.Anything, "forged").Return(model.PaymentEvent{}, fmt.Errorf("%w: no matching v1", model.ErrWebhookSignature))

	err := f.uc.HandleWebhook(context.Background(), nil, "forged")
	require.ErrorIs(t, err, usecase.ErrSignature)

	he, _ := usecase.AsHTTPError(err)
	assert.Equal(t, 400, he.Status)
	assert.Equal(t, "bad request", he.Message)
	assert.Equal(t, model.OrderStatusNew, f.orders.get("X").Status)
}

func TestWebhook_UnreadablePayloadAcknowledged(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("X", model.OrderStatusNew))
	f.payments.On("ParseWebhook", mock.Anything, "sig").
		Return(model.PaymentEvent{}, fmt.Errorf("%w: decode checkout session", model.ErrWebhookPayload))

	err := f.uc.HandleWebhook(context.Background(), nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, 0, f.orders.patches)
	assert.Equal(t, model.OrderStatusNew, f.orders.get("X").Status)
}

func TestWebhook_UnexpectedParseFailureIsNotSignatureError(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(model.PaymentEvent{}, errors.New("boom"))

	err := f.uc.HandleWebhook(context.Background(), nil, "sig")
	require.Error(t, err)
	assert.NotErrorIs(t, err, usecase.ErrSignature)

	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, 500, he.Status)
}

func TestWebhook_UnknownTypeAcknowledged(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(model.PaymentEvent{
		Kind: model.PaymentEventIgnored, RawType: "customer.created",
	}, nil)

	assert.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, 0, f.orders.patches)
}

func TestWebhook_UnknownOrderAcknowledged(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(completedEvent("missing"), nil)

	assert.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Empty(t, f.events.events)
}

func TestWebhook_FallsBackToOrderID(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.orders.put(newOrder("W", model.OrderStatusNew))
	ev := completedEvent("W")
	ev.InternalOrderID = ""
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(ev, nil)

	require.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, model.OrderStatusProcessing, f.orders.get("W").Status)
}

type flakyOrders struct {
	*memOrders
}

func (f flakyOrders) FindByID(context.Context, string) (model.Order, error) {
	return model.Order{}, errors.New("connection reset")
}

func TestWebhook_StoreFailureAsksForRetry(t *testing.T) {
	f := newWebhookFixture(t, flakyOrders{newMemOrders()})
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(completedEvent("X"), nil)

	err := f.uc.HandleWebhook(context.Background(), nil, "sig")
	assert.ErrorIs(t, err, usecase.ErrPersistence)
}

func TestWebhook_SideEffectFailuresDoNotFail(t *testing.T) {
	f := newWebhookFixture(t, nil)
	f.events.err = errors.New("kafka down")
	f.mails.err = errors.New("sendgrid down")
	f.orders.put(newOrder("X", model.OrderStatusNew))
	f.payments.On("ParseWebhook", mock.Anything, "sig").Return(completedEvent("X"), nil)

	assert.NoError(t, f.uc.HandleWebhook(context.Background(), nil, "sig"))
	assert.Equal(t, model.OrderStatusProcessing, f.orders.get("X").Status)
}
