package usecase_test

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetention_DeletesOnlyOldCompleted(t *testing.T) {
	now := testNow.Add(30 * 24 * time.Hour)
	orders := newMemOrders()

	old := newOrder("old", model.OrderStatusCompleted)
	old.CreatedAt = now.Add(-15 * 24 * time.Hour)
	recent := newOrder("recent", model.OrderStatusCompleted)
	recent.CreatedAt = now.Add(-13 * 24 * time.Hour)
	oldCancelled := newOrder("cancelled", model.OrderStatusCancelled)
	oldCancelled.CreatedAt = now.Add(-20 * 24 * time.Hour)
	oldNew := newOrder("new", model.OrderStatusNew)
	oldNew.CreatedAt = now.Add(-20 * 24 * time.Hour)
	for _, o := range []model.Order{old, recent, oldCancelled, oldNew} {
		orders.put(o)
	}

	audit := &AuditRepoMock{}
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionPurgeOrder && l.ResourceID == "ORD-old" && l.Actor == "retention-sweep"
	})).Return(nil).Once()

	uc := usecase.NewRetentionUsecase(orders, audit, &fixedClock{now: now}, zap.NewNop())
	res, err := uc.Sweep(context.Background(), "retention-sweep")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Equal(t, []string{"ORD-old"}, res.DeletedOrderIDs)
	assert.Equal(t, now.Add(-usecase.RetentionWindow), res.Cutoff)

	assert.Empty(t, orders.get("old").ID)
	assert.Equal(t, "recent", orders.get("recent").ID)
	assert.Equal(t, "cancelled", orders.get("cancelled").ID)
	assert.Equal(t, "new", orders.get("new").ID)
	audit.AssertExpectations(t)
}

func TestRetention_NothingToDelete(t *testing.T) {
	orders := newMemOrders()
	orders.put(newOrder("A", model.OrderStatusCompleted))
	audit := &AuditRepoMock{}

	uc := usecase.NewRetentionUsecase(orders, audit, &fixedClock{now: testNow.Add(time.Hour)}, zap.NewNop())
	res, err := uc.Sweep(context.Background(), "admin")

	require.NoError(t, err)
	assert.Equal(t, 0, res.Deleted)
	assert.Empty(t, res.DeletedOrderIDs)
	audit.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRetention_AuditFailureStillDeletes(t *testing.T) {
	now := testNow.Add(30 * 24 * time.Hour)
	orders := newMemOrders()
	o := newOrder("old", model.OrderStatusCompleted)
	o.CreatedAt = testNow
	orders.put(o)
	audit := &AuditRepoMock{}
	audit.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)

	res, err := usecase.NewRetentionUsecase(orders, audit, &fixedClock{now: now}, zap.NewNop()).
		Sweep(context.Background(), "admin")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Deleted)
}
