package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

type ReviewRepository interface {
	Create(ctx context.Context, r model.Review) (model.Review, error)
	FindByID(ctx context.Context, id int64) (model.Review, error)
	ListByProduct(ctx context.Context, productID string, status model.ReviewStatus) ([]model.Review, error)
	ListByStatus(ctx context.Context, status model.ReviewStatus, limit int) ([]model.Review, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReviewStatus, moderatedAt time.Time) error
}
