package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type ReviewInput struct {
	AuthorName string
	Rating     int
	Body       string
}

// レビューは pending で入り、承認されたものだけ公開する
type ReviewUsecase struct {
	reviews   repo.ReviewRepository
	products  repo.ProductRepository
	auditRepo repo.AuditLogRepository
	validator InputValidator
	clock     Clock
}

func NewReviewUsecase(reviews repo.ReviewRepository, products repo.ProductRepository, auditRepo repo.AuditLogRepository, validator InputValidator, clock Clock) *ReviewUsecase {
	return &ReviewUsecase{reviews: reviews, products: products, auditRepo: auditRepo, validator: validator, clock: clock}
}

func (u *ReviewUsecase) Submit(ctx context.Context, slug string, in ReviewInput) (model.Review, error) {
	if fields := u.validator.ValidateReview(in); len(fields) > 0 {
		return model.Review{}, ValidationError(fields...)
	}
	p, err := u.product(ctx, slug)
	if err != nil {
		return model.Review{}, err
	}

	r, err := u.reviews.Create(ctx, model.Review{
		ProductID:  p.ID,
		AuthorName: strings.TrimSpace(in.AuthorName),
		Rating:     in.Rating,
		Body:       strings.TrimSpace(in.Body),
		Status:     model.ReviewStatusPending,
		CreatedAt:  u.clock.Now(),
	})
	if err != nil {
		return model.Review{}, internalError(err)
	}
	return r, nil
}

func (u *ReviewUsecase) ListApproved(ctx context.Context, slug string) ([]model.Review, error) {
	p, err := u.product(ctx, slug)
	if err != nil {
		return nil, err
	}
	rs, err := u.reviews.ListByProduct(ctx, p.ID, model.ReviewStatusApproved)
	if err != nil {
		return nil, internalError(err)
	}
	return rs, nil
}

func (u *ReviewUsecase) AdminList(ctx context.Context, status string, limit int) ([]model.Review, error) {
	st := model.ReviewStatus(strings.TrimSpace(status))
	if st == "" {
		st = model.ReviewStatusPending
	}
	switch st {
	case model.ReviewStatusPending, model.ReviewStatusApproved, model.ReviewStatusRejected:
	default:
		return nil, ValidationError("status")
	}
	rs, err := u.reviews.ListByStatus(ctx, st, limit)
	if err != nil {
		return nil, internalError(err)
	}
	return rs, nil
}

// pending → approved | rejected のみ
func (u *ReviewUsecase) Moderate(ctx context.Context, actor string, id int64, status string) (model.Review, error) {
	to := model.ReviewStatus(strings.TrimSpace(status))
	if to != model.ReviewStatusApproved && to != model.ReviewStatusRejected {
		return model.Review{}, ValidationError("status")
	}
	if id <= 0 {
		return model.Review{}, ValidationError("id")
	}

	r, err := u.reviews.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Review{}, NotFoundError("review")
	}
	if err != nil {
		return model.Review{}, internalError(err)
	}
	if r.Status == to {
		return r, nil
	}
	if r.Status != model.ReviewStatusPending {
		return model.Review{}, InvalidTransitionError(string(r.Status), string(to))
	}

	now := u.clock.Now()
	if err := u.reviews.UpdateStatus(ctx, id, to, now); err != nil {
		return model.Review{}, internalError(err)
	}
	before := r.Status
	r.Status = to
	r.ModeratedAt = &now

	b, _ := json.Marshal(map[string]any{"status": before})
	a, _ := json.Marshal(map[string]any{"status": to})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		Actor:        actor,
		Action:       model.AuditActionModerateReview,
		ResourceType: model.AuditResourceReview,
		ResourceID:   strconv.FormatInt(id, 10),
		BeforeJSON:   string(b),
		AfterJSON:    string(a),
		CreatedAt:    now,
	}); err != nil {
		return model.Review{}, internalError(err)
	}
	return r, nil
}

func (u *ReviewUsecase) product(ctx context.Context, slug string) (model.Product, error) {
	p, err := u.products.FindBySlug(ctx, strings.TrimSpace(slug))
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NotFoundError("product")
	}
	if err != nil {
		return model.Product{}, internalError(err)
	}
	return p, nil
}
