package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

// 完了注文の保持期間
const RetentionWindow = 14 * 24 * time.Hour

const retentionBatch = 100

type SweepResult struct {
	Cutoff          time.Time `json:"cutoff"`
	Scanned         int       `json:"scanned"`
	Deleted         int       `json:"deleted"`
	DeletedOrderIDs []string  `json:"deleted_order_ids"`
}

// 保持期間を過ぎた completed の注文だけを物理削除する
type RetentionUsecase struct {
	orders    repo.OrderRepository
	auditRepo repo.AuditLogRepository
	clock     Clock
	logger    *zap.Logger
}

func NewRetentionUsecase(orders repo.OrderRepository, auditRepo repo.AuditLogRepository, clock Clock, logger *zap.Logger) *RetentionUsecase {
	return &RetentionUsecase{orders: orders, auditRepo: auditRepo, clock: clock, logger: logger}
}

func (u *RetentionUsecase) Sweep(ctx context.Context, actor string) (SweepResult, error) {
	cutoff := u.clock.Now().Add(-RetentionWindow)
	res := SweepResult{Cutoff: cutoff, DeletedOrderIDs: []string{}}

	for {
		batch, err := u.orders.ListCompletedBefore(ctx, cutoff, retentionBatch)
		if err != nil {
			return res, internalError(err)
		}
		res.Scanned += len(batch)

		deleted := 0
		for _, o := range batch {
			// ストアの絞り込みを信用せず、ここでも確認する
			if o.Status != model.OrderStatusCompleted || !o.CreatedAt.Before(cutoff) {
				u.logger.Warn("retention skipped non-eligible order",
					zap.String("order_id", o.OrderID), zap.String("status", string(o.Status)))
				continue
			}
			if err := u.orders.Delete(ctx, o.ID); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					continue
				}
				return res, internalError(err)
			}
			deleted++
			res.Deleted++
			res.DeletedOrderIDs = append(res.DeletedOrderIDs, o.OrderID)
			u.auditPurge(ctx, actor, o)
		}

		if len(batch) < retentionBatch || deleted == 0 {
			break
		}
	}

	if res.Deleted > 0 {
		u.logger.Info("retention sweep done", zap.Int("deleted", res.Deleted), zap.Time("cutoff", cutoff))
	}
	return res, nil
}

// 削除自体は終わっているので、監査ログの失敗はログだけ
func (u *RetentionUsecase) auditPurge(ctx context.Context, actor string, o model.Order) {
	before, _ := json.Marshal(map[string]any{"status": o.Status, "created_at": o.CreatedAt, "total": o.Pricing.Total})
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		Actor:        actor,
		Action:       model.AuditActionPurgeOrder,
		ResourceType: model.AuditResourceOrder,
		ResourceID:   o.OrderID,
		BeforeJSON:   string(before),
		AfterJSON:    "null",
		CreatedAt:    u.clock.Now(),
	}); err != nil {
		u.logger.Warn("purge audit failed", zap.String("order_id", o.OrderID), zap.Error(err))
	}
}
