package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type auditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) repo.AuditLogRepository {
	return &auditLogGormRepository{db: db}
}

func (r *auditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&log).Error
}

// 条件はすべて AND。新しい順に返す。
func (r *auditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	q := r.db.WithContext(ctx).Model(&model.AuditLog{})

	conds := []struct {
		clause string
		value  any
		set    bool
	}{
		{"actor = ?", deref(f.Actor), f.Actor != nil},
		{"action = ?", deref(f.Action), f.Action != nil},
		{"resource_type = ?", deref(f.ResourceType), f.ResourceType != nil},
		{"resource_id = ?", deref(f.ResourceID), f.ResourceID != nil},
		{"created_at >= ?", deref(f.CreatedFrom), f.CreatedFrom != nil},
		{"created_at <= ?", deref(f.CreatedTo), f.CreatedTo != nil},
	}
	for _, c := range conds {
		if c.set {
			q = q.Where(c.clause, c.value)
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var logs []model.AuditLog
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
