package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db, now: time.Now}
}

// 在庫を delta だけ動かす。0 未満にはしない。
func (r *InventoryGormRepository) ApplyMovement(ctx context.Context, m model.InventoryMovement) (model.InventoryMovement, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := lockVariant(tx, m.VariantID)
		if err != nil {
			return err
		}

		next := v.Stock + m.QtyDelta
		if next < 0 {
			next = 0
		}
		m.PreviousStock = v.Stock
		m.NewStock = next
		return r.writeMovement(tx, &m)
	})
	if err != nil {
		return model.InventoryMovement{}, err
	}
	return m, nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, variantID string, newStock int64, reason model.MovementReason) (model.InventoryMovement, error) {
	var m model.InventoryMovement
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		v, err := lockVariant(tx, variantID)
		if err != nil {
			return err
		}
		m = model.InventoryMovement{
			VariantID:     variantID,
			QtyDelta:      newStock - v.Stock,
			Reason:        reason,
			PreviousStock: v.Stock,
			NewStock:      newStock,
		}
		return r.writeMovement(tx, &m)
	})
	if err != nil {
		return model.InventoryMovement{}, err
	}
	return m, nil
}

func lockVariant(tx *gorm.DB, variantID string) (model.Variant, error) {
	var v model.Variant
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", variantID).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Variant{}, repo.ErrNotFound
	}
	return v, err
}

// 在庫更新と履歴作成
func (r *InventoryGormRepository) writeMovement(tx *gorm.DB, m *model.InventoryMovement) error {
	res := tx.Model(&model.Variant{}).
		Where("id = ?", m.VariantID).
		Update("stock", m.NewStock)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	if m.At.IsZero() {
		m.At = r.now()
	}
	return tx.Create(m).Error
}

// 在庫の少ない順
func (r *InventoryGormRepository) ListStock(ctx context.Context) ([]repo.InventoryRow, error) {
	var rows []repo.InventoryRow
	err := r.db.WithContext(ctx).
		Table("variants AS v").
		Select("v.id AS variant_id, v.product_id, p.name AS product_name, v.sku, v.size, v.color, v.stock").
		Joins("JOIN products AS p ON p.id = v.product_id AND p.deleted_at IS NULL").
		Order("v.stock asc").Order("v.sku asc").
		Scan(&rows).Error
	if err != nil {
		return []repo.InventoryRow{}, err
	}
	return rows, nil
}

func (r *InventoryGormRepository) ListRecentMovements(ctx context.Context, limit int) ([]model.InventoryMovement, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var ms []model.InventoryMovement
	if err := r.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&ms).Error; err != nil {
		return []model.InventoryMovement{}, err
	}
	return ms, nil
}
