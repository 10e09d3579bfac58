package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

// 注文と明細を1トランザクションで保存する。内部IDはここで採番。
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (string, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	for i := range order.Items {
		order.Items[i].ID = 0
		order.Items[i].OrderRef = order.ID
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) FindByID(ctx context.Context, internalID string) (model.Order, error) {
	return r.findOne(ctx, "id = ?", internalID)
}

func (r *OrderGormRepository) FindByOrderID(ctx context.Context, orderID string) (model.Order, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *OrderGormRepository) findOne(ctx context.Context, cond string, arg string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Where(cond, arg).
		First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

func (r *OrderGormRepository) Patch(ctx context.Context, internalID string, p model.OrderPatch) error {
	updates := map[string]any{"updated_at": p.UpdatedAt}
	if p.Status != nil {
		updates["status"] = *p.Status
	}
	if p.PaymentStatus != nil {
		updates["payment_status"] = *p.PaymentStatus
	}
	if p.Priority != nil {
		updates["priority"] = *p.Priority
	}
	if p.PaymentSessionID != nil {
		updates["payment_session_id"] = *p.PaymentSessionID
	}
	if p.PaymentCustomerID != nil {
		updates["payment_customer_id"] = *p.PaymentCustomerID
	}
	if p.PaymentIntentID != nil {
		updates["payment_intent_id"] = *p.PaymentIntentID
	}

	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", internalID)
	if p.ExpectStatus != nil {
		q = q.Where("status = ?", *p.ExpectStatus)
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	//0件：存在しないのか status が違うのか
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", internalID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	if p.ExpectStatus != nil {
		return repo.ErrStatusConflict
	}
	return nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{})

	//status 絞り込み
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	var items []model.Order
	offset := (f.Page - 1) * f.Limit
	if err := q.Preload("Items").Order("created_at desc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Order{}, 0, err
	}

	return items, total, nil
}

func (r *OrderGormRepository) ListCompletedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.OrderStatusCompleted, cutoff).
		Order("created_at asc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, err
	}
	return items, nil
}

func (r *OrderGormRepository) Delete(ctx context.Context, internalID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_ref = ?", internalID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", internalID).Delete(&model.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
		return nil
	})
}
