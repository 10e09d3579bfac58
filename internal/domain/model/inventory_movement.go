package model

import "time"

type MovementReason string

const (
	MovementReasonOrderPaid        MovementReason = "order_paid"
	MovementReasonManualAdjustment MovementReason = "manual_adjustment"
)

// 在庫の増減履歴（レポート用）
type InventoryMovement struct {
	ID            int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	VariantID     string         `gorm:"type:varchar(64);not null;index" json:"variant_id"`
	QtyDelta      int64          `gorm:"not null" json:"qty_delta"`
	Reason        MovementReason `gorm:"type:varchar(50);not null" json:"reason"`
	PreviousStock int64          `gorm:"not null" json:"previous_stock"`
	NewStock      int64          `gorm:"not null" json:"new_stock"`
	OrderID       string         `gorm:"type:varchar(64);index" json:"order_id,omitempty"`
	At            time.Time      `gorm:"not null;index" json:"at"`
}
