package model

import "time"

type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// 商品レビュー。承認されたものだけ公開される。
type Review struct {
	ID          int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   string       `gorm:"type:varchar(64);not null;index" json:"product_id"`
	AuthorName  string       `gorm:"type:varchar(100);not null" json:"author_name"`
	Rating      int          `gorm:"not null" json:"rating"`
	Body        string       `gorm:"type:text;not null" json:"body"`
	Status      ReviewStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	ModeratedAt *time.Time   `json:"moderated_at,omitempty"`
}
