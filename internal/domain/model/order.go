package model

import "time"

type OrderStatus string

const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusFailed     OrderStatus = "failed"
	OrderStatusExpired    OrderStatus = "expired"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type OrderPriority string

const (
	OrderPriorityNormal OrderPriority = "normal"
	OrderPriorityMedium OrderPriority = "medium"
	OrderPriorityHigh   OrderPriority = "high"
	OrderPriorityRush   OrderPriority = "rush"
)

// 許可される遷移（同じ状態への遷移はここに含めない）
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusNew:        {OrderStatusProcessing, OrderStatusExpired, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusCompleted, OrderStatusCancelled},
}

// CanTransitionTo は from→to の遷移が許可されているかを返す。
// completed / cancelled / expired / failed は終端。
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusNew, OrderStatusProcessing, OrderStatusCompleted,
		OrderStatusCancelled, OrderStatusFailed, OrderStatusExpired:
		return OrderStatus(s), true
	}
	return "", false
}

func ParseOrderPriority(s string) (OrderPriority, bool) {
	switch OrderPriority(s) {
	case OrderPriorityNormal, OrderPriorityMedium, OrderPriorityHigh, OrderPriorityRush:
		return OrderPriority(s), true
	}
	return "", false
}

// 注文者情報
type CustomerInfo struct {
	Name       string `gorm:"type:varchar(255);not null" json:"name" firestore:"name"`
	Email      string `gorm:"type:varchar(255);not null" json:"email" firestore:"email"`
	Phone      string `gorm:"type:varchar(30);not null" json:"phone" firestore:"phone"`
	Address    string `gorm:"type:varchar(255);not null" json:"address" firestore:"address"`
	Address2   string `gorm:"type:varchar(255)" json:"address2,omitempty" firestore:"address2"`
	City       string `gorm:"type:varchar(100);not null" json:"city" firestore:"city"`
	State      string `gorm:"type:varchar(100)" json:"state,omitempty" firestore:"state"`
	PostalCode string `gorm:"type:varchar(20);not null" json:"postal_code" firestore:"postalCode"`
	Country    string `gorm:"type:varchar(2);not null" json:"country" firestore:"country"`
}

// 金額はすべて最小通貨単位（cent）。
// Total = OriginalTotal - Discount が常に成り立つ。
// Shipping は実際に請求する送料（プロモーションで0になる）。
type OrderPricing struct {
	Subtotal      int64 `gorm:"not null" json:"subtotal" firestore:"subtotal"`
	Shipping      int64 `gorm:"not null" json:"shipping" firestore:"shipping"`
	Discount      int64 `gorm:"not null" json:"discount" firestore:"discount"`
	Total         int64 `gorm:"not null" json:"total" firestore:"total"`
	OriginalTotal int64 `gorm:"not null" json:"original_total" firestore:"originalTotal"`
}

// 注文。ID はストア側の内部ID、OrderID は人が参照する注文番号。
type Order struct {
	ID        string        `gorm:"type:varchar(64);primaryKey" json:"internal_id" firestore:"-"`
	OrderID   string        `gorm:"type:varchar(64);not null;uniqueIndex" json:"order_id" firestore:"orderId"`
	Customer  CustomerInfo  `gorm:"embedded;embeddedPrefix:customer_" json:"customer" firestore:"customer"`
	Items     []OrderItem   `gorm:"foreignKey:OrderRef;references:ID;constraint:OnDelete:CASCADE" json:"items" firestore:"items"`
	Pricing   OrderPricing  `gorm:"embedded;embeddedPrefix:price_" json:"pricing" firestore:"pricing"`
	PromoCode string        `gorm:"type:varchar(64)" json:"promo_code,omitempty" firestore:"promoCode"`
	Currency  string        `gorm:"type:varchar(3);not null" json:"currency" firestore:"currency"`
	Status    OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status" firestore:"status"`
	Payment   PaymentStatus `gorm:"column:payment_status;type:varchar(20);not null;index" json:"payment_status" firestore:"paymentStatus"`
	Priority  OrderPriority `gorm:"type:varchar(20);not null;default:'normal'" json:"priority" firestore:"priority"`

	PaymentSessionID  string `gorm:"type:varchar(255);index" json:"payment_session_id,omitempty" firestore:"paymentSessionId"`
	PaymentCustomerID string `gorm:"type:varchar(255)" json:"-" firestore:"paymentCustomerId"`
	PaymentIntentID   string `gorm:"type:varchar(255)" json:"-" firestore:"paymentIntentId"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at" firestore:"updatedAt"`
}

// 注文明細。作成時点の名前・価格・オプションを凍結する。
type OrderItem struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"-" firestore:"-"`
	OrderRef  string `gorm:"type:varchar(64);not null;index" json:"-" firestore:"-"`
	ProductID string `gorm:"type:varchar(64);not null" json:"product_id" firestore:"productId"`
	VariantID string `gorm:"type:varchar(64);not null" json:"variant_id" firestore:"variantId"`
	Name      string `gorm:"type:varchar(255);not null" json:"name" firestore:"name"`
	UnitPrice int64  `gorm:"not null" json:"unit_price" firestore:"unitPrice"`
	Quantity  int64  `gorm:"not null" json:"quantity" firestore:"quantity"`
	Size      string `gorm:"type:varchar(20)" json:"size,omitempty" firestore:"size"`
	Color     string `gorm:"type:varchar(50)" json:"color,omitempty" firestore:"color"`
	SKU       string `gorm:"type:varchar(64)" json:"sku,omitempty" firestore:"sku"`
	ImageRef  string `gorm:"type:varchar(512)" json:"image_ref,omitempty" firestore:"imageRef"`
	Slug      string `gorm:"type:varchar(255)" json:"slug,omitempty" firestore:"slug"`
}

func (i OrderItem) LineTotal() int64 {
	return i.UnitPrice * i.Quantity
}

// 内部ID指定で更新する項目。nil は変更しない。
// 加算ではなく常に「値をセット」するので同じパッチを二回当てても結果は同じ。
type OrderPatch struct {
	// 設定されていれば、現在の status がこの値のときだけ更新する
	ExpectStatus *OrderStatus

	Status            *OrderStatus
	PaymentStatus     *PaymentStatus
	Priority          *OrderPriority
	PaymentSessionID  *string
	PaymentCustomerID *string
	PaymentIntentID   *string
	UpdatedAt         time.Time
}
