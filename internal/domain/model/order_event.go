package model

import "time"

// 注文ステータスが変わったときに外へ流すイベント
type OrderStatusChanged struct {
	OrderID         string        `json:"orderId"`
	InternalOrderID string        `json:"internalOrderId"`
	Status          OrderStatus   `json:"status"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	Source          string        `json:"source"`
	At              time.Time     `json:"at"`
}

func NewOrderStatusChanged(o Order, source string, at time.Time) OrderStatusChanged {
	return OrderStatusChanged{
		OrderID:         o.OrderID,
		InternalOrderID: o.ID,
		Status:          o.Status,
		PaymentStatus:   o.Payment,
		Source:          source,
		At:              at,
	}
}
