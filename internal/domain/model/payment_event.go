package model

import "errors"

var (
	// 署名検証に失敗した
	ErrWebhookSignature = errors.New("webhook signature invalid")
	// 署名は正しいが中身が読めない
	ErrWebhookPayload = errors.New("webhook payload malformed")
)

// 決済プロセッサから届いたイベント（署名検証済み）。
type PaymentEventKind string

const (
	PaymentEventSessionCompleted PaymentEventKind = "session_completed"
	PaymentEventSessionExpired   PaymentEventKind = "session_expired"
	PaymentEventIgnored          PaymentEventKind = "ignored"
)

type PaymentEvent struct {
	ID      string
	Kind    PaymentEventKind
	RawType string

	SessionID       string
	CustomerID      string
	PaymentIntentID string

	// セッションのメタデータに載せた注文の参照
	OrderID         string
	InternalOrderID string
}
