package model

// 決済プロセッサ側に作った Checkout Session
type PaymentSession struct {
	SessionID     string
	RedirectURL   string
	AmountCharged int64
}
