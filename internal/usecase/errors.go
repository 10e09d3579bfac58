package usecase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	//400 入力不正
	ErrValidation = errors.New("validation error")
	//400 空のカートで購入しようとした
	ErrEmptyCart = errors.New("cart is empty")
	//注文の保存に失敗（決済には進まない）
	ErrPersistence = errors.New("persistence error")
	//決済セッションが作れなかった
	ErrPaymentGateway = errors.New("payment gateway error")
	//400 webhook 署名不正
	ErrSignature = errors.New("signature error")
	//404
	ErrNotFound = errors.New("not found")
	//409 許可されていない状態遷移
	ErrInvalidTransition = errors.New("invalid status transition")
	//401
	ErrUnauthorized = errors.New("unauthorized")
)

// handler がそのまま JSON にできるエラー。
// Kind は上の sentinel のどれか（errors.Is で判定できる）。
type HTTPError struct {
	Status    int
	Message   string
	Fields    []string
	Retryable bool

	Kind  error
	Cause error
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%d: %s", e.Status, e.Message)
	if len(e.Fields) > 0 {
		msg += " [" + strings.Join(e.Fields, ", ") + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *HTTPError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func (e *HTTPError) Unwrap() error {
	return e.Cause
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Kind:    kindForStatus(status),
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func kindForStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrInvalidTransition
	}
	return nil
}

// 不正な項目名を全部返す
func ValidationError(fields ...string) error {
	return &HTTPError{
		Status:  http.StatusBadRequest,
		Message: "invalid input",
		Fields:  fields,
		Kind:    ErrValidation,
	}
}

func EmptyCartError() error {
	return &HTTPError{Status: http.StatusBadRequest, Message: "cart is empty", Kind: ErrEmptyCart}
}

func PersistenceError(cause error) error {
	return &HTTPError{
		Status:    http.StatusInternalServerError,
		Message:   "could not save order, please retry",
		Retryable: true,
		Kind:      ErrPersistence,
		Cause:     cause,
	}
}

func PaymentGatewayError(cause error) error {
	return &HTTPError{
		Status:    http.StatusInternalServerError,
		Message:   "could not start payment, please retry",
		Retryable: true,
		Kind:      ErrPaymentGateway,
		Cause:     cause,
	}
}

// 理由は返さない
func SignatureError(cause error) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: "bad request", Kind: ErrSignature, Cause: cause}
}

func NotFoundError(what string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: what + " not found", Kind: ErrNotFound}
}

func InvalidTransitionError(from, to string) error {
	return &HTTPError{
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("cannot change status from %s to %s", from, to),
		Kind:    ErrInvalidTransition,
	}
}

func internalError(cause error) error {
	return &HTTPError{
		Status:    http.StatusInternalServerError,
		Message:   "db error",
		Retryable: true,
		Cause:     cause,
	}
}
