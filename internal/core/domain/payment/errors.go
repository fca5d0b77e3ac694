// internal/core/domain/payment/errors.go
package payment

import (
	"errors"
	"fmt"
)

// Причины отказа на границе вебхука (используются как метка метрик)
const (
	ReasonMissingSignature = "missing_signature"
	ReasonMissingTimestamp = "missing_timestamp"
	ReasonInvalidTimestamp = "invalid_timestamp"
	ReasonExpired          = "expired_timestamp"
	ReasonFutureTimestamp  = "future_timestamp"
	ReasonMismatch         = "signature_mismatch"
)

var (
	// ErrUnmatchedPayment подтверждение оплаты без записи в реестре
	ErrUnmatchedPayment = errors.New("платеж не найден в реестре ожидающих")
	// ErrStaleVerification активация старше окна свежести
	ErrStaleVerification = errors.New("запись активации устарела")
	// ErrDuplicatePaymentID id уже зарегистрирован в реестре
	ErrDuplicatePaymentID = errors.New("платеж с таким id уже зарегистрирован")
	// ErrPaymentNotFound платеж неизвестен ни реестру, ни журналу сверки
	ErrPaymentNotFound = errors.New("платеж не найден")
)

// AuthenticationError запрос не прошел проверку подписи или окна повтора
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("ошибка аутентификации вебхука: %s", e.Reason)
}

// ValidationError некорректные входные данные
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("ошибка валидации: %s", e.Reason)
	}
	return fmt.Sprintf("ошибка валидации %s: %s", e.Field, e.Reason)
}

// UnmatchedPaymentError подтверждение оплаты, записанное на ручную сверку
type UnmatchedPaymentError struct {
	PaymentID      string
	TelegramUserID int64
}

func (e *UnmatchedPaymentError) Error() string {
	return fmt.Sprintf("платеж %s (пользователь %d) передан на ручную сверку", e.PaymentID, e.TelegramUserID)
}

// Unwrap позволяет сравнение через errors.Is(err, ErrUnmatchedPayment)
func (e *UnmatchedPaymentError) Unwrap() error { return ErrUnmatchedPayment }

// ActivationFailure сбой записи активации; запись реестра остается необработанной
type ActivationFailure struct {
	PaymentID string
	Plan      string
	Err       error
}

func (e *ActivationFailure) Error() string {
	return fmt.Sprintf("ошибка активации по платежу %s (план %s): %v", e.PaymentID, e.Plan, e.Err)
}

func (e *ActivationFailure) Unwrap() error { return e.Err }

// Retryable повтор подтверждения может завершить активацию
func (e *ActivationFailure) Retryable() bool { return true }

// IsRetryable проверяет, можно ли повторить операцию
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	return errors.As(err, &r) && r.Retryable()
}
