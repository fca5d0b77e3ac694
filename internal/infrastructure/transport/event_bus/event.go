// internal/infrastructure/transport/event_bus/event.go
package events

import (
	"context"
	"errors"
	"time"

	"stars-subscription-bot/internal/core/domain/subscription"
)

var (
	// ErrBusNotRunning шина не запущена или уже остановлена
	ErrBusNotRunning = errors.New("event bus is not running")
	// ErrBufferFull буфер событий заполнен, событие отброшено
	ErrBufferFull = errors.New("event buffer is full")
)

// Envelope событие активации в буфере шины
type Envelope struct {
	ID          string
	Event       subscription.ActivationEvent
	PublishedAt time.Time
}

// Subscriber получатель событий активации
type Subscriber interface {
	GetName() string
	HandleActivation(ctx context.Context, event subscription.ActivationEvent) error
}

// Metrics счетчики шины
type Metrics struct {
	EventsPublished int64
	EventsProcessed int64
	EventsFailed    int64
	EventsDropped   int64
	ProcessingTime  time.Duration
	Subscribers     int
}
