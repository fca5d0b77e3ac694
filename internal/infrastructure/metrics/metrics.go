// internal/infrastructure/metrics/metrics.go
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics метрики платежного контура
type Metrics struct {
	// Вебхук
	WebhookAdmitted prometheus.Counter
	WebhookRejected *prometheus.CounterVec // reason
	QueueDropped    prometheus.Counter

	// Подтверждения оплаты
	Confirmations *prometheus.CounterVec // outcome

	// Активации
	Activations        *prometheus.CounterVec // plan
	ActivationFailures prometheus.Counter

	// Инвойсы
	Invoices         *prometheus.CounterVec // plan
	InvoiceFallbacks prometheus.Counter

	// Реестр ожидающих платежей
	PendingPayments prometheus.Gauge
	JanitorEvicted  prometheus.Counter

	// Шина событий активации
	EventDeliveries *prometheus.CounterVec // subscriber, outcome
	EventsDropped   prometheus.Counter

	// Ручная сверка
	OpenReconciliations prometheus.Gauge

	// Снапшот базы
	ActiveSubscriptions prometheus.Gauge
	RegisteredUsers     prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Get возвращает единственный экземпляр метрик
func Get() *Metrics {
	once.Do(func() {
		defaultMetrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		WebhookAdmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "stars_bot_webhook_admitted_total",
			Help: "Webhook requests that passed signature and replay checks",
		}),
		WebhookRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stars_bot_webhook_rejected_total",
			Help: "Webhook requests rejected at the boundary",
		}, []string{"reason"}),
		QueueDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "stars_bot_update_queue_dropped_total",
			Help: "Updates refused because the processing queue was full",
		}),
		Confirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stars_bot_payment_confirmations_total",
			Help: "Successful-payment events by outcome",
		}, []string{"outcome"}),
		Activations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stars_bot_subscription_activations_total",
			Help: "Subscription activations by plan",
		}, []string{"plan"}),
		ActivationFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "stars_bot_subscription_activation_failures_total",
			Help: "Activations aborted by a storage failure",
		}),
		Invoices: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stars_bot_invoices_total",
			Help: "Invoices issued by plan",
		}, []string{"plan"}),
		InvoiceFallbacks: f.NewCounter(prometheus.CounterOpts{
			Name: "stars_bot_invoice_fallbacks_total",
			Help: "Invoices replaced by manual transfer instructions",
		}),
		PendingPayments: f.NewGauge(prometheus.GaugeOpts{
			Name: "stars_bot_pending_payments",
			Help: "Entries in the pending-payment registry after the last sweep",
		}),
		JanitorEvicted: f.NewCounter(prometheus.CounterOpts{
			Name: "stars_bot_pending_payments_evicted_total",
			Help: "Pending-payment entries removed by the janitor",
		}),
		EventDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stars_bot_activation_event_deliveries_total",
			Help: "Activation event deliveries by subscriber and outcome",
		}, []string{"subscriber", "outcome"}),
		EventsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "stars_bot_activation_events_dropped_total",
			Help: "Activation events refused because the bus buffer was full",
		}),
		OpenReconciliations: f.NewGauge(prometheus.GaugeOpts{
			Name: "stars_bot_open_reconciliations",
			Help: "Payments waiting for manual reconciliation at the last digest",
		}),
		ActiveSubscriptions: f.NewGauge(prometheus.GaugeOpts{
			Name: "stars_bot_active_subscriptions",
			Help: "Active, unexpired subscriptions at the last stats refresh",
		}),
		RegisteredUsers: f.NewGauge(prometheus.GaugeOpts{
			Name: "stars_bot_registered_users",
			Help: "Rows in the users projection at the last stats refresh",
		}),
	}
}
