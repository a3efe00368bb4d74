// Package metrics exposes Prometheus instrumentation for membership and notifications.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bandmates"

// Metrics groups every collector the service updates.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	mutations              *prometheus.CounterVec
	pushDeliveries         *prometheus.CounterVec
	notificationsPersisted prometheus.Counter
	broadcastCopies        prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "membership_mutations_total",
			Help:      "number of band membership mutations by operation and result",
		}, []string{"operation", "result"}),
		pushDeliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_deliveries_total",
			Help:      "number of push delivery attempts by target kind and result",
		}, []string{"target", "result"}),
		notificationsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_persisted_total",
			Help:      "number of notification records written",
		}),
		broadcastCopies: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_broadcast_copies_total",
			Help:      "number of per-recipient copies written for topic notifications",
		}),
	}
}

// Mutation counts one membership mutation. result is "ok" or an error kind.
func (m *Metrics) Mutation(operation, result string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(operation, result).Inc()
}

// PushDelivery counts one delivery attempt to a device or a topic.
func (m *Metrics) PushDelivery(target string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.pushDeliveries.WithLabelValues(target, result).Inc()
}

// NotificationsPersisted counts written notification records.
func (m *Metrics) NotificationsPersisted(n int) {
	if m == nil {
		return
	}
	m.notificationsPersisted.Add(float64(n))
}

// BroadcastCopies counts per-recipient copies of a topic notification.
func (m *Metrics) BroadcastCopies(n int) {
	if m == nil {
		return
	}
	m.broadcastCopies.Add(float64(n))
}
