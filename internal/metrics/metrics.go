package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes counters for the booking and reminder flows. All observe
// methods are nil-safe so callers can run without a registry in tests.
type Metrics struct {
	scheduledTotal   prometheus.Counter
	rescheduledTotal prometheus.Counter
	cancelledTotal   prometheus.Counter
	rejectedTotal    *prometheus.CounterVec
	remindersTotal   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "citasalud",
			Subsystem: "booking",
			Name:      "scheduled_total",
			Help:      "Total appointments scheduled",
		}),
		rescheduledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "citasalud",
			Subsystem: "booking",
			Name:      "rescheduled_total",
			Help:      "Total appointments rescheduled",
		}),
		cancelledTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "citasalud",
			Subsystem: "booking",
			Name:      "cancelled_total",
			Help:      "Total appointments cancelled",
		}),
		rejectedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citasalud",
			Subsystem: "booking",
			Name:      "rejected_total",
			Help:      "Total booking operations rejected by business rules",
		}, []string{"reason"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "citasalud",
			Subsystem: "reminders",
			Name:      "delivery_total",
			Help:      "Total reminder delivery attempts",
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.scheduledTotal, m.rescheduledTotal, m.cancelledTotal, m.rejectedTotal, m.remindersTotal)
	return m
}

func (m *Metrics) AppointmentScheduled() {
	if m == nil {
		return
	}
	m.scheduledTotal.Inc()
}

func (m *Metrics) AppointmentRescheduled() {
	if m == nil {
		return
	}
	m.rescheduledTotal.Inc()
}

func (m *Metrics) AppointmentCancelled() {
	if m == nil {
		return
	}
	m.cancelledTotal.Inc()
}

// BookingRejected records a business-rule rejection; reason is one of
// "conflict", "cutoff", "not_found" or "invalid".
func (m *Metrics) BookingRejected(reason string) {
	if m == nil {
		return
	}
	m.rejectedTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) ReminderDelivery(channel, status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(channel, status).Inc()
}
