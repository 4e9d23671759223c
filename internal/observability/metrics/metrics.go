package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for booking and queue flows.
type SchedulingMetrics struct {
	bookedTotal    prometheus.Counter
	completedTotal prometheus.Counter
	skippedTotal   prometheus.Counter
	etaDelay       prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicq",
			Subsystem: "scheduling",
			Name:      "appointments_booked_total",
			Help:      "Total appointments booked",
		}),
		completedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicq",
			Subsystem: "scheduling",
			Name:      "visits_completed_total",
			Help:      "Total visits completed",
		}),
		skippedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinicq",
			Subsystem: "scheduling",
			Name:      "patients_skipped_total",
			Help:      "Total patients skipped to the queue tail",
		}),
		etaDelay: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicq",
			Subsystem: "scheduling",
			Name:      "eta_delay_minutes",
			Help:      "Observed queue delay per ETA computation, in minutes",
			Buckets:   []float64{0, 5, 10, 20, 30, 45, 60, 90, 120},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookedTotal, m.completedTotal, m.skippedTotal, m.etaDelay)
	return m
}

func (m *SchedulingMetrics) AppointmentBooked() {
	if m == nil {
		return
	}
	m.bookedTotal.Inc()
}

func (m *SchedulingMetrics) VisitCompleted() {
	if m == nil {
		return
	}
	m.completedTotal.Inc()
}

func (m *SchedulingMetrics) PatientSkipped() {
	if m == nil {
		return
	}
	m.skippedTotal.Inc()
}

func (m *SchedulingMetrics) ObserveDelay(minutes int) {
	if m == nil {
		return
	}
	m.etaDelay.Observe(float64(minutes))
}

// FollowUpMetrics exposes counters for the follow-up dispatch pipeline.
type FollowUpMetrics struct {
	scheduledTotal  *prometheus.CounterVec
	dispatchedTotal *prometheus.CounterVec
	repliesTotal    *prometheus.CounterVec
	sweepDuration   prometheus.Histogram
}

func NewFollowUpMetrics(reg prometheus.Registerer) *FollowUpMetrics {
	m := &FollowUpMetrics{
		scheduledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicq",
			Subsystem: "followup",
			Name:      "tasks_scheduled_total",
			Help:      "Total follow-up tasks scheduled",
		}, []string{"kind"}),
		dispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicq",
			Subsystem: "followup",
			Name:      "tasks_dispatched_total",
			Help:      "Total follow-up dispatch attempts",
		}, []string{"kind", "status"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicq",
			Subsystem: "followup",
			Name:      "replies_total",
			Help:      "Total patient replies by classification",
		}, []string{"classification"}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinicq",
			Subsystem: "followup",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of due-task sweeps",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.scheduledTotal, m.dispatchedTotal, m.repliesTotal, m.sweepDuration)
	return m
}

func (m *FollowUpMetrics) TaskScheduled(kind string) {
	if m == nil {
		return
	}
	m.scheduledTotal.WithLabelValues(kind).Inc()
}

func (m *FollowUpMetrics) TaskDispatched(kind, status string) {
	if m == nil {
		return
	}
	m.dispatchedTotal.WithLabelValues(kind, status).Inc()
}

func (m *FollowUpMetrics) ReplyClassified(classification string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(classification).Inc()
}

func (m *FollowUpMetrics) ObserveSweep(seconds float64) {
	if m == nil {
		return
	}
	m.sweepDuration.Observe(seconds)
}
