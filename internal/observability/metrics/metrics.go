package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the automation sweeps.
type EngineMetrics struct {
	jobRuns      *prometheus.CounterVec
	jobDuration  *prometheus.HistogramVec
	itemsTotal   *prometheus.CounterVec
	alertsRaised *prometheus.CounterVec
	noShows      *prometheus.CounterVec
	slotReleases *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "automation",
			Name:      "job_runs_total",
			Help:      "Total job executions by outcome",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "automation",
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of job executions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
		itemsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "automation",
			Name:      "items_processed_total",
			Help:      "Items processed per job",
		}, []string{"job"}),
		alertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "automation",
			Name:      "alerts_raised_total",
			Help:      "Automation alerts raised by kind",
		}, []string{"kind"}),
		noShows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "automation",
			Name:      "no_shows_total",
			Help:      "Appointments marked no-show by reason",
		}, []string{"reason"}),
		slotReleases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "automation",
			Name:      "slot_releases_total",
			Help:      "Slot release decisions after no-show",
		}, []string{"released"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.jobRuns, m.jobDuration, m.itemsTotal, m.alertsRaised, m.noShows, m.slotReleases)
	return m
}

// ObserveJobRun satisfies the job runner's metrics hook.
func (m *EngineMetrics) ObserveJobRun(job, status string, seconds float64, items int) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(seconds)
	if items > 0 {
		m.itemsTotal.WithLabelValues(job).Add(float64(items))
	}
}

func (m *EngineMetrics) ObserveAlertRaised(kind string) {
	if m == nil {
		return
	}
	m.alertsRaised.WithLabelValues(kind).Inc()
}

func (m *EngineMetrics) ObserveNoShow(reason string) {
	if m == nil {
		return
	}
	m.noShows.WithLabelValues(reason).Inc()
}

func (m *EngineMetrics) ObserveSlotRelease(released bool) {
	if m == nil {
		return
	}
	label := "false"
	if released {
		label = "true"
	}
	m.slotReleases.WithLabelValues(label).Inc()
}
