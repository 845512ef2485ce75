// Package metrics exposes Prometheus counters for snapshot writes, loads and
// audit appends. A CLI run is short lived, so the registry is written to a
// node_exporter textfile on exit instead of being served.
package metrics

import (
	"time"

	"github.com/dmitrijs2005/recordkeeper/internal/models"
	"github.com/dmitrijs2005/recordkeeper/internal/persistence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics implements persistence.Recorder and audit.Recorder.
type Metrics struct {
	SnapshotWrites   *prometheus.CounterVec
	WriteAttempts    *prometheus.HistogramVec
	SnapshotLoads    prometheus.Counter
	KindSources      *prometheus.CounterVec
	AuditAppends     *prometheus.CounterVec
	DroppedAudits    prometheus.Counter
	CommandDuration  *prometheus.HistogramVec
	LastSaveUnixTime prometheus.Gauge

	registry *prometheus.Registry
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		SnapshotWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordkeeper_snapshot_writes_total",
			Help: "Snapshot writes by store and result",
		}, []string{"store", "result"}),
		WriteAttempts: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recordkeeper_snapshot_write_attempts",
			Help:    "Attempts spent per snapshot write",
			Buckets: []float64{1, 2, 3, 4, 5, 10},
		}, []string{"store"}),
		SnapshotLoads: f.NewCounter(prometheus.CounterOpts{
			Name: "recordkeeper_snapshot_loads_total",
			Help: "Merged snapshot reads",
		}),
		KindSources: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordkeeper_merge_kind_source_total",
			Help: "Store each kind was taken from when merging",
		}, []string{"kind", "source"}),
		AuditAppends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "recordkeeper_audit_appends_total",
			Help: "Audit entries written, by store",
		}, []string{"store"}),
		DroppedAudits: f.NewCounter(prometheus.CounterOpts{
			Name: "recordkeeper_audit_dropped_total",
			Help: "Audit entries no store accepted",
		}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recordkeeper_command_duration_seconds",
			Help:    "Duration of CLI commands",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"command"}),
		LastSaveUnixTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "recordkeeper_last_save_timestamp_seconds",
			Help: "Unix time of the last save that reached at least one store",
		}),
		registry: reg,
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) SnapshotWritten(store string, ok bool, attempts int) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.SnapshotWrites.WithLabelValues(store, result).Inc()
	m.WriteAttempts.WithLabelValues(store).Observe(float64(attempts))
	if ok {
		m.LastSaveUnixTime.SetToCurrentTime()
	}
}

func (m *Metrics) SnapshotLoaded(report persistence.MergeReport) {
	m.SnapshotLoads.Inc()
	for _, k := range models.AllKinds {
		m.KindSources.WithLabelValues(string(k), string(report[k].Source)).Inc()
	}
}

func (m *Metrics) AuditAppended(store string) { m.AuditAppends.WithLabelValues(store).Inc() }
func (m *Metrics) AuditDropped()              { m.DroppedAudits.Inc() }

// ObserveCommand records the duration of a CLI command.
// Call with time.Now() at the start of the command.
func (m *Metrics) ObserveCommand(name string, start time.Time) {
	m.CommandDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// WriteTextfile writes the registry in the text exposition format, replacing
// path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
