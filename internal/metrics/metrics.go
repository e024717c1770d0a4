// Package metrics exposes prometheus counters for the config lifecycle.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultLenient = "lenient"
)

// Registry holds the config lifecycle counters. A nil *Registry is valid and
// records nothing.
type Registry struct {
	LoadsTotal      *prometheus.CounterVec
	SavesTotal      *prometheus.CounterVec
	MigrationsTotal *prometheus.CounterVec
	DatafixersTotal *prometheus.CounterVec
	BackupsTotal    *prometheus.CounterVec
}

// New creates the counters and registers them with reg. A nil reg creates
// unregistered counters.
func New(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	r := &Registry{}

	r.LoadsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "offsetconfig_loads_total",
		Help: "Total config loads by outcome",
	}, []string{"id", "result"})

	r.SavesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "offsetconfig_saves_total",
		Help: "Total config saves by outcome",
	}, []string{"id", "result"})

	r.MigrationsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "offsetconfig_migrations_total",
		Help: "Total loads that found a version different from the current one",
	}, []string{"id"})

	r.DatafixersTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "offsetconfig_datafixers_applied_total",
		Help: "Total datafixers applied",
	}, []string{"id"})

	r.BackupsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "offsetconfig_backups_total",
		Help: "Total backups taken before migrating, by outcome",
	}, []string{"id", "result"})

	return r
}

// RecordLoad records a finished load.
func (r *Registry) RecordLoad(id, result string) {
	if r == nil {
		return
	}
	r.LoadsTotal.WithLabelValues(id, result).Inc()
}

// RecordSave records a finished save.
func (r *Registry) RecordSave(id string, err error) {
	if r == nil {
		return
	}
	r.SavesTotal.WithLabelValues(id, resultOf(err)).Inc()
}

// RecordMigration records a migration that applied applied datafixers.
func (r *Registry) RecordMigration(id string, applied int) {
	if r == nil {
		return
	}
	r.MigrationsTotal.WithLabelValues(id).Inc()
	r.DatafixersTotal.WithLabelValues(id).Add(float64(applied))
}

// RecordBackup records a backup attempt.
func (r *Registry) RecordBackup(id string, err error) {
	if r == nil {
		return
	}
	r.BackupsTotal.WithLabelValues(id, resultOf(err)).Inc()
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
