package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ecology"

// Evaluation outcomes recorded by Recorder.
const (
	OutcomeVetoed   = "vetoed"
	OutcomeScreened = "screened" // failed the proxy screen
	OutcomeRejected = "rejected" // broker refused to route
	OutcomeUnfilled = "unfilled"
	OutcomeFilled   = "filled"
)

// #region recorder
// Recorder exports run progress as Prometheus metrics on its own registry.
type Recorder struct {
	reg *prometheus.Registry

	Ticks       prometheus.Counter
	Evaluations *prometheus.CounterVec // guild, outcome
	Vetoes      *prometheus.CounterVec // guild, veto
	Generations *prometheus.CounterVec // guild
	Fitness     *prometheus.GaugeVec   // guild
	PhaseLength *prometheus.GaugeVec   // guild
	Entropy     *prometheus.GaugeVec   // guild
	Coherence   *prometheus.GaugeVec   // guild
	Equity      prometheus.Gauge
	PhaseDelta  *prometheus.HistogramVec // guild
}

// NewRecorder registers every metric on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		Ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Feature frames processed.",
		}),
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Observer evaluations by outcome.",
		}, []string{"guild", "outcome"}),
		Vetoes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "risk_vetoes_total",
			Help:      "Hard risk vetoes by type.",
		}, []string{"guild", "veto"}),
		Generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Reproduction boundaries crossed.",
		}, []string{"guild"}),
		Fitness: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "guild_fitness",
			Help:      "Guild fitness at the last tick.",
		}, []string{"guild"}),
		PhaseLength: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_mean_length",
			Help:      "Mean resultant length of the guild phase memory.",
		}, []string{"guild"}),
		Entropy: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "internal_entropy_bits",
			Help:      "Mean collapsed-state entropy across the guild.",
		}, []string{"guild"}),
		Coherence: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "coherence",
			Help:      "Top-k support agreement across the guild.",
		}, []string{"guild"}),
		Equity: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "equity",
			Help:      "Realized plus unrealized P&L of the shared position.",
		}),
		PhaseDelta: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phase_delta_norm",
			Help:      "L2 norm of each committed phase update.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 8),
		}, []string{"guild"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveBar updates the per-guild gauges from one bar record.
func (r *Recorder) ObserveBar(b BarMetrics) {
	r.Fitness.WithLabelValues(b.GuildID).Set(b.Fitness)
	r.PhaseLength.WithLabelValues(b.GuildID).Set(b.Phase.MeanLength)
	r.Entropy.WithLabelValues(b.GuildID).Set(b.Entropy)
	r.Coherence.WithLabelValues(b.GuildID).Set(b.Coherence)
	if b.PhaseDelta > 0 {
		r.PhaseDelta.WithLabelValues(b.GuildID).Observe(b.PhaseDelta)
	}
}

// Evaluation counts one evaluation outcome.
func (r *Recorder) Evaluation(guild, outcome string) {
	r.Evaluations.WithLabelValues(guild, outcome).Inc()
}

// Veto counts one tripped veto.
func (r *Recorder) Veto(guild, veto string) {
	r.Vetoes.WithLabelValues(guild, veto).Inc()
}

// WriteTextfile dumps the registry in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

// #endregion recorder
