package metrics

import "time"

// #region records
// BarMetrics is one guild's view of one tick.
type BarMetrics struct {
	TS         time.Time
	GuildID    string
	PnL        float64
	Position   float64
	Turnover   float64 // traded notional
	FillRatio  float64 // fills over routed orders
	Slippage   float64
	Fee        float64
	Phase      PhaseSummary
	Entropy    float64 // mean internal entropy
	Coherence  float64
	Fitness    float64
	Evaluated  int // observers evaluated
	Accepted   int // evaluations that reached the broker
	PhaseDelta float64
}

// EpochMetrics summarizes one guild over one generation.
type EpochMetrics struct {
	Epoch          int
	Start, End     time.Time
	GuildID        string
	Sharpe         float64
	Sortino        float64
	MaxDrawdown    float64
	HitRate        float64
	TotalPnL       float64
	TotalTurnover  float64
	PhaseStability float64 // mean of the per-tick phase mean length
}

// #endregion records

// #region collector
// Collector keeps every bar and epoch record of a run in memory.
type Collector struct {
	bars   []BarMetrics
	epochs []EpochMetrics
}

// RecordBar appends a bar record.
func (c *Collector) RecordBar(m BarMetrics) { c.bars = append(c.bars, m) }

// RecordEpoch appends an epoch record.
func (c *Collector) RecordEpoch(m EpochMetrics) { c.epochs = append(c.epochs, m) }

// Bars returns the bar records in order.
func (c *Collector) Bars() []BarMetrics { return c.bars }

// Epochs returns the epoch records in order.
func (c *Collector) Epochs() []EpochMetrics { return c.epochs }

// Clear drops every record.
func (c *Collector) Clear() {
	c.bars = nil
	c.epochs = nil
}

// Epoch summarizes guildID's bar records from index since onward.
func (c *Collector) Epoch(epoch int, guildID string, since int) EpochMetrics {
	e := EpochMetrics{Epoch: epoch, GuildID: guildID}
	var pnls []float64
	var stability float64
	for _, b := range c.bars[min(since, len(c.bars)):] {
		if b.GuildID != guildID {
			continue
		}
		if len(pnls) == 0 {
			e.Start = b.TS
		}
		e.End = b.TS
		pnls = append(pnls, b.PnL)
		e.TotalPnL += b.PnL
		e.TotalTurnover += b.Turnover
		stability += b.Phase.MeanLength
	}
	if len(pnls) == 0 {
		return e
	}
	e.Sharpe = Sharpe(pnls, 0)
	e.Sortino = Sortino(pnls, 0)
	e.MaxDrawdown = MaxDrawdown(pnls)
	e.HitRate = HitRate(pnls)
	e.PhaseStability = stability / float64(len(pnls))
	return e
}

// #endregion collector
