package metrics

import (
	"math"

	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
)

// #region phase
// PhaseSummary describes how concentrated a phase memory is.
type PhaseSummary struct {
	MeanLength float64 // mean resultant length in [0,1]
	Phases     map[hilbert.Prime]float64
}

// PhaseMeanLength is the circular mean resultant length of the present
// phases, each taken as the angle 2π·φ. 1 means every prime agrees; 0 means
// the phases cancel. An empty vector is 0.
func PhaseMeanLength(phi hilbert.PhaseVec) float64 {
	pos := phi.Positions()
	if len(pos) == 0 {
		return 0
	}
	var sumCos, sumSin float64
	for _, i := range pos {
		a := 2 * math.Pi * phi.At(i)
		sumCos += math.Cos(a)
		sumSin += math.Sin(a)
	}
	n := float64(len(pos))
	return math.Hypot(sumCos/n, sumSin/n)
}

// SummarizePhases reports the mean length and the phase of every present
// prime.
func SummarizePhases(phi hilbert.PhaseVec, u *hilbert.Universe) PhaseSummary {
	s := PhaseSummary{MeanLength: PhaseMeanLength(phi), Phases: make(map[hilbert.Prime]float64)}
	for _, i := range phi.Positions() {
		s.Phases[u.Prime(i)] = phi.At(i)
	}
	return s
}

// #endregion phase

// #region performance
// Sharpe is mean over sample standard deviation of pnls less rf. Fewer than
// two samples or zero variance gives 0.
func Sharpe(pnls []float64, rf float64) float64 {
	if len(pnls) < 2 {
		return 0
	}
	mean := meanOf(pnls)
	var ss float64
	for _, p := range pnls {
		ss += (p - mean) * (p - mean)
	}
	std := math.Sqrt(ss / float64(len(pnls)-1))
	if std == 0 {
		return 0
	}
	return (mean - rf) / std
}

// Sortino is like Sharpe but divides by the downside deviation below target.
// With no downside samples it is +Inf.
func Sortino(pnls []float64, target float64) float64 {
	if len(pnls) < 2 {
		return 0
	}
	mean := meanOf(pnls)
	var ss float64
	var n int
	for _, p := range pnls {
		if p < target {
			ss += (p - target) * (p - target)
			n++
		}
	}
	if n == 0 {
		return math.Inf(1)
	}
	dd := math.Sqrt(ss / float64(n))
	if dd == 0 {
		return 0
	}
	return (mean - target) / dd
}

// MaxDrawdown is the largest peak-to-trough fall of the cumulative P&L,
// with the peak starting at zero.
func MaxDrawdown(pnls []float64) float64 {
	var cum, peak, maxDD float64
	for _, p := range pnls {
		cum += p
		peak = math.Max(peak, cum)
		maxDD = math.Max(maxDD, peak-cum)
	}
	return maxDD
}

// HitRate is the fraction of strictly positive pnls.
func HitRate(pnls []float64) float64 {
	if len(pnls) == 0 {
		return 0
	}
	var wins int
	for _, p := range pnls {
		if p > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(pnls))
}

func meanOf(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// #endregion performance
