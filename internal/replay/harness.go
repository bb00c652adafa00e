package replay

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/broker"
	"github.com/danielpatrickdp/guild-ecology/internal/eval"
	"github.com/danielpatrickdp/guild-ecology/internal/evolution"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
	"github.com/danielpatrickdp/guild-ecology/internal/fitness"
	"github.com/danielpatrickdp/guild-ecology/internal/guild"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
	"github.com/danielpatrickdp/guild-ecology/internal/journal"
	"github.com/danielpatrickdp/guild-ecology/internal/metrics"
	"github.com/danielpatrickdp/guild-ecology/internal/risk"
)

// #region types
// Sink receives journal records as the run progresses.
type Sink interface {
	RecordTick(journal.TickRecord) error
	RecordGeneration(journal.GenerationRecord) error
}

// Outcome tallies what happened to a tick's evaluations.
type Outcome struct {
	Evaluated int
	Vetoed    int
	Screened  int
	Rejected  int
	Unfilled  int
	Filled    int
}

// Accepted counts evaluations that reached the broker and were scored.
func (o Outcome) Accepted() int { return o.Unfilled + o.Filled }

func (o *Outcome) add(x Outcome) {
	o.Evaluated += x.Evaluated
	o.Vetoed += x.Vetoed
	o.Screened += x.Screened
	o.Rejected += x.Rejected
	o.Unfilled += x.Unfilled
	o.Filled += x.Filled
}

// GuildTick is one guild's result for one tick.
type GuildTick struct {
	GuildID    string
	Outcome    Outcome
	Best       action.Code // committed action; zero when nothing was accepted
	BestLZ     float64
	Metrics    fitness.Metrics
	Fitness    float64
	PhaseDelta float64
	PnL        float64 // net of fees and inventory penalty
	Turnover   float64 // traded notional
	Fee        float64
	Slippage   float64
}

// TickResult is the result of one post-warm-up bar.
type TickResult struct {
	Tick    int
	Frame   feature.Frame
	Guilds  []GuildTick
	Evolved bool
}

// #endregion types

// #region options
// Option customizes a Harness.
type Option func(*Harness)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.log = l }
}

// WithSink journals every tick and generation under runID.
func WithSink(s Sink, runID string) Option {
	return func(h *Harness) {
		h.sink = s
		h.runID = runID
	}
}

// WithRecorder exports progress to Prometheus metrics.
func WithRecorder(r *metrics.Recorder) Option {
	return func(h *Harness) { h.recorder = r }
}

// WithRand sets the random source for founder jitter and evolution.
func WithRand(rng *rand.Rand) Option {
	return func(h *Harness) { h.rng = rng }
}

// WithSeed is WithRand over a PCG source derived from seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)))
}

// #endregion options

// #region harness
// Harness drives the ecology one bar at a time.
type Harness struct {
	cfg      Config
	universe *hilbert.Universe
	guilds   []*guild.Guild
	trackers map[string]*fitness.Tracker

	features  *feature.Engine
	gate      *risk.Gate
	evaluator *eval.Harness
	venue     *broker.Paper
	pos       broker.Position
	mutator   *evolution.Mutator
	rng       *rand.Rand

	collector  metrics.Collector
	recorder   *metrics.Recorder
	sink       Sink
	runID      string
	log        *zap.Logger
	tick       int
	generation int
	epochStart int
	totals     Outcome
}

// New wires a harness from cfg. Configuration errors are returned before any
// bar is processed.
func New(cfg Config, opts ...Option) (*Harness, error) {
	h := &Harness{
		cfg:      cfg,
		trackers: make(map[string]*fitness.Tracker),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.rng == nil {
		h.rng = rand.New(rand.NewPCG(1, 2))
	}

	u, err := hilbert.NewUniverse(cfg.Universe...)
	if err != nil {
		return nil, fmt.Errorf("universe: %w", err)
	}
	h.universe = u

	h.guilds, err = cfg.seedGuilds(u, h.rng)
	if err != nil {
		return nil, err
	}
	for _, g := range h.guilds {
		h.trackers[g.ID] = fitness.NewTracker()
	}

	h.features = feature.NewEngine(cfg.Feature)
	h.gate = risk.NewGate(cfg.Risk)
	h.evaluator = eval.NewHarness(cfg.Eval)
	h.venue = broker.NewPaper(cfg.Broker, nil)
	h.mutator = evolution.NewMutator(h.rng)
	return h, nil
}

// Guilds returns the live guilds.
func (h *Harness) Guilds() []*guild.Guild { return h.guilds }

// Position returns the shared paper position.
func (h *Harness) Position() broker.Position { return h.pos }

// Collector returns the in-memory metrics history.
func (h *Harness) Collector() *metrics.Collector { return &h.collector }

// #endregion harness

// #region step
// Step feeds one bar. It returns nil until the feature engine has warmed up.
// Within a tick every guild is evaluated first, then every guild's phase is
// committed, then the generation boundary runs if one is due.
//
// An error leaves the tick partially applied: the tick counter has advanced
// and the guilds committed before the failure keep their new phases.
func (h *Harness) Step(bar feature.Bar) (*TickResult, error) {
	f, ok := h.features.Update(bar)
	if !ok {
		return nil, nil
	}
	h.tick++
	res := &TickResult{Tick: h.tick, Frame: f, Guilds: make([]GuildTick, len(h.guilds))}

	// 1. evaluations
	evals := make([][]fitness.ObserverEval, len(h.guilds))
	for i, g := range h.guilds {
		res.Guilds[i], evals[i] = h.evaluate(g, f, bar)
	}

	// 2. phase commits
	for i, g := range h.guilds {
		gt := &res.Guilds[i]
		if len(evals[i]) > 0 {
			best := bestEval(evals[i])
			gt.Best, gt.BestLZ = best.Action, best.LZ
			gt.PhaseDelta = g.Commit(best.Action, h.cfg.Alpha).DeltaNorm
		}
		gt.Metrics = fitness.Aggregate(evals[i])
		gt.Fitness = fitness.Compute(gt.Metrics, h.cfg.Weights)
		if err := h.record(g, gt, f); err != nil {
			return nil, err
		}
	}

	h.pos.Charge(broker.InventoryPenalty(h.pos.Qty))
	h.pos.MarkTo(bar.Close, bar.TS)
	if h.recorder != nil {
		h.recorder.Ticks.Inc()
		h.recorder.Equity.Set(h.pos.Equity())
	}

	// 3. generation boundary
	if every := h.cfg.Evolution.Every; every > 0 && h.tick%every == 0 {
		if err := h.evolve(f); err != nil {
			return nil, err
		}
		res.Evolved = true
	}
	return res, nil
}

// evaluate runs every observer of g through risk, proxy, execution and
// scoring. Fills update the shared position immediately.
func (h *Harness) evaluate(g *guild.Guild, f feature.Frame, bar feature.Bar) (GuildTick, []fitness.ObserverEval) {
	gt := GuildTick{GuildID: g.ID}
	var evals []fitness.ObserverEval
	tracker := h.trackers[g.ID]

	for _, c := range g.Step(f, h.cfg.Params) {
		n := c.Action()
		gt.Outcome.Evaluated++

		if d := h.gate.Precheck(n, h.pos, f); d.Vetoed {
			gt.Outcome.Vetoed++
			h.count(g.ID, metrics.OutcomeVetoed)
			for _, v := range d.Vetoes {
				if h.recorder != nil {
					h.recorder.Veto(g.ID, string(v.Type))
				}
			}
			continue
		}

		if pr := h.evaluator.Proxy(n, f); !pr.Pass {
			gt.Outcome.Screened++
			h.count(g.ID, metrics.OutcomeScreened)
			continue
		}

		exec, err := h.venue.Route(n, bar)
		if err != nil {
			gt.Outcome.Rejected++
			h.count(g.ID, metrics.OutcomeRejected)
			h.log.Debug("route rejected", zap.String("guild", g.ID), zap.String("observer", c.Observer.ID), zap.Error(err))
			continue
		}

		out := broker.Mark(exec, bar, h.pos.Qty)
		obj := h.evaluator.Objective(out.PnL, out.Fee, out.InventoryPenalty, out.Slippage)
		for _, fill := range exec.Fills {
			h.pos.Apply(exec.Order.Side, fill)
			gt.Turnover += fill.Price * fill.Qty
		}
		if exec.Filled() {
			gt.Outcome.Filled++
			h.count(g.ID, metrics.OutcomeFilled)
		} else {
			gt.Outcome.Unfilled++
			h.count(g.ID, metrics.OutcomeUnfilled)
		}
		gt.PnL += out.Net()
		gt.Fee += out.Fee
		gt.Slippage += out.Slippage

		ev := fitness.ObserverEval{
			ObserverID: c.Observer.ID,
			Action:     n,
			State:      c.State(),
			LZ:         fitness.LZ(obj.PnL, obj.Fee, obj.Slippage),
			Timestamp:  f.TS,
		}
		tracker.Observe(ev)
		evals = append(evals, ev)
	}
	h.totals.add(gt.Outcome)
	return gt, evals
}

func (h *Harness) count(guildID, outcome string) {
	if h.recorder != nil {
		h.recorder.Evaluation(guildID, outcome)
	}
}

// bestEval returns the highest-LZ evaluation; the earliest wins ties.
func bestEval(evals []fitness.ObserverEval) fitness.ObserverEval {
	best := evals[0]
	for _, e := range evals[1:] {
		if e.LZ > best.LZ {
			best = e
		}
	}
	return best
}

func (h *Harness) record(g *guild.Guild, gt *GuildTick, f feature.Frame) error {
	bm := metrics.BarMetrics{
		TS:         f.TS,
		GuildID:    g.ID,
		PnL:        gt.PnL,
		Position:   h.pos.Qty,
		Turnover:   gt.Turnover,
		Fee:        gt.Fee,
		Slippage:   gt.Slippage,
		Phase:      metrics.SummarizePhases(g.Phase.Restrict(g.Basis), h.universe),
		Entropy:    gt.Metrics.Hint,
		Coherence:  gt.Metrics.Coherence,
		Fitness:    gt.Fitness,
		Evaluated:  gt.Outcome.Evaluated,
		Accepted:   gt.Outcome.Accepted(),
		PhaseDelta: gt.PhaseDelta,
	}
	if routed := gt.Outcome.Accepted(); routed > 0 {
		bm.FillRatio = float64(gt.Outcome.Filled) / float64(routed)
	}
	h.collector.RecordBar(bm)
	if h.recorder != nil {
		h.recorder.ObserveBar(bm)
	}
	if h.sink == nil {
		return nil
	}
	err := h.sink.RecordTick(journal.TickRecord{
		RunID:           h.runID,
		Tick:            h.tick,
		TS:              f.TS,
		GuildID:         g.ID,
		BestAction:      uint32(gt.Best),
		Fitness:         gt.Fitness,
		Coherence:       gt.Metrics.Coherence,
		Entropy:         gt.Metrics.Hint,
		PhaseMeanLength: bm.Phase.MeanLength,
		PhaseDelta:      gt.PhaseDelta,
		Evaluated:       gt.Outcome.Evaluated,
		Accepted:        gt.Outcome.Accepted(),
		PnL:             gt.PnL,
	})
	if err != nil {
		return fmt.Errorf("journal tick %d: %w", h.tick, err)
	}
	return nil
}

// #endregion step

// #region evolve
// evolve replaces every guild's population from its elites and occasionally
// swaps one basis prime.
func (h *Harness) evolve(f feature.Frame) error {
	h.generation++
	ec := h.cfg.Evolution
	for _, g := range h.guilds {
		tracker := h.trackers[g.ID]
		elites := evolution.SelectElite(g.Observers, tracker.Scores(), ec.TopN)
		next := h.mutator.Reproduce(elites, len(g.Observers), ec.EliteCount, ec.MutationRate)
		if g.ReplacePopulation(next) {
			ids := make([]string, len(next))
			for i, o := range next {
				ids[i] = o.ID
			}
			tracker.Retain(ids...)
		}

		if nb := evolution.MutateBasis(h.rng, g.Basis, h.universe, ec.BasisProb); !nb.Equal(g.Basis) {
			h.log.Info("basis mutated",
				zap.String("guild", g.ID),
				zap.Any("from", g.Basis.Primes(h.universe)),
				zap.Any("to", nb.Primes(h.universe)))
			g.SetBasis(nb)
		}

		epoch := h.collector.Epoch(h.generation, g.ID, h.epochStart)
		h.collector.RecordEpoch(epoch)

		var bestFit float64
		if len(elites) > 0 {
			bestFit = elites[0].Fitness
		}
		h.log.Debug("generation",
			zap.Int("generation", h.generation),
			zap.String("guild", g.ID),
			zap.Strings("elites", evolution.IDs(elites)),
			zap.Float64("best_fitness", bestFit),
			zap.Float64("sharpe", epoch.Sharpe))

		if h.recorder != nil {
			h.recorder.Generations.WithLabelValues(g.ID).Inc()
		}
		if h.sink != nil {
			primes := g.Basis.Primes(h.universe)
			basis := make([]uint32, len(primes))
			for i, p := range primes {
				basis[i] = uint32(p)
			}
			err := h.sink.RecordGeneration(journal.GenerationRecord{
				RunID:       h.runID,
				Generation:  h.generation,
				GuildID:     g.ID,
				TS:          f.TS,
				Elites:      evolution.IDs(elites),
				Basis:       basis,
				Population:  len(g.Observers),
				BestFitness: bestFit,
			})
			if err != nil {
				return fmt.Errorf("journal generation %d: %w", h.generation, err)
			}
		}
	}
	h.epochStart = len(h.collector.Bars())
	return nil
}

// #endregion evolve

// #region run
// Run steps through bars until they run out or ctx is cancelled.
func (h *Harness) Run(ctx context.Context, bars []feature.Bar) (Summary, error) {
	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return h.Summarize(i), err
		}
		if _, err := h.Step(bar); err != nil {
			return h.Summarize(i), err
		}
	}
	s := h.Summarize(len(bars))
	h.log.Info("run complete",
		zap.Int("bars", s.Bars),
		zap.Int("ticks", s.Ticks),
		zap.Int("generations", s.Generations),
		zap.Int("filled", s.Outcome.Filled),
		zap.Float64("equity", s.Position.Equity()))
	return s, nil
}

// Summary aggregates a run so far.
type Summary struct {
	Bars        int
	Ticks       int
	Generations int
	Outcome     Outcome
	Position    broker.Position
	Orders      uint64
	Fills       uint64
	Bases       map[string][]hilbert.Prime
}

// Summarize reports progress after bars inputs.
func (h *Harness) Summarize(bars int) Summary {
	s := Summary{
		Bars:        bars,
		Ticks:       h.tick,
		Generations: h.generation,
		Outcome:     h.totals,
		Position:    h.pos,
		Bases:       make(map[string][]hilbert.Prime, len(h.guilds)),
	}
	s.Orders, s.Fills = h.venue.Sequencer().Counts()
	for _, g := range h.guilds {
		s.Bases[g.ID] = g.Basis.Primes(h.universe)
	}
	return s
}

// #endregion run
