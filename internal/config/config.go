package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/guild-ecology/internal/broker"
	"github.com/danielpatrickdp/guild-ecology/internal/eval"
	"github.com/danielpatrickdp/guild-ecology/internal/evolution"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
	"github.com/danielpatrickdp/guild-ecology/internal/fitness"
	"github.com/danielpatrickdp/guild-ecology/internal/guild"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
	"github.com/danielpatrickdp/guild-ecology/internal/logging"
	"github.com/danielpatrickdp/guild-ecology/internal/observer"
	"github.com/danielpatrickdp/guild-ecology/internal/replay"
	"github.com/danielpatrickdp/guild-ecology/internal/risk"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ECOLOGY_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// #region file-types

// File is the on-disk configuration. Every field has a YAML key; scalar
// fields can also be overridden from ECOLOGY_* variables.
type File struct {
	Seed     uint64         `yaml:"seed" env:"SEED"`
	Log      logging.Config `yaml:"log" envPrefix:"LOG_"`
	Journal  Journal        `yaml:"journal" envPrefix:"JOURNAL_"`
	Metrics  Metrics        `yaml:"metrics" envPrefix:"METRICS_"`
	Universe []uint32       `yaml:"universe" env:"UNIVERSE" envSeparator:","`
	Guilds   []Guild        `yaml:"guilds"`

	Phase     Phase     `yaml:"phase" envPrefix:"PHASE_"`
	Strategy  Strategy  `yaml:"strategy" envPrefix:"STRATEGY_"`
	Feature   Feature   `yaml:"feature" envPrefix:"FEATURE_"`
	Eval      Eval      `yaml:"eval" envPrefix:"EVAL_"`
	Broker    Broker    `yaml:"broker" envPrefix:"BROKER_"`
	Risk      Risk      `yaml:"risk" envPrefix:"RISK_"`
	Evolution Evolution `yaml:"evolution" envPrefix:"EVOLUTION_"`
	Fitness   Fitness   `yaml:"fitness" envPrefix:"FITNESS_"`
}

// Journal locates the SQLite run journal. An empty path disables it.
type Journal struct {
	Path string `yaml:"path" env:"PATH"`
}

// Metrics locates the Prometheus textfile written at the end of a run.
type Metrics struct {
	Textfile string `yaml:"textfile" env:"TEXTFILE"`
}

// Guild seeds one guild.
type Guild struct {
	ID     string   `yaml:"id"`
	Primes []uint32 `yaml:"primes"`
	Size   int      `yaml:"size"`
}

// Phase holds the collapse and phase-memory knobs.
type Phase struct {
	Tau   float64 `yaml:"tau" env:"TAU"`
	Gamma float64 `yaml:"gamma" env:"GAMMA"`
	Alpha float64 `yaml:"alpha" env:"ALPHA"`
}

// Strategy is the founders' linear strategy.
type Strategy struct {
	Ret1Weight float64 `yaml:"ret1_weight" env:"RET1_WEIGHT"`
	Ret5Weight float64 `yaml:"ret5_weight" env:"RET5_WEIGHT"`
	VolWeight  float64 `yaml:"vol_weight" env:"VOL_WEIGHT"`
	Deadband   float64 `yaml:"deadband" env:"DEADBAND"`
	SizeScale  float64 `yaml:"size_scale" env:"SIZE_SCALE"`
	TIF        uint8   `yaml:"tif" env:"TIF"`
	Bracket    uint8   `yaml:"bracket" env:"BRACKET"`
	Jitter     float64 `yaml:"jitter" env:"JITTER"`
}

type Feature struct {
	Warmup    int `yaml:"warmup" env:"WARMUP"`
	VolWindow int `yaml:"vol_window" env:"VOL_WINDOW"`
}

type Eval struct {
	EdgeThreshold float64 `yaml:"edge_threshold" env:"EDGE_THRESHOLD"`
	ImpactK       float64 `yaml:"impact_k" env:"IMPACT_K"`
	ImpactBeta    float64 `yaml:"impact_beta" env:"IMPACT_BETA"`
}

type Broker struct {
	Symbol      string  `yaml:"symbol" env:"SYMBOL"`
	FeeRate     float64 `yaml:"fee_rate" env:"FEE_RATE"`
	ImpactAlpha float64 `yaml:"impact_alpha" env:"IMPACT_ALPHA"`
	ImpactBeta  float64 `yaml:"impact_beta" env:"IMPACT_BETA"`
	SpreadBps   float64 `yaml:"spread_bps" env:"SPREAD_BPS"`
	UnitSize    float64 `yaml:"unit_size" env:"UNIT_SIZE"`
}

// Risk sizes with the broker's unit.
type Risk struct {
	MaxNotional  float64 `yaml:"max_notional" env:"MAX_NOTIONAL"`
	MaxInventory float64 `yaml:"max_inventory" env:"MAX_INVENTORY"`
	LossFloor    float64 `yaml:"loss_floor" env:"LOSS_FLOOR"`
}

type Evolution struct {
	Every        int     `yaml:"every" env:"EVERY"`
	TopN         int     `yaml:"top_n" env:"TOP_N"`
	EliteCount   int     `yaml:"elite_count" env:"ELITE_COUNT"`
	MutationRate float64 `yaml:"mutation_rate" env:"MUTATION_RATE"`
	BasisProb    float64 `yaml:"basis_prob" env:"BASIS_PROB"`
}

type Fitness struct {
	Lambda1 float64 `yaml:"lambda1" env:"LAMBDA1"`
	Lambda2 float64 `yaml:"lambda2" env:"LAMBDA2"`
	Lambda3 float64 `yaml:"lambda3" env:"LAMBDA3"`
	Lambda4 float64 `yaml:"lambda4" env:"LAMBDA4"`
	Hmax    float64 `yaml:"hmax" env:"HMAX"`
}

// #endregion file-types

// #region defaults

// Default mirrors replay.DefaultConfig with seed 1, JSON logs at info, and
// neither journal nor textfile.
func Default() File {
	rc := replay.DefaultConfig()
	f := File{
		Seed: 1,
		Log:  logging.DefaultConfig(),
		Phase: Phase{
			Tau:   rc.Params.Tau,
			Gamma: rc.Params.Gamma,
			Alpha: rc.Alpha,
		},
		Strategy: Strategy{
			Ret1Weight: rc.Strategy.Ret1Weight,
			Ret5Weight: rc.Strategy.Ret5Weight,
			VolWeight:  rc.Strategy.VolWeight,
			Deadband:   rc.Strategy.Deadband,
			SizeScale:  rc.Strategy.SizeScale,
			TIF:        rc.Strategy.TIF,
			Bracket:    rc.Strategy.Bracket,
			Jitter:     rc.StrategyJitter,
		},
		Feature: Feature(rc.Feature),
		Eval:    Eval(rc.Eval),
		Broker:  Broker(rc.Broker),
		Risk: Risk{
			MaxNotional:  rc.Risk.MaxNotional,
			MaxInventory: rc.Risk.MaxInventory,
			LossFloor:    rc.Risk.LossFloor,
		},
		Evolution: Evolution(rc.Evolution),
		Fitness:   Fitness(rc.Weights),
	}
	for _, p := range rc.Universe {
		f.Universe = append(f.Universe, uint32(p))
	}
	for _, g := range rc.Guilds {
		gf := Guild{ID: g.ID, Size: g.Size}
		for _, p := range g.Primes {
			gf.Primes = append(gf.Primes, uint32(p))
		}
		f.Guilds = append(f.Guilds, gf)
	}
	return f
}

// #endregion defaults

// #region load

// Load builds a File from defaults, then the YAML at path (skipped when path
// is empty), then ECOLOGY_* environment variables, and validates the result.
func Load(path string) (File, error) {
	f := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return File{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &f); err != nil {
			return File{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.ParseWithOptions(&f, env.Options{Prefix: EnvPrefix}); err != nil {
		return File{}, fmt.Errorf("parse env: %w", err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks ranges that the domain constructors would otherwise clamp
// or reject late.
func (f File) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if len(f.Universe) == 0 || len(f.Universe) > hilbert.MaxPrimes {
		bad("universe must hold 1..64 primes, got %d", len(f.Universe))
	}
	if len(f.Guilds) == 0 {
		bad("at least one guild is required")
	}
	for i, g := range f.Guilds {
		if g.ID == "" {
			bad("guild %d has no id", i)
		}
		if g.Size <= 0 {
			bad("guild %q size must be positive", g.ID)
		}
		if len(g.Primes) == 0 {
			bad("guild %q has no primes", g.ID)
		}
	}
	if f.Phase.Alpha <= 0 || f.Phase.Alpha > 1 {
		bad("phase.alpha %v outside (0,1]", f.Phase.Alpha)
	}
	if f.Phase.Tau < 0 {
		bad("phase.tau %v is negative", f.Phase.Tau)
	}
	if f.Phase.Gamma < 0 || f.Phase.Gamma > 1 {
		bad("phase.gamma %v outside [0,1]", f.Phase.Gamma)
	}
	if f.Strategy.TIF > 7 {
		bad("strategy.tif %d does not fit 3 bits", f.Strategy.TIF)
	}
	if f.Strategy.Bracket > 15 {
		bad("strategy.bracket %d does not fit 4 bits", f.Strategy.Bracket)
	}
	if f.Strategy.Jitter < 0 || f.Strategy.Jitter >= 1 {
		bad("strategy.jitter %v outside [0,1)", f.Strategy.Jitter)
	}
	if f.Broker.UnitSize <= 0 {
		bad("broker.unit_size must be positive")
	}
	if f.Broker.FeeRate < 0 {
		bad("broker.fee_rate is negative")
	}
	if f.Risk.MaxInventory <= 0 || f.Risk.MaxNotional <= 0 {
		bad("risk caps must be positive")
	}
	if f.Evolution.Every < 0 {
		bad("evolution.every is negative")
	}
	if f.Evolution.MutationRate < 0 || f.Evolution.MutationRate > 1 {
		bad("evolution.mutation_rate %v outside [0,1]", f.Evolution.MutationRate)
	}
	if f.Evolution.BasisProb < 0 || f.Evolution.BasisProb > 1 {
		bad("evolution.basis_prob %v outside [0,1]", f.Evolution.BasisProb)
	}
	return errors.Join(errs...)
}

// #endregion load

// #region convert

// ReplayConfig converts the file into the harness configuration.
func (f File) ReplayConfig() replay.Config {
	rc := replay.Config{
		Params: guild.Params{Tau: f.Phase.Tau, Gamma: f.Phase.Gamma},
		Alpha:  f.Phase.Alpha,
		Strategy: observer.LinearStrategy{
			Ret1Weight: f.Strategy.Ret1Weight,
			Ret5Weight: f.Strategy.Ret5Weight,
			VolWeight:  f.Strategy.VolWeight,
			Deadband:   f.Strategy.Deadband,
			SizeScale:  f.Strategy.SizeScale,
			TIF:        f.Strategy.TIF,
			Bracket:    f.Strategy.Bracket,
		},
		StrategyJitter: f.Strategy.Jitter,
		Feature:        feature.Config(f.Feature),
		Eval:           eval.Config(f.Eval),
		Broker:         broker.Config(f.Broker),
		Risk: risk.Limits{
			MaxNotional:  f.Risk.MaxNotional,
			MaxInventory: f.Risk.MaxInventory,
			LossFloor:    f.Risk.LossFloor,
			UnitSize:     f.Broker.UnitSize,
		},
		Evolution: evolution.Config(f.Evolution),
		Weights:   fitness.Weights(f.Fitness),
	}
	rc.Universe = primes(f.Universe)
	for _, g := range f.Guilds {
		rc.Guilds = append(rc.Guilds, replay.GuildSpec{ID: g.ID, Primes: primes(g.Primes), Size: g.Size})
	}
	return rc
}

func primes(xs []uint32) []hilbert.Prime {
	out := make([]hilbert.Prime, len(xs))
	for i, x := range xs {
		out[i] = hilbert.Prime(x)
	}
	return out
}

// #endregion convert
