package replay

import (
	"fmt"
	"math/rand/v2"

	"github.com/danielpatrickdp/guild-ecology/internal/broker"
	"github.com/danielpatrickdp/guild-ecology/internal/eval"
	"github.com/danielpatrickdp/guild-ecology/internal/evolution"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
	"github.com/danielpatrickdp/guild-ecology/internal/fitness"
	"github.com/danielpatrickdp/guild-ecology/internal/guild"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
	"github.com/danielpatrickdp/guild-ecology/internal/observer"
	"github.com/danielpatrickdp/guild-ecology/internal/risk"
)

// #region types
// GuildSpec describes one guild to seed.
type GuildSpec struct {
	ID     string
	Primes []hilbert.Prime
	Size   int
}

// Config bundles every stage of a run.
type Config struct {
	Universe []hilbert.Prime
	Guilds   []GuildSpec
	Params   guild.Params
	Alpha    float64 // phase EMA

	// Strategy is the founding strategy. Each founder's weights are scaled by
	// an independent factor in [1−StrategyJitter, 1+StrategyJitter].
	Strategy       observer.LinearStrategy
	StrategyJitter float64

	Feature   feature.Config
	Eval      eval.Config
	Broker    broker.Config
	Risk      risk.Limits
	Evolution evolution.Config
	Weights   fitness.Weights
}

// DefaultConfig returns three guilds of eight over the primes 2..31.
func DefaultConfig() Config {
	return Config{
		Universe: hilbert.DefaultUniverse().Primes(),
		Guilds: []GuildSpec{
			{ID: "g-fast", Primes: []hilbert.Prime{2, 3, 5, 7, 11}, Size: 8},
			{ID: "g-mid", Primes: []hilbert.Prime{3, 5, 7, 11, 13, 17}, Size: 8},
			{ID: "g-swing", Primes: []hilbert.Prime{5, 7, 11, 13, 17, 19, 23}, Size: 8},
		},
		Params:         guild.DefaultParams(),
		Alpha:          guild.DefaultAlpha,
		Strategy:       observer.DefaultLinearStrategy(),
		StrategyJitter: 0.2,
		Feature:        feature.DefaultConfig(),
		Eval:           eval.DefaultConfig(),
		Broker:         broker.DefaultConfig(),
		Risk:           risk.DefaultLimits(),
		Evolution:      evolution.DefaultConfig(),
		Weights:        fitness.DefaultWeights(),
	}
}

// #endregion types

// #region seeding
// seedGuilds builds every guild over u, drawing founder jitter from rng.
func (c Config) seedGuilds(u *hilbert.Universe, rng *rand.Rand) ([]*guild.Guild, error) {
	if len(c.Guilds) == 0 {
		return nil, fmt.Errorf("no guilds configured")
	}
	seen := make(map[string]bool, len(c.Guilds))
	out := make([]*guild.Guild, 0, len(c.Guilds))
	for _, spec := range c.Guilds {
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate guild %q", spec.ID)
		}
		seen[spec.ID] = true
		if spec.Size <= 0 {
			return nil, fmt.Errorf("guild %s: size %d must be positive", spec.ID, spec.Size)
		}
		basis, err := u.Basis(spec.Primes...)
		if err != nil {
			return nil, fmt.Errorf("guild %s: %w", spec.ID, err)
		}
		if len(basis) == 0 {
			return nil, fmt.Errorf("guild %s: empty basis", spec.ID)
		}
		out = append(out, guild.Seed(spec.ID, u, basis, spec.Size, func(int) observer.Strategy {
			return c.jitter(rng)
		}))
	}
	return out, nil
}

func (c Config) jitter(rng *rand.Rand) observer.LinearStrategy {
	s := c.Strategy
	if c.StrategyJitter <= 0 {
		return s
	}
	scale := func() float64 { return 1 + c.StrategyJitter*(2*rng.Float64()-1) }
	s.Ret1Weight *= scale()
	s.Ret5Weight *= scale()
	s.VolWeight *= scale()
	return s
}

// #endregion seeding
