package replay

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/danielpatrickdp/guild-ecology/internal/feature"
)

// #region fixture-types

// Fixture is a recorded or generated bar stream.
type Fixture struct {
	Description string        `json:"description"`
	Seed        uint64        `json:"seed,omitempty"` // seed that generated Bars, when synthetic
	Bars        []feature.Bar `json:"bars"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	for i := 1; i < len(f.Bars); i++ {
		if !f.Bars[i].TS.After(f.Bars[i-1].TS) {
			return nil, fmt.Errorf("fixture %s: bar %d is not after bar %d", path, i, i-1)
		}
	}
	return &f, nil
}

// SaveFixture writes f as indented JSON.
func SaveFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// #endregion fixture-loader

// #region synthetic

// Synthetic generates n one-second bars as a random walk from px. Each bar
// moves the close by up to ±15 and widens high and low by up to 10.
func Synthetic(rng *rand.Rand, n int, px float64, start time.Time) []feature.Bar {
	bars := make([]feature.Bar, n)
	for i := range bars {
		open := px
		px += (rng.Float64() - 0.5) * 30
		bars[i] = feature.Bar{
			TS:     start.Add(time.Duration(i+1) * time.Second),
			Open:   open,
			High:   max(open, px) + rng.Float64()*10,
			Low:    min(open, px) - rng.Float64()*10,
			Close:  px,
			Volume: 1.23,
		}
	}
	return bars
}

// #endregion synthetic
