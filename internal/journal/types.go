package journal

import "time"

// #region run-record
// RunRecord is a row in the runs table.
type RunRecord struct {
	RunID      string
	Seed       uint64
	ConfigJSON string
	StartedAt  time.Time
	FinishedAt time.Time // zero while the run is open
	Ticks      int
}

// #endregion run-record

// #region tick-record
// TickRecord is one guild's summary of one tick.
type TickRecord struct {
	RunID           string
	Tick            int
	TS              time.Time
	GuildID         string
	BestAction      uint32 // committed action, 0 when nothing was accepted
	Fitness         float64
	Coherence       float64
	Entropy         float64
	PhaseMeanLength float64
	PhaseDelta      float64
	Evaluated       int
	Accepted        int
	PnL             float64
}

// #endregion tick-record

// #region generation-record
// GenerationRecord captures one guild's reproduction boundary.
type GenerationRecord struct {
	RunID       string    `json:"run_id"`
	Generation  int       `json:"generation"`
	GuildID     string    `json:"guild_id"`
	TS          time.Time `json:"ts"`
	Elites      []string  `json:"elites"`
	Basis       []uint32  `json:"basis"` // primes after basis mutation
	Population  int       `json:"population"`
	BestFitness float64   `json:"best_fitness"`
}

// #endregion generation-record
