package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	seed         INTEGER NOT NULL,
	config_json  TEXT,
	started_at   TEXT NOT NULL,
	finished_at  TEXT,
	ticks        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS guild_ticks (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id            TEXT NOT NULL,
	tick              INTEGER NOT NULL,
	ts                TEXT NOT NULL,
	guild_id          TEXT NOT NULL,
	best_action       INTEGER NOT NULL,
	fitness           REAL NOT NULL,
	coherence         REAL NOT NULL,
	entropy           REAL NOT NULL,
	phase_mean_length REAL NOT NULL,
	phase_delta       REAL NOT NULL,
	evaluated         INTEGER NOT NULL,
	accepted          INTEGER NOT NULL,
	pnl               REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS guild_ticks_run ON guild_ticks (run_id, guild_id, tick);

CREATE TABLE IF NOT EXISTS generations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	generation   INTEGER NOT NULL,
	guild_id     TEXT NOT NULL,
	ts           TEXT NOT NULL,
	elites_json  TEXT NOT NULL,
	basis_json   TEXT NOT NULL,
	population   INTEGER NOT NULL,
	best_fitness REAL NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

// timeFormat is fixed-width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// Store is a write-mostly SQLite journal of ecology runs. Nothing in it is
// read back into a running ecology.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// Open opens (or creates) the journal at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Pragmas are per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region runs
// StartRun opens a new run with a fresh ID. config is stored as JSON.
func (s *Store) StartRun(seed uint64, config any) (RunRecord, error) {
	cfgJSON, err := json.Marshal(config)
	if err != nil {
		return RunRecord{}, fmt.Errorf("marshal config: %w", err)
	}
	rec := RunRecord{
		RunID:      uuid.New().String(),
		Seed:       seed,
		ConfigJSON: string(cfgJSON),
		StartedAt:  time.Now().UTC(),
	}
	_, err = s.db.Exec(
		`INSERT INTO runs (run_id, seed, config_json, started_at) VALUES (?, ?, ?, ?)`,
		rec.RunID, int64(rec.Seed), rec.ConfigJSON, rec.StartedAt.Format(timeFormat),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// FinishRun stamps the run's end time and tick count.
func (s *Store) FinishRun(runID string, ticks int) error {
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, ticks = ? WHERE run_id = ?`,
		time.Now().UTC().Format(timeFormat), ticks, runID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, seed, config_json, started_at, finished_at, ticks FROM runs WHERE run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, seed, config_json, started_at, finished_at, ticks
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunRecord, error) {
	var rec RunRecord
	var seed int64
	var cfg, finished sql.NullString
	var started string
	if err := sc.Scan(&rec.RunID, &seed, &cfg, &started, &finished, &rec.Ticks); err != nil {
		return RunRecord{}, err
	}
	rec.Seed = uint64(seed)
	rec.ConfigJSON = cfg.String
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
	if finished.Valid {
		rec.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished.String)
	}
	return rec, nil
}

// #endregion runs

// #region ticks
// RecordTick appends one guild tick.
func (s *Store) RecordTick(r TickRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO guild_ticks (run_id, tick, ts, guild_id, best_action, fitness, coherence, entropy,
		 phase_mean_length, phase_delta, evaluated, accepted, pnl)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Tick, r.TS.UTC().Format(timeFormat), r.GuildID, int64(r.BestAction),
		r.Fitness, r.Coherence, r.Entropy, r.PhaseMeanLength, r.PhaseDelta,
		r.Evaluated, r.Accepted, r.PnL,
	)
	if err != nil {
		return fmt.Errorf("record tick %d/%s: %w", r.Tick, r.GuildID, err)
	}
	return nil
}

// Ticks returns a run's ticks in order. An empty guildID returns every guild.
func (s *Store) Ticks(runID, guildID string, limit int) ([]TickRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, tick, ts, guild_id, best_action, fitness, coherence, entropy,
		 phase_mean_length, phase_delta, evaluated, accepted, pnl
		 FROM guild_ticks WHERE run_id = ? AND (? = '' OR guild_id = ?)
		 ORDER BY tick, id LIMIT ?`, runID, guildID, guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list ticks: %w", err)
	}
	defer rows.Close()

	var out []TickRecord
	for rows.Next() {
		var r TickRecord
		var ts string
		var best int64
		if err := rows.Scan(&r.RunID, &r.Tick, &ts, &r.GuildID, &best, &r.Fitness, &r.Coherence,
			&r.Entropy, &r.PhaseMeanLength, &r.PhaseDelta, &r.Evaluated, &r.Accepted, &r.PnL); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		r.TS, _ = time.Parse(time.RFC3339Nano, ts)
		r.BestAction = uint32(best)
		out = append(out, r)
	}
	return out, rows.Err()
}

// #endregion ticks

// #region generations
// RecordGeneration appends one reproduction boundary.
func (s *Store) RecordGeneration(g GenerationRecord) error {
	elites, err := json.Marshal(g.Elites)
	if err != nil {
		return fmt.Errorf("marshal elites: %w", err)
	}
	basis, err := json.Marshal(g.Basis)
	if err != nil {
		return fmt.Errorf("marshal basis: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO generations (run_id, generation, guild_id, ts, elites_json, basis_json, population, best_fitness)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.RunID, g.Generation, g.GuildID, g.TS.UTC().Format(timeFormat),
		string(elites), string(basis), g.Population, g.BestFitness,
	)
	if err != nil {
		return fmt.Errorf("record generation %d/%s: %w", g.Generation, g.GuildID, err)
	}
	return nil
}

// Generations returns a run's generations in order.
func (s *Store) Generations(runID string) ([]GenerationRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, generation, guild_id, ts, elites_json, basis_json, population, best_fitness
		 FROM generations WHERE run_id = ? ORDER BY generation, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list generations: %w", err)
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		var g GenerationRecord
		var ts, elites, basis string
		if err := rows.Scan(&g.RunID, &g.Generation, &g.GuildID, &ts, &elites, &basis, &g.Population, &g.BestFitness); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		g.TS, _ = time.Parse(time.RFC3339Nano, ts)
		if err := json.Unmarshal([]byte(elites), &g.Elites); err != nil {
			return nil, fmt.Errorf("unmarshal elites: %w", err)
		}
		if err := json.Unmarshal([]byte(basis), &g.Basis); err != nil {
			return nil, fmt.Errorf("unmarshal basis: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// #endregion generations
