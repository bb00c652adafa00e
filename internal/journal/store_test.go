package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStartAndFinishRun(t *testing.T) {
	s := tempStore(t)

	run, err := s.StartRun(42, map[string]int{"guilds": 3})
	if err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if run.RunID == "" {
		t.Fatal("expected a run ID")
	}
	if run.ConfigJSON != `{"guilds":3}` {
		t.Fatalf("unexpected config json %s", run.ConfigJSON)
	}

	if err := s.FinishRun(run.RunID, 340); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	got, err := s.GetRun(run.RunID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if got.Seed != 42 || got.Ticks != 340 || got.FinishedAt.IsZero() {
		t.Fatalf("unexpected run %+v", got)
	}

	if err := s.FinishRun("missing", 1); err == nil {
		t.Fatal("expected error finishing an unknown run")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := tempStore(t)
	first, _ := s.StartRun(1, nil)
	time.Sleep(2 * time.Millisecond)
	second, _ := s.StartRun(2, nil)

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != second.RunID || runs[1].RunID != first.RunID {
		t.Fatalf("unexpected order %+v", runs)
	}
}

func TestRecordAndListTicks(t *testing.T) {
	s := tempStore(t)
	run, _ := s.StartRun(7, nil)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	want := []TickRecord{
		{RunID: run.RunID, Tick: 1, TS: ts, GuildID: "g-fast", BestAction: 0xFFFFC005, Fitness: 2.4, Coherence: 0.6, Entropy: 1.2, PhaseMeanLength: 0.9, PhaseDelta: 0.01, Evaluated: 8, Accepted: 5, PnL: 0.3},
		{RunID: run.RunID, Tick: 2, TS: ts.Add(time.Second), GuildID: "g-fast", Fitness: 1.2, Evaluated: 8},
	}
	for _, r := range want {
		if err := s.RecordTick(r); err != nil {
			t.Fatalf("RecordTick: %v", err)
		}
	}
	if err := s.RecordTick(TickRecord{RunID: run.RunID, Tick: 1, TS: ts, GuildID: "g-mid"}); err != nil {
		t.Fatalf("RecordTick: %v", err)
	}

	got, err := s.Ticks(run.RunID, "g-fast", 100)
	if err != nil {
		t.Fatalf("Ticks: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ticks mismatch (-want +got):\n%s", diff)
	}

	all, _ := s.Ticks(run.RunID, "", 100)
	if len(all) != 3 {
		t.Fatalf("expected 3 ticks across guilds, got %d", len(all))
	}
}

func TestRecordTickRequiresRun(t *testing.T) {
	s := tempStore(t)
	if err := s.RecordTick(TickRecord{RunID: "nope", TS: time.Now()}); err == nil {
		t.Fatal("expected foreign key error")
	}
}

func TestRecordAndListGenerations(t *testing.T) {
	s := tempStore(t)
	run, _ := s.StartRun(7, nil)
	g := GenerationRecord{
		RunID:       run.RunID,
		Generation:  1,
		GuildID:     "g-mid",
		TS:          time.Date(2024, 3, 1, 12, 2, 0, 0, time.UTC),
		Elites:      []string{"g-mid-obs3", "g-mid-obs0"},
		Basis:       []uint32{3, 5, 7, 29, 13, 17},
		Population:  8,
		BestFitness: 3.1,
	}
	if err := s.RecordGeneration(g); err != nil {
		t.Fatalf("RecordGeneration: %v", err)
	}

	got, err := s.Generations(run.RunID)
	if err != nil {
		t.Fatalf("Generations: %v", err)
	}
	if diff := cmp.Diff([]GenerationRecord{g}, got); diff != "" {
		t.Fatalf("generation mismatch (-want +got):\n%s", diff)
	}
}
