package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielpatrickdp/guild-ecology/internal/journal"
	"github.com/danielpatrickdp/guild-ecology/internal/replay"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("ecology %s: %v\n%s", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestSynthThenRun(t *testing.T) {
	dir := t.TempDir()
	fixture := filepath.Join(dir, "bars.json")
	db := filepath.Join(dir, "journal.db")
	prom := filepath.Join(dir, "ecology.prom")
	t.Setenv("ECOLOGY_LOG_LEVEL", "error")

	out := execute(t, "synth", "--n", "150", "--seed", "4", "-o", fixture)
	if !strings.Contains(out, "wrote 150 bars") {
		t.Fatalf("unexpected synth output %q", out)
	}
	fx, err := replay.LoadFixture(fixture)
	if err != nil {
		t.Fatalf("LoadFixture: %v", err)
	}
	if len(fx.Bars) != 150 || fx.Seed != 4 {
		t.Fatalf("unexpected fixture: %d bars, seed %d", len(fx.Bars), fx.Seed)
	}

	out = execute(t, "run", "--fixture", fixture, "--db", db, "--metrics-out", prom, "--seed", "4")
	for _, want := range []string{"Run:", "Ticks:        91", "Basis g-fast:"} {
		if !strings.Contains(out, want) {
			t.Errorf("run output missing %q:\n%s", want, out)
		}
	}

	store, err := journal.Open(db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	runs, err := store.ListRuns(10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one journaled run, got %v (%v)", runs, err)
	}
	if runs[0].Seed != 4 || runs[0].Ticks != 91 || runs[0].FinishedAt.IsZero() {
		t.Errorf("unexpected run %+v", runs[0])
	}

	text, err := os.ReadFile(prom)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(text), "ecology_ticks_total 91") {
		t.Errorf("textfile missing tick count:\n%s", text)
	}
}

func TestRunRejectsBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("phase:\n  alpha: 0\n"), 0o644)

	cmd := newRootCmd()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"run", "--config", path})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected validation error")
	}
}
