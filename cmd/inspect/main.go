package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/journal"
)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		dbPath  string
		jsonOut bool
	)
	root := &cobra.Command{
		Use:          "inspect",
		Short:        "Inspect an ecology run journal",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the ecology journal")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON instead of table")

	open := func() (*journal.Store, error) {
		if dbPath == "" {
			return nil, fmt.Errorf("--db is required")
		}
		store, err := journal.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return store, nil
	}
	root.AddCommand(
		newRunsCmd(open, &jsonOut),
		newTicksCmd(open, &jsonOut),
		newGenerationsCmd(open, &jsonOut),
	)
	return root
}

// opener opens the journal named by --db.
type opener func() (*journal.Store, error)

// #endregion main

// #region runs

type runRow struct {
	RunID      string `json:"run_id"`
	Seed       uint64 `json:"seed"`
	Ticks      int    `json:"ticks"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

func newRunsCmd(open opener, jsonOut *bool) *cobra.Command {
	var last int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the most recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(last)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "no runs found")
				return nil
			}
			rows := make([]runRow, len(runs))
			for i, r := range runs {
				rows[i] = runRow{
					RunID:     r.RunID,
					Seed:      r.Seed,
					Ticks:     r.Ticks,
					StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
				}
				if !r.FinishedAt.IsZero() {
					rows[i].FinishedAt = r.FinishedAt.Format("2006-01-02T15:04:05Z")
				}
			}
			if *jsonOut {
				return printJSON(out, rows)
			}

			fmt.Fprintf(out, "%-36s  %8s  %6s  %-20s  %s\n", "Run", "Seed", "Ticks", "Started", "Finished")
			fmt.Fprintf(out, "%-36s+-%8s+-%6s+-%-20s+-%s\n",
				"------------------------------------", "--------", "------", "--------------------", "--------------------")
			for _, r := range rows {
				finished := "—"
				if r.FinishedAt != "" {
					finished = r.FinishedAt
				}
				fmt.Fprintf(out, "%-36s  %8d  %6d  %-20s  %s\n", r.RunID, r.Seed, r.Ticks, r.StartedAt, finished)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&last, "last", 20, "show N most recent runs")
	return cmd
}

// #endregion runs

// #region ticks

type tickRow struct {
	Tick       int     `json:"tick"`
	TS         string  `json:"ts"`
	GuildID    string  `json:"guild_id"`
	BestAction string  `json:"best_action"`
	Fitness    float64 `json:"fitness"`
	Coherence  float64 `json:"coherence"`
	Entropy    float64 `json:"entropy"`
	PhaseLen   float64 `json:"phase_mean_length"`
	PhaseDelta float64 `json:"phase_delta"`
	Evaluated  int     `json:"evaluated"`
	Accepted   int     `json:"accepted"`
	PnL        float64 `json:"pnl"`
}

func newTicksCmd(open opener, jsonOut *bool) *cobra.Command {
	var (
		guildID string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "ticks <run-id>",
		Short: "Show per-guild ticks of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			ticks, err := store.Ticks(args[0], guildID, limit)
			if err != nil {
				return err
			}
			rows := make([]tickRow, len(ticks))
			for i, t := range ticks {
				rows[i] = tickRow{
					Tick:       t.Tick,
					TS:         t.TS.Format("15:04:05"),
					GuildID:    t.GuildID,
					BestAction: describeAction(t.BestAction),
					Fitness:    t.Fitness,
					Coherence:  t.Coherence,
					Entropy:    t.Entropy,
					PhaseLen:   t.PhaseMeanLength,
					PhaseDelta: t.PhaseDelta,
					Evaluated:  t.Evaluated,
					Accepted:   t.Accepted,
					PnL:        t.PnL,
				}
			}
			out := cmd.OutOrStdout()
			if *jsonOut {
				return printJSON(out, rows)
			}

			fmt.Fprintf(out, "%6s  %-8s  %-8s  %7s  %6s  %6s  %6s  %8s  %5s  %9s  %s\n",
				"Tick", "Time", "Guild", "Fitness", "Coh", "H", "|Phi|", "dPhi", "Acc", "PnL", "Best")
			for _, r := range rows {
				fmt.Fprintf(out, "%6d  %-8s  %-8s  %7.4f  %6.3f  %6.3f  %6.3f  %8.5f  %2d/%-2d  %9.5f  %s\n",
					r.Tick, r.TS, r.GuildID, r.Fitness, r.Coherence, r.Entropy, r.PhaseLen, r.PhaseDelta,
					r.Accepted, r.Evaluated, r.PnL, r.BestAction)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&guildID, "guild", "", "only show this guild")
	cmd.Flags().IntVar(&limit, "limit", 200, "maximum rows")
	return cmd
}

func describeAction(code uint32) string {
	if code == 0 {
		return "—"
	}
	return action.Code(code).String()
}

// #endregion ticks

// #region generations

func newGenerationsCmd(open opener, jsonOut *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "generations <run-id>",
		Short: "Show reproduction boundaries of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			gens, err := store.Generations(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if *jsonOut {
				return printJSON(out, gens)
			}
			for _, g := range gens {
				fmt.Fprintf(out, "gen %-3d %-8s %s  pop=%d  best=%.4f  basis=%v  elites=%v\n",
					g.Generation, g.GuildID, g.TS.Format("15:04:05"), g.Population, g.BestFitness, g.Basis, g.Elites)
			}
			return nil
		},
	}
}

// #endregion generations

// #region output

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// #endregion output
