package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/danielpatrickdp/guild-ecology/internal/config"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
	"github.com/danielpatrickdp/guild-ecology/internal/journal"
	"github.com/danielpatrickdp/guild-ecology/internal/logging"
	"github.com/danielpatrickdp/guild-ecology/internal/metrics"
	"github.com/danielpatrickdp/guild-ecology/internal/replay"
)

// syntheticStart stamps generated bars so runs over them are reproducible.
var syntheticStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// #region main

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ecology",
		Short:        "Replay bars through a guild/observer trading ecology",
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(), newSynthCmd())
	return root
}

// #endregion main

// #region run

type runOptions struct {
	configPath string
	fixture    string
	bars       int
	db         string
	metricsOut string
	seed       uint64
}

func newRunCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ecology over a fixture or synthetic bars",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				f.Seed = opts.seed
			}
			if opts.db != "" {
				f.Journal.Path = opts.db
			}
			if opts.metricsOut != "" {
				f.Metrics.Textfile = opts.metricsOut
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runEcology(ctx, cmd.OutOrStdout(), f, opts)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&opts.configPath, "config", "", "YAML config file (defaults apply when empty)")
	fl.StringVar(&opts.fixture, "fixture", "", "JSON bar fixture; synthetic bars are generated when empty")
	fl.IntVar(&opts.bars, "bars", 600, "synthetic bars to generate without --fixture")
	fl.StringVar(&opts.db, "db", "", "SQLite journal path (overrides journal.path)")
	fl.StringVar(&opts.metricsOut, "metrics-out", "", "Prometheus textfile path (overrides metrics.textfile)")
	fl.Uint64Var(&opts.seed, "seed", 1, "random seed (overrides seed)")
	return cmd
}

func runEcology(ctx context.Context, out io.Writer, f config.File, opts runOptions) error {
	logger, err := logging.New(f.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var bars []feature.Bar
	if opts.fixture != "" {
		fx, err := replay.LoadFixture(opts.fixture)
		if err != nil {
			return err
		}
		bars = fx.Bars
	} else {
		bars = replay.Synthetic(rand.New(rand.NewPCG(f.Seed, 0)), opts.bars, 64000, syntheticStart)
	}

	rec := metrics.NewRecorder()
	hopts := []replay.Option{
		replay.WithSeed(f.Seed),
		replay.WithLogger(logger),
		replay.WithRecorder(rec),
	}

	var (
		store *journal.Store
		run   journal.RunRecord
	)
	if f.Journal.Path != "" {
		store, err = journal.Open(f.Journal.Path)
		if err != nil {
			return err
		}
		defer store.Close()
		run, err = store.StartRun(f.Seed, f)
		if err != nil {
			return err
		}
		hopts = append(hopts, replay.WithSink(store, run.RunID))
		logger.Info("journal run started", zap.String("run_id", run.RunID), zap.String("path", f.Journal.Path))
	}

	h, err := replay.New(f.ReplayConfig(), hopts...)
	if err != nil {
		return err
	}
	summary, runErr := h.Run(ctx, bars)

	if store != nil {
		if err := store.FinishRun(run.RunID, summary.Ticks); err != nil {
			logger.Error("finish run", zap.Error(err))
		}
	}
	if f.Metrics.Textfile != "" {
		if err := rec.WriteTextfile(f.Metrics.Textfile); err != nil {
			logger.Error("write metrics textfile", zap.Error(err))
		}
	}
	printSummary(out, summary, run.RunID)
	return runErr
}

func printSummary(out io.Writer, s replay.Summary, runID string) {
	p := message.NewPrinter(language.English)
	if runID != "" {
		p.Fprintf(out, "Run:          %s\n", runID)
	}
	p.Fprintf(out, "Bars:         %d\n", s.Bars)
	p.Fprintf(out, "Ticks:        %d\n", s.Ticks)
	p.Fprintf(out, "Generations:  %d\n", s.Generations)
	p.Fprintf(out, "Evaluations:  %d (vetoed %d, screened %d, rejected %d)\n",
		s.Outcome.Evaluated, s.Outcome.Vetoed, s.Outcome.Screened, s.Outcome.Rejected)
	p.Fprintf(out, "Orders:       %d (filled %d, resting %d, fills %d)\n",
		s.Orders, s.Outcome.Filled, s.Outcome.Unfilled, s.Fills)
	p.Fprintf(out, "Position:     %.4f @ %.2f\n", s.Position.Qty, s.Position.AvgPrice)
	p.Fprintf(out, "Equity:       %.4f (realized %.4f, drawdown %.4f)\n",
		s.Position.Equity(), s.Position.Realized, s.Position.Drawdown)

	ids := make([]string, 0, len(s.Bases))
	for id := range s.Bases {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "Basis %-8s %v\n", id+":", s.Bases[id])
	}
}

// #endregion run

// #region synth

func newSynthCmd() *cobra.Command {
	var (
		n    int
		seed uint64
		px   float64
		path string
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic random-walk bar fixture",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("--n must be positive")
			}
			fx := &replay.Fixture{
				Description: fmt.Sprintf("synthetic random walk, %d bars from %.2f", n, px),
				Seed:        seed,
				Bars:        replay.Synthetic(rand.New(rand.NewPCG(seed, 0)), n, px, syntheticStart),
			}
			if err := replay.SaveFixture(path, fx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bars to %s\n", n, path)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.IntVar(&n, "n", 600, "bars to generate")
	fl.Uint64Var(&seed, "seed", 1, "random seed")
	fl.Float64Var(&px, "px", 64000, "starting price")
	fl.StringVarP(&path, "out", "o", "bars.json", "output fixture path")
	return cmd
}

// #endregion synth
