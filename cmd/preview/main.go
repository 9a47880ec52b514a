// preview prints the next firings a trigger would produce for the given
// schedule, without waiting for them.
// Run: go run ./cmd/preview --interval 60 --uniform-lower -5 --uniform-upper 5 -n 10
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ErlanBelekov/timer-trigger/internal/domain"
	"github.com/ErlanBelekov/timer-trigger/internal/trigger"
	"github.com/spf13/cobra"
)

type previewOptions struct {
	initialTarget string
	interval      int
	actualMode    bool
	uniformLower  int
	uniformUpper  int
	sigma         float64
	count         int
	seed          int64
	seedSet       bool
	asJSON        bool
}

const maxCount = 10000

func newRootCmd() *cobra.Command {
	var opts previewOptions

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview upcoming trigger firings",
		Long: `Simulate a trigger schedule and print the next firings with their
standard and jittered targets. Uniform jitter is enabled when
--uniform-upper is above --uniform-lower, Gaussian jitter when --sigma is positive.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.seedSet = cmd.Flags().Changed("seed")
			return runPreview(cmd.OutOrStdout(), opts, time.Now())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.initialTarget, "initial", "", "initial target, RFC3339 (default now)")
	f.IntVar(&opts.interval, "interval", 60, "interval between standard targets, in seconds")
	f.BoolVar(&opts.actualMode, "actual-time-mode", false, "base the next target on the actual fire time")
	f.IntVar(&opts.uniformLower, "uniform-lower", 0, "uniform jitter lower bound, in seconds")
	f.IntVar(&opts.uniformUpper, "uniform-upper", 0, "uniform jitter upper bound, in seconds")
	f.Float64Var(&opts.sigma, "sigma", 0, "gaussian jitter standard deviation, in seconds")
	f.IntVarP(&opts.count, "count", "n", 10, fmt.Sprintf("number of firings to print (1-%d)", maxCount))
	f.Int64Var(&opts.seed, "seed", 0, "random seed (default derived from time and host)")
	f.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")

	return cmd
}

func (o previewOptions) scheduleConfig() (domain.ScheduleConfig, error) {
	cfg := domain.ScheduleConfig{
		IntervalSeconds:      o.interval,
		TargetActualTimeMode: o.actualMode,
		AddUniformJitter:     o.uniformUpper > o.uniformLower,
		UniformLower:         o.uniformLower,
		UniformUpper:         o.uniformUpper,
		AddGaussianJitter:    o.sigma > 0,
		Sigma:                o.sigma,
	}
	if o.initialTarget != "" {
		t, err := time.Parse(time.RFC3339, o.initialTarget)
		if err != nil {
			return domain.ScheduleConfig{}, fmt.Errorf("parse --initial: %w", err)
		}
		cfg.InitialTarget = t
	}
	return cfg, nil
}

func runPreview(out io.Writer, opts previewOptions, now time.Time) error {
	if opts.count < 1 || opts.count > maxCount {
		return fmt.Errorf("--count must be between 1 and %d, got %d", maxCount, opts.count)
	}

	cfg, err := opts.scheduleConfig()
	if err != nil {
		return err
	}

	cfg, err = trigger.Normalize(cfg, now)
	if err != nil {
		return err
	}

	var rng trigger.Rand = trigger.NewRand(now)
	if opts.seedSet {
		rng = rand.New(rand.NewSource(opts.seed))
	}

	events := trigger.Preview(cfg, opts.count, rng)

	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tSTANDARD\tJITTERED\tOFFSET")
	for i, ev := range events {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
			i+1,
			ev.CurrentStandardTarget.Format(time.RFC3339),
			ev.CurrentJitteredTarget.Format(time.RFC3339Nano),
			ev.JitterOffset(),
		)
	}
	return w.Flush()
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
