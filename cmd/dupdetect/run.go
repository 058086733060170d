package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	dupdetect "github.com/Silvia-F/di-duplicate-detection"
	"github.com/Silvia-F/di-duplicate-detection/internal/config"
	"github.com/Silvia-F/di-duplicate-detection/internal/pipeline"
	"github.com/Silvia-F/di-duplicate-detection/internal/table"
)

type runOptions struct {
	input            string
	output           string
	configPath       string
	metricsFile      string
	threshold        float64
	groupColumn      string
	simColumn        string
	removeSingletons bool
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Cluster the rows of a table and write them with their cluster ids",
		Long: `Read every row of the input table, group approximate duplicates and write
the rows to the output table with two extra columns: the cluster id and the
similarity to the cluster's representative row.

Tables are CSV files, or SQLite tables written as sqlite:path#table. The
output SQLite table must not exist yet.

Settings come from the --config file, then DUPDETECT_* environment
variables, then flags. Values read from the file are lenient: an invalid
threshold falls back to 0.5. Values from the environment or flags are
strict.`,
		Example: `  dupdetect run --input people.csv --output deduped.csv --threshold 0.8
  dupdetect run --input sqlite:crm.db#contacts --output sqlite:crm.db#contacts_dedup
  dupdetect run --config settings.yaml --input a.csv --output b.csv --remove-singletons`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, &opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "Input table (CSV path or sqlite:path#table)")
	flags.StringVarP(&opts.output, "output", "o", "", "Output table (CSV path or sqlite:path#table)")
	flags.StringVarP(&opts.configPath, "config", "c", "", "Settings YAML file")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	flags.Float64VarP(&opts.threshold, "threshold", "t", 0.5, "Minimum similarity to share a cluster, 0-1")
	flags.StringVar(&opts.groupColumn, "group-column", "", "Name of the cluster id column")
	flags.StringVar(&opts.simColumn, "sim-column", "", "Name of the similarity column")
	flags.BoolVar(&opts.removeSingletons, "remove-singletons", false, "Drop rows that matched no other row")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// resolveSettings layers the settings file, the environment and the flags
// that were set explicitly.
func resolveSettings(cmd *cobra.Command, opts *runOptions, logger *slog.Logger) (config.Settings, error) {
	s, err := config.Load(opts.configPath, logger)
	if err != nil {
		return s, err
	}
	s, err = config.ApplyEnv(s)
	if err != nil {
		return s, err
	}

	flags := cmd.Flags()
	if flags.Changed("threshold") {
		if !dupdetect.ValidThreshold(opts.threshold) {
			return s, fmt.Errorf("--threshold must be between 0 and 1 (got %v)", opts.threshold)
		}
		s.MatchThreshold = opts.threshold
	}
	if flags.Changed("group-column") {
		s.GroupColumnName = opts.groupColumn
	}
	if flags.Changed("sim-column") {
		s.SimColumnName = opts.simColumn
	}
	if flags.Changed("remove-singletons") {
		s.RemoveSingletons = opts.removeSingletons
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	settings, err := resolveSettings(cmd, opts, a.logger)
	if err != nil {
		return err
	}
	inLoc, err := table.ParseLocator(opts.input)
	if err != nil {
		return fmt.Errorf("--input: %w", err)
	}
	outLoc, err := table.ParseLocator(opts.output)
	if err != nil {
		return fmt.Errorf("--output: %w", err)
	}

	step, err := pipeline.New(settings, pipeline.WithLogger(a.logger))
	if err != nil {
		return err
	}

	src, err := table.OpenSource(ctx, inLoc)
	if err != nil {
		return err
	}
	defer src.Close()

	sink, err := table.OpenSink(outLoc)
	if err != nil {
		return err
	}
	report, runErr := step.Run(ctx, src, sink)
	closeErr := sink.Close()
	if runErr != nil {
		return runErr
	}
	if closeErr != nil {
		return closeErr
	}

	if opts.metricsFile != "" {
		if err := step.Metrics().WriteTextfile(opts.metricsFile); err != nil {
			return err
		}
	}

	printSummary(cmd.OutOrStdout(), report, outLoc)
	return nil
}

func printSummary(w io.Writer, r *pipeline.Report, out table.Locator) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Fprintf(w, "\n%s Clustered %d rows\n\n", green("✓"), r.Read)
	fmt.Fprintf(w, "  Clusters:   %s (%d singletons)\n", cyan(r.Stats.Clusters), r.Stats.Singletons)
	if r.Stats.Suppressed > 0 {
		fmt.Fprintf(w, "  Suppressed: %s\n", yellow(r.Stats.Suppressed))
	}
	fmt.Fprintf(w, "  Written:    %d rows to %s\n", r.Written, cyan(out.String()))
	if r.Summary.Members > 0 {
		fmt.Fprintf(w, "  Similarity: mean %.2f, median %.1f, min %.1f over %d duplicates\n",
			r.Summary.Mean, r.Summary.Median, r.Summary.Min, r.Summary.Members)
	}
	fmt.Fprintf(w, "  %s\n", gray(fmt.Sprintf("run %s in %s", r.RunID, r.ClusterDuration)))
}
