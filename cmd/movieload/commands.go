package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"movieload/internal/config"
	"movieload/internal/dataset"
	"movieload/internal/ddl"
	"movieload/internal/load"
	"movieload/internal/logger"
	"movieload/internal/pipeline"
	"movieload/internal/prepare"
	csvsource "movieload/internal/source/csv"

	// Register the relational backends with the storage factory.
	_ "movieload/internal/storage/all"
)

// app carries what every subcommand needs once the root pre-run is done.
type app struct {
	envFile string
	logMode string

	cfg   config.Config
	log   *logger.Logger
	runID string
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "movieload",
		Short:         "Load the movie catalog into the relational and document stores",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(args)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "dotenv file to seed the environment from (missing is fine)")
	root.PersistentFlags().StringVar(&a.logMode, "log-mode", "", "development or production (overrides LOG_MODE)")

	root.AddCommand(newValidateCmd(a), newCleanCmd(a), newLoadCmd(a))
	return root
}

func (a *app) init(args []string) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.DataDir = args[0]
	}
	if a.logMode != "" {
		cfg.LogMode = a.logMode
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	a.runID = uuid.NewString()
	a.log = log.With("run_id", a.runID)
	return nil
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [data-dir]",
		Short: "Check configuration and required input files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := a.cfg.Validate()
			printIssues(cmd.ErrOrStderr(), issues)
			inputErr := csvsource.CheckInputs(a.cfg.DataDir, dataset.Required)
			if inputErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), inputErr)
			}
			if err := issues.Err(); err != nil {
				return err
			}
			if inputErr != nil {
				return inputErr
			}
			fmt.Fprintf(cmd.OutOrStdout(), "configuration and inputs in %s are valid\n", a.cfg.DataDir)
			return nil
		},
	}
}

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean [data-dir]",
		Short: "Clean, reconcile and prepare the inputs without touching any store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, clean, err := a.readAndClean(cmd)
			if err != nil {
				return err
			}
			sum, err := prepare.Prepare(set, ddl.Movies(), a.log.Named("prepare"))
			if err != nil {
				return err
			}
			printClean(cmd.OutOrStdout(), clean, sum)
			return nil
		},
	}
}

func newLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load [data-dir]",
		Short: "Run the full load into both stores",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issues := a.cfg.Validate()
			for _, iss := range issues {
				if iss.Severity == config.SeverityWarning {
					a.log.Warn("configuration warning", "path", iss.Path, "msg", iss.Message)
				}
			}
			if err := issues.Err(); err != nil {
				printIssues(cmd.ErrOrStderr(), issues)
				return err
			}

			flush := setupMetrics(a.cfg, a.runID, a.log)
			defer flush()

			set, _, err := a.readAndClean(cmd)
			if err != nil {
				return err
			}

			p := pipeline.New(pipelineOptions(a.cfg), relationalOpener(a.cfg), documentOpener(a.cfg), a.log)
			rep, err := p.Run(cmd.Context(), set)
			printReport(cmd.OutOrStdout(), rep)
			return err
		},
	}
}

func (a *app) readAndClean(cmd *cobra.Command) (dataset.Set, pipeline.CleanReport, error) {
	start := time.Now()
	r := csvsource.NewReader(csvsource.Options{}, a.log.Named("csv"))
	set, err := r.ReadDir(cmd.Context(), a.cfg.DataDir, dataset.Required)
	if err != nil {
		a.log.Error("read inputs", "dir", a.cfg.DataDir, "err", err)
		return nil, pipeline.CleanReport{}, err
	}
	a.log.Info("inputs read", "dir", a.cfg.DataDir, "datasets", len(set), "rows", set.Rows(),
		"elapsed", time.Since(start).Truncate(time.Millisecond).String())

	rep, err := pipeline.Clean(set, a.log)
	if err != nil {
		return nil, rep, err
	}
	return set, rep, nil
}

func pipelineOptions(cfg config.Config) pipeline.Options {
	return pipeline.Options{
		Catalog: ddl.Movies(),
		Collections: load.Collections{
			Reviews:  cfg.Mongo.ReviewsCollection,
			Awards:   cfg.Mongo.AwardsCollection,
			Messages: cfg.Mongo.MessagesCollection,
		},
		RelationalBatchSize: cfg.Postgres.BatchSize,
		DocumentBatchSize:   cfg.Mongo.BatchSize,
		Parallel:            cfg.Parallel,
	}
}

func printIssues(w io.Writer, issues config.Issues) {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
}

func printClean(w io.Writer, clean pipeline.CleanReport, sum prepare.Summary) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tROWS\tNULLED\tFINGERPRINT")
	for _, d := range sum.Datasets {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%016x\n", d.Name, d.Rows, d.Nulled, d.Fingerprint)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nreview scores missing: %d, descriptions cleared: %d, invalid dates: %d\n",
		clean.Cleaning.ScoresMissing, clean.Cleaning.DescriptionsCleared, clean.Cleaning.DatesInvalid)
	for _, l := range clean.Reconcile.Links {
		fmt.Fprintf(w, "%s: matched %d, unmatched %d, dropped %d\n", l.Dataset, l.Matched, l.Unmatched, l.Dropped)
	}
	if clean.Reconcile.Collapsed > 0 {
		fmt.Fprintf(w, "duplicate movie titles collapsed: %d\n", clean.Reconcile.Collapsed)
	}
	if clean.Reconcile.Untitled > 0 {
		fmt.Fprintf(w, "movies without a usable title: %d\n", clean.Reconcile.Untitled)
	}
}

func printReport(w io.Writer, rep pipeline.Report) {
	fmt.Fprintf(w, "state: %s (%s)\n", rep.State, rep.Duration.Truncate(time.Millisecond))
	for _, sink := range []struct {
		name string
		res  load.Result
	}{{load.SinkRelational, rep.Relational}, {load.SinkDocument, rep.Document}} {
		if len(sink.res.Targets) == 0 {
			continue
		}
		parts := make([]string, 0, len(sink.res.Targets))
		for _, t := range sink.res.Targets {
			parts = append(parts, fmt.Sprintf("%s=%d", t.Target, t.Inserted))
		}
		fmt.Fprintf(w, "%s: %d rows (%s)\n", sink.name, sink.res.Total, strings.Join(parts, ", "))
	}
	for _, ie := range rep.Indexes {
		fmt.Fprintf(w, "index skipped: %v\n", ie)
	}
}
