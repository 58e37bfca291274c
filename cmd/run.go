package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fundbase/fundscan/internal/export"
	"github.com/fundbase/fundscan/internal/model"
	"github.com/fundbase/fundscan/internal/pipeline"
	"github.com/fundbase/fundscan/internal/universe"
)

var (
	runOutput   string
	runUniverse string
	runWorkers  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one acquisition pass over the fund universe",
	Long:  "Fetches every fund in the universe file, builds canonical records, and writes the workbook snapshot. The run outcome is recorded in the run-history store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		funds, err := universe.Load(runUniverse)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		run, err := st.CreateRun(ctx)
		if err != nil {
			return eris.Wrap(err, "create run")
		}

		pacer := newPacer()
		fetcher := newFetcher(pacer)
		defer fetcher.Close()

		zap.L().Info("run started",
			zap.String("run_id", run.ID),
			zap.Int("universe", len(funds)),
			zap.Duration("interval", pacer.Interval()),
		)

		runner := pipeline.New(fetcher, pacer, pipeline.Options{Workers: runWorkers})
		ds, summary := runner.Run(ctx, run.ID, funds)

		status := model.RunStatusCompleted
		if summary.Succeeded == 0 {
			status = model.RunStatusFailed
		}

		if err := export.Write(runOutput, ds, summary); err != nil {
			summary.OutputPath = ""
			_ = st.CompleteRun(ctx, run.ID, model.RunStatusFailed, summary)
			return eris.Wrapf(err, "write output %s", runOutput)
		}
		summary.OutputPath = runOutput

		if err := st.CompleteRun(ctx, run.ID, status, summary); err != nil {
			return eris.Wrap(err, "complete run")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	runCmd.Flags().StringVar(&runOutput, "output", "", "workbook output path (default from config)")
	runCmd.Flags().StringVar(&runUniverse, "universe", "", "universe file path (default from config)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "concurrent fund workers (default from config)")

	// Flag defaults resolve against config after PersistentPreRunE.
	runCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if runOutput == "" {
			runOutput = cfg.Export.Path
		}
		if runUniverse == "" {
			runUniverse = cfg.Universe.Path
		}
		if runWorkers == 0 {
			runWorkers = cfg.Pipeline.Workers
		}
	}

	rootCmd.AddCommand(runCmd)
}
