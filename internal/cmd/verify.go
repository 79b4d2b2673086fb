package cmd

import (
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"

	"DirectoryHasher/internal/config"
	"DirectoryHasher/internal/index"
	"DirectoryHasher/internal/metrics"
	"DirectoryHasher/internal/progress"
	"DirectoryHasher/internal/types"
	"DirectoryHasher/internal/verify"
)

// NewVerifyCmd creates the verify subcommand, which checks a manifest written
// by a scan against the files it lists.
func NewVerifyCmd(g *globalFlags) *cobra.Command {
	var (
		workers    int
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "verify MANIFEST",
		Short: "Re-hash the files listed in a manifest and report any that changed",
		Long: `Re-hash every file listed in MANIFEST (CSV or JSON Lines, as written by a
scan) and compare size and digest. Files that are missing, resized or whose
digest differs are listed and the command exits with status 2.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*g, os.LookupEnv)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("threads") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("no-progress") {
				cfg.Progress = !noProgress
			}
			return runVerify(cmd, args[0], cfg.Workers, cfg.Progress)
		},
	}

	cmd.Flags().IntVarP(&workers, "threads", "t", config.Defaults().Workers, "Hashing workers")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func runVerify(cmd *cobra.Command, manifest string, workers int, showProgress bool) error {
	out := cmd.OutOrStdout()

	run, items, err := index.Load(manifest)
	if err != nil {
		return err
	}

	logger.InfoKV("verify starting", "manifest", manifest, "algorithm", string(run.Algorithm), "items", run.Total)

	stats := &metrics.Stats{RunID: uuid.NewString()}
	stats.Start()
	atomic.StoreInt64(&stats.Total, run.Total)

	var bar *progress.Bar
	if showProgress {
		bar = progress.New(cmd.ErrOrStderr(), func() (files, failed, bytesHashed int64) {
			failed = atomic.LoadInt64(&stats.StatErrors) + atomic.LoadInt64(&stats.SizeMismatches) +
				atomic.LoadInt64(&stats.HashErrors) + atomic.LoadInt64(&stats.HashMismatches)
			return atomic.LoadInt64(&stats.Processed), failed, atomic.LoadInt64(&stats.BytesHashed)
		})
	}

	res, err := verify.Verify(cmd.Context(), run.Algorithm, items, verify.Options{Workers: workers}, stats, bar)
	if bar != nil {
		bar.Close()
	}
	stats.Stop()
	if err != nil {
		return err
	}

	metrics.PrintVerify(out, stats)

	for _, m := range res.Mismatches {
		fmt.Fprintf(out, "mismatch: %s\n  expected %s\n  computed %s\n", m.Path, m.Expected, m.Computed)
	}
	for _, p := range res.Failed {
		fmt.Fprintln(out, "failed:", p)
	}

	if !res.OK() {
		return fmt.Errorf("%w: %d mismatched, %d unreadable", types.ErrIncomplete, len(res.Mismatches), len(res.Failed))
	}
	return nil
}
