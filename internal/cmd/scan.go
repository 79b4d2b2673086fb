package cmd

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"

	"DirectoryHasher/internal/config"
	"DirectoryHasher/internal/hasher"
	"DirectoryHasher/internal/metrics"
	"DirectoryHasher/internal/output"
	"DirectoryHasher/internal/pipeline"
	"DirectoryHasher/internal/progress"
	"DirectoryHasher/internal/types"
	"DirectoryHasher/internal/walk"
)

type scanFlags struct {
	output          string
	workers         int
	algorithm       string
	failFast        bool
	noProgress      bool
	walkQueueSize   int
	resultQueueSize int
}

func (sf *scanFlags) register(cmd *cobra.Command) {
	d := config.Defaults()
	cmd.Flags().StringVarP(&sf.output, "out", "o", d.Output, "Output file (CSV, or JSON Lines for .jsonl/.ndjson)")
	cmd.Flags().IntVarP(&sf.workers, "threads", "t", d.Workers, "Hashing workers (default = logical CPU count)")
	cmd.Flags().StringVarP(&sf.algorithm, "algorithm", "a", d.Algorithm, "Digest algorithm: SHA256 or BLAKE3")
	cmd.Flags().BoolVar(&sf.failFast, "fail-fast", false, "Abort the run on the first file that cannot be hashed")
	cmd.Flags().BoolVar(&sf.noProgress, "no-progress", false, "Disable the progress bar")
	cmd.Flags().IntVar(&sf.walkQueueSize, "queue-size", d.WalkQueueSize, "Paths buffered ahead of the hashers")
	cmd.Flags().IntVar(&sf.resultQueueSize, "result-queue-size", d.ResultQueueSize, "Results buffered ahead of the writer (0 = unbounded)")
}

// resolveConfig layers explicitly set flags over loadConfig.
func resolveConfig(cmd *cobra.Command, g globalFlags, sf scanFlags, root string) (config.Config, error) {
	cfg, err := loadConfig(g, os.LookupEnv)
	if err != nil {
		return config.Config{}, err
	}
	cfg.Root = root

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output = sf.output
	}
	if flags.Changed("threads") {
		cfg.Workers = sf.workers
	}
	if flags.Changed("algorithm") {
		cfg.Algorithm = sf.algorithm
	}
	if flags.Changed("fail-fast") {
		cfg.FailFast = sf.failFast
	}
	if flags.Changed("no-progress") {
		cfg.Progress = !sf.noProgress
	}
	if flags.Changed("queue-size") {
		cfg.WalkQueueSize = sf.walkQueueSize
	}
	if flags.Changed("result-queue-size") {
		cfg.ResultQueueSize = sf.resultQueueSize
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, cfg config.Config) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	alg := cfg.HashAlgorithm()

	stats := &metrics.Stats{RunID: uuid.NewString()}

	var (
		bar        *progress.Bar
		onProgress func(int64)
	)
	if cfg.Progress {
		bar = progress.New(cmd.ErrOrStderr(), func() (files, failed, bytesHashed int64) {
			return atomic.LoadInt64(&stats.Processed), atomic.LoadInt64(&stats.Failed), atomic.LoadInt64(&stats.BytesHashed)
		})
		onProgress = bar.AddBytes
	}
	closeBar := func() {
		if bar != nil {
			bar.Close()
			bar = nil
		}
	}
	defer closeBar()

	h, err := hasher.New(alg, onProgress)
	if err != nil {
		return err
	}

	w := output.New(cfg.Output, alg)
	defer func() {
		_ = w.Close()
	}()

	walker := walk.New(cfg.WalkQueueSize, func(string, error) {
		atomic.AddInt64(&stats.WalkErrors, 1)
	})

	c := pipeline.New(walker, h, w, stats, pipeline.Options{
		Workers:         cfg.Workers,
		FailFast:        cfg.FailFast,
		ResultQueueSize: cfg.ResultQueueSize,
	})

	logger.InfoKV("scan starting",
		"run", stats.RunID,
		"root", cfg.Root,
		"output", cfg.Output,
		"workers", cfg.Workers,
		"algorithm", string(alg),
	)

	sum, err := c.Run(ctx, cfg.Root)
	closeBar()

	if types.IsCancelled(err) {
		fmt.Fprintf(out, "\ncancelled: %d files hashed before the stop, %s was left unchanged\n", sum.Files, cfg.Output)
		return err
	}
	if err != nil {
		logger.Errorf("scan %s failed: %v", stats.RunID, err)
		return err
	}

	logger.InfoKV("scan finished", "run", stats.RunID, "files", sum.Files, "failed", sum.Failed, "walk_errors", sum.WalkErrors, "elapsed", sum.Elapsed.String())
	fmt.Fprintf(out, "Done. %d files hashed into %s in %s\n", sum.Files, cfg.Output, sum.Elapsed.Round(time.Millisecond))
	metrics.Print(out, stats)

	if sum.Failed > 0 {
		for _, fe := range sum.Failures {
			fmt.Fprintln(out, "failed:", fe.Path)
		}
		return fmt.Errorf("%w: %d files could not be hashed", types.ErrIncomplete, sum.Failed)
	}
	return nil
}
