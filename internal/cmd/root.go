package cmd

import (
	"errors"

	"github.com/mordilloSan/go-logger/logger"
	"github.com/spf13/cobra"

	"DirectoryHasher/internal/config"
	"DirectoryHasher/internal/types"
	"DirectoryHasher/internal/version"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFatal      = 1
	ExitIncomplete = 2
	ExitCancelled  = 130
)

// ExitCode maps the error returned by a command onto a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case types.IsCancelled(err):
		return ExitCancelled
	case errors.Is(err, types.ErrIncomplete):
		return ExitIncomplete
	default:
		return ExitFatal
	}
}

type globalFlags struct {
	configPath string
	verbose    bool
}

// NewRootCmd creates the dirhash command tree. The root command itself scans.
func NewRootCmd() *cobra.Command {
	var g globalFlags
	sf := scanFlags{}

	rootCmd := &cobra.Command{
		Use:   "dirhash PATH",
		Short: "dirhash - parallel SHA-256 manifest of a directory tree",
		Long: `dirhash walks PATH recursively, hashes every regular file with a pool of
workers and writes one line per file to the output manifest.

The output is CSV (path,sha256,bytes) unless its name ends in .jsonl or
.ndjson. With more than one worker the lines follow completion order; use
--threads 1 for discovery order and byte-identical reruns.

Settings are read from defaults, then --config, then DIRHASH_* environment
variables (a .env file is honoured), then flags.`,
		Version:       version.GetFullVersion(),
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger(g.verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, g, sf, args[0])
			if err != nil {
				return err
			}
			return runScan(cmd, cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")
	sf.register(rootCmd)

	rootCmd.AddCommand(NewVerifyCmd(&g))
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

func initLogger(verbose bool) {
	var levels []logger.Level
	if verbose {
		levels = logger.AllLevels()
	} else {
		levels = []logger.Level{logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel}
	}
	logger.Init(logger.Config{
		Levels: levels,
	})
}

// loadConfig applies defaults, the config file and the environment.
func loadConfig(g globalFlags, lookup func(string) (string, bool)) (config.Config, error) {
	cfg := config.Defaults()
	if g.configPath != "" {
		if err := config.LoadFile(&cfg, g.configPath); err != nil {
			return config.Config{}, err
		}
	}
	if err := config.ApplyEnv(&cfg, lookup); err != nil {
		return config.Config{}, err
	}
	if g.verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}
