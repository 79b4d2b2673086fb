// Package config resolves scan settings from defaults, an optional YAML
// file and DIRHASH_* environment variables. Command-line flags are applied
// last by the cmd package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"DirectoryHasher/internal/types"
	"DirectoryHasher/internal/walk"
)

const (
	DefaultOutput    = "hashes.csv"
	DefaultAlgorithm = types.SHA256
	EnvPrefix        = "DIRHASH_"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	Root            string `yaml:"root"`
	Output          string `yaml:"output"`
	Workers         int    `yaml:"workers"`
	Algorithm       string `yaml:"algorithm"`
	FailFast        bool   `yaml:"failFast"`
	WalkQueueSize   int    `yaml:"walkQueueSize"`
	ResultQueueSize int    `yaml:"resultQueueSize"`
	Progress        bool   `yaml:"progress"`
	Verbose         bool   `yaml:"verbose"`
}

func Defaults() Config {
	return Config{
		Output:        DefaultOutput,
		Workers:       runtime.NumCPU(),
		Algorithm:     string(DefaultAlgorithm),
		WalkQueueSize: walk.DefaultQueueSize,
		Progress:      true,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Unknown keys are rejected.
func LoadFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b), yaml.Strict())
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays DIRHASH_OUTPUT, DIRHASH_WORKERS, DIRHASH_ALGORITHM and
// DIRHASH_FAIL_FAST onto cfg. lookup is normally os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPrefix + "OUTPUT"); ok && v != "" {
		cfg.Output = v
	}
	if v, ok := lookup(EnvPrefix + "ALGORITHM"); ok && v != "" {
		cfg.Algorithm = v
	}
	if v, ok := lookup(EnvPrefix + "WORKERS"); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sWORKERS=%q", ErrInvalid, EnvPrefix, v)
		}
		cfg.Workers = n
	}
	if v, ok := lookup(EnvPrefix + "FAIL_FAST"); ok && v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sFAIL_FAST=%q", ErrInvalid, EnvPrefix, v)
		}
		cfg.FailFast = b
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return fmt.Errorf("%w: root path is required", ErrInvalid)
	}
	if strings.TrimSpace(c.Output) == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalid, c.Workers)
	}
	if c.WalkQueueSize < 0 || c.ResultQueueSize < 0 {
		return fmt.Errorf("%w: queue sizes must not be negative", ErrInvalid)
	}
	if _, err := types.ParseAlgorithm(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// HashAlgorithm returns the parsed algorithm. Call Validate first.
func (c Config) HashAlgorithm() types.Algorithm {
	alg, err := types.ParseAlgorithm(c.Algorithm)
	if err != nil {
		return DefaultAlgorithm
	}
	return alg
}
