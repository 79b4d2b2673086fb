// Package output persists hash results. Writers are driven by a single
// goroutine and are not safe for concurrent use.
package output

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"DirectoryHasher/internal/types"
)

// Writer is the destination of a scan.
type Writer interface {
	// Initialise prepares a fresh output, discarding anything buffered earlier.
	Initialise(ctx context.Context) error
	// Write buffers one result.
	Write(ctx context.Context, r types.HashResult) error
	// Flush durably replaces the destination with everything written since Initialise.
	Flush(ctx context.Context) error
	// Close discards uncommitted output. It is safe to call after Flush.
	Close() error
}

// Owner is implemented by writers that can tell their own files apart, so a
// scan whose destination lies inside the tree does not hash them.
type Owner interface {
	// Owns reports whether path is the destination or one of its temporary files.
	Owns(path string) bool
}

// New picks a writer by the destination's extension: .jsonl and .ndjson get
// JSON Lines, everything else CSV.
func New(path string, algorithm types.Algorithm) Writer {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return NewJSONLWriter(path, algorithm)
	default:
		return NewCSVWriter(path, algorithm)
	}
}

// pending streams into a temporary file next to the destination and renames
// it into place on commit, so the destination is either the old content or
// the complete new content.
type pending struct {
	dest string
	f    *os.File
	bw   *bufio.Writer
}

func (p *pending) open() error {
	const errCtx = "opening output"

	if err := p.discard(); err != nil {
		return err
	}

	dir := filepath.Dir(p.dest)
	f, err := os.CreateTemp(dir, "."+filepath.Base(p.dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, types.ErrWriterFailure, err)
	}
	p.f = f
	p.bw = bufio.NewWriterSize(f, 64<<10)
	return nil
}

func (p *pending) owns(path string) bool {
	base, destBase := filepath.Base(path), filepath.Base(p.dest)
	temp := strings.HasPrefix(base, "."+destBase+".") && strings.HasSuffix(base, ".tmp")
	if base != destBase && !temp {
		return false
	}
	return sameDir(filepath.Dir(path), filepath.Dir(p.dest))
}

func sameDir(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	// one side may be reached through a symlink
	ia, err := os.Stat(a)
	if err != nil {
		return false
	}
	ib, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ia, ib)
}

func (p *pending) writeString(s string) error {
	if p.bw == nil {
		return fmt.Errorf("%w: writer not initialised", types.ErrWriterFailure)
	}
	if _, err := p.bw.WriteString(s); err != nil {
		return fmt.Errorf("%w: %w", types.ErrWriterFailure, err)
	}
	return nil
}

func (p *pending) commit() (retErr error) {
	const errCtx = "committing output"

	if p.f == nil {
		return fmt.Errorf("%s: %w: writer not initialised", errCtx, types.ErrWriterFailure)
	}
	defer func() {
		if retErr != nil {
			_ = p.discard()
		}
	}()

	if err := p.bw.Flush(); err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, types.ErrWriterFailure, err)
	}
	if err := p.f.Sync(); err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, types.ErrWriterFailure, err)
	}
	if err := p.f.Close(); err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, types.ErrWriterFailure, err)
	}
	// CreateTemp uses 0600
	if err := os.Chmod(p.f.Name(), 0o644); err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, types.ErrWriterFailure, err)
	}
	if err := os.Rename(p.f.Name(), p.dest); err != nil {
		return fmt.Errorf("%s: %w: %w", errCtx, types.ErrWriterFailure, err)
	}

	p.f, p.bw = nil, nil
	return nil
}

func (p *pending) discard() error {
	if p.f == nil {
		return nil
	}
	name := p.f.Name()
	_ = p.f.Close()
	p.f, p.bw = nil, nil
	if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", types.ErrWriterFailure, err)
	}
	return nil
}
