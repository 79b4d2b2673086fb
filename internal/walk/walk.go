// Package walk enumerates regular files under a root directory on a
// background goroutine and hands them out through a bounded channel.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mordilloSan/go-logger/logger"

	"DirectoryHasher/internal/types"
)

// DefaultQueueSize is the capacity of the channel between traversal and consumers.
const DefaultQueueSize = 8192

// Walker starts a traversal of root. The returned Cursor is single use.
type Walker interface {
	Enumerate(ctx context.Context, root string) (Cursor, error)
}

// Cursor yields discovered files. Next is safe for concurrent use, so several
// workers can pull from the same cursor. Err is only meaningful once Next has
// returned false.
type Cursor interface {
	Next(ctx context.Context) (types.FileTask, bool)
	Err() error
}

// ChannelWalker traverses with filepath.WalkDir and blocks when its queue is full.
type ChannelWalker struct {
	QueueSize int
	// OnError is called for entries that could not be read. The walk skips them.
	OnError func(path string, err error)
}

func New(queueSize int, onError func(path string, err error)) *ChannelWalker {
	return &ChannelWalker{QueueSize: queueSize, OnError: onError}
}

// Enumerate validates root and starts the traversal. It fails with
// types.ErrPathNotFound or types.ErrNotDirectory before anything is walked.
func (w *ChannelWalker) Enumerate(ctx context.Context, root string) (Cursor, error) {
	const errCtx = "enumerating files"

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w: %s", errCtx, types.ErrPathNotFound, abs)
		}
		return nil, fmt.Errorf("%s: %w", errCtx, types.Classify(err))
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w: %s", errCtx, types.ErrNotDirectory, abs)
	}

	// WalkDir does not follow a symlinked root; a trailing separator makes
	// the Lstat resolve it. Links below the root are still not followed.
	if li, err := os.Lstat(abs); err == nil && li.Mode()&fs.ModeSymlink != 0 {
		abs += string(filepath.Separator)
	}

	size := w.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}

	s := &stream{ch: make(chan types.FileTask, size), done: make(chan struct{})}
	go s.fill(ctx, abs, w.OnError)
	return s, nil
}

type stream struct {
	ch   chan types.FileTask
	done chan struct{}
	err  error // written before done is closed
}

func (s *stream) fill(ctx context.Context, root string, onError func(string, error)) {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if cerr := types.CtxErr(ctx); cerr != nil {
			return cerr
		}
		if err != nil {
			if path == root {
				return err
			}
			logger.Warnf("skipping %s: %v", path, err)
			if onError != nil {
				onError(path, err)
			}
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		// symlinks, devices, sockets and directories are not yielded
		if !d.Type().IsRegular() {
			return nil
		}

		select {
		case s.ch <- types.FileTask{Path: path}:
			return nil
		case <-ctx.Done():
			return types.CtxErr(ctx)
		}
	})
	if err != nil {
		logger.Debugf("walk of %s stopped: %v", root, err)
		s.err = types.Classify(err)
	}
	close(s.done)
	close(s.ch)
}

func (s *stream) Next(ctx context.Context) (types.FileTask, bool) {
	select {
	case t, ok := <-s.ch:
		return t, ok
	case <-ctx.Done():
		return types.FileTask{}, false
	}
}

// Err returns nil while the traversal is still running.
func (s *stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
