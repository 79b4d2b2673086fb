// Package hasher computes streaming content digests of single files.
package hasher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"DirectoryHasher/internal/types"
)

const defaultBufSize = 1 << 20 // 1 MiB

// Hasher produces a HashResult for one path.
type Hasher interface {
	Compute(ctx context.Context, path string) (types.HashResult, error)
}

// FileHasher reads files in fixed-size chunks and checks ctx between chunks.
type FileHasher struct {
	Algorithm types.Algorithm
	BufSize   int
	// OnProgress, if set, receives byte counts as they are hashed. It must not block.
	OnProgress func(n int64)
}

func New(algorithm types.Algorithm, onProgress func(n int64)) (*FileHasher, error) {
	if _, err := newHash(algorithm); err != nil {
		return nil, err
	}
	return &FileHasher{Algorithm: algorithm, BufSize: defaultBufSize, OnProgress: onProgress}, nil
}

func (h *FileHasher) Compute(ctx context.Context, path string) (types.HashResult, error) {
	digest, n, err := fileHashHex(ctx, path, h.Algorithm, h.BufSize, h.OnProgress)
	if err != nil {
		return types.HashResult{}, &types.FileError{Path: path, Op: "hash", Err: err}
	}
	return types.HashResult{FilePath: path, DigestHex: digest, ByteLength: n}, nil
}

func newHash(algorithm types.Algorithm) (hash.Hash, error) {
	switch algorithm {
	case types.SHA256:
		return sha256.New(), nil
	case types.BLAKE3:
		return blake3.New(), nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedAlgorithm, algorithm)
	}
}

// FileHashHex returns the lowercase hex digest of the file at path and the
// number of bytes read.
func FileHashHex(ctx context.Context, path string, algorithm types.Algorithm, onProgress func(n int64)) (string, int64, error) {
	return fileHashHex(ctx, path, algorithm, defaultBufSize, onProgress)
}

func fileHashHex(ctx context.Context, path string, algorithm types.Algorithm, bufSize int, onProgress func(n int64)) (string, int64, error) {
	if err := types.CtxErr(ctx); err != nil {
		return "", 0, err
	}

	h, err := newHash(algorithm)
	if err != nil {
		return "", 0, err
	}

	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return "", 0, types.Classify(err)
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil {
		return "", 0, types.Classify(err)
	}
	if info.IsDir() {
		return "", 0, types.ErrExpectedFile
	}

	if bufSize <= 0 {
		bufSize = defaultBufSize
	}
	buf := make([]byte, bufSize)

	var read int64
	for {
		// partial digests are never returned
		if err := types.CtxErr(ctx); err != nil {
			return "", 0, err
		}

		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", 0, werr
			}
			read += int64(n)
			if onProgress != nil {
				onProgress(int64(n))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", 0, types.Classify(rerr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), read, nil
}
