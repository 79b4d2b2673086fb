package output

import (
	"context"

	"github.com/goccy/go-json"

	"DirectoryHasher/internal/types"
)

// Record is one JSON Lines entry.
type Record struct {
	Path      string `json:"path"`
	Algorithm string `json:"algorithm"`
	Digest    string `json:"digest"`
	Bytes     int64  `json:"bytes"`
}

// JSONLWriter writes one JSON object per line.
type JSONLWriter struct {
	algorithm types.Algorithm
	out       pending
}

func NewJSONLWriter(path string, algorithm types.Algorithm) *JSONLWriter {
	return &JSONLWriter{algorithm: algorithm, out: pending{dest: path}}
}

func (w *JSONLWriter) Initialise(ctx context.Context) error {
	if err := types.CtxErr(ctx); err != nil {
		return err
	}
	return w.out.open()
}

func (w *JSONLWriter) Write(ctx context.Context, r types.HashResult) error {
	b, err := json.Marshal(Record{
		Path:      r.FilePath,
		Algorithm: w.algorithm.Column(),
		Digest:    r.DigestHex,
		Bytes:     r.ByteLength,
	})
	if err != nil {
		return err
	}
	return w.out.writeString(string(b) + "\n")
}

func (w *JSONLWriter) Flush(ctx context.Context) error {
	if err := types.CtxErr(ctx); err != nil {
		return err
	}
	return w.out.commit()
}

func (w *JSONLWriter) Close() error {
	return w.out.discard()
}

func (w *JSONLWriter) Owns(path string) bool {
	return w.out.owns(path)
}
