package output

import (
	"context"
	"strconv"
	"strings"

	"DirectoryHasher/internal/types"
)

// CSVWriter writes a header line followed by one `path,digest,bytes` line per
// result. Lines end with "\n" and the file is UTF-8.
type CSVWriter struct {
	algorithm types.Algorithm
	out       pending
	line      strings.Builder
}

func NewCSVWriter(path string, algorithm types.Algorithm) *CSVWriter {
	return &CSVWriter{algorithm: algorithm, out: pending{dest: path}}
}

// Header returns the header line without its terminator.
func Header(algorithm types.Algorithm) string {
	return "path," + algorithm.Column() + ",bytes"
}

func (w *CSVWriter) Initialise(ctx context.Context) error {
	if err := types.CtxErr(ctx); err != nil {
		return err
	}
	if err := w.out.open(); err != nil {
		return err
	}
	return w.out.writeString(Header(w.algorithm) + "\n")
}

func (w *CSVWriter) Write(ctx context.Context, r types.HashResult) error {
	w.line.Reset()
	w.line.WriteString(EscapeField(r.FilePath))
	w.line.WriteByte(',')
	w.line.WriteString(r.DigestHex)
	w.line.WriteByte(',')
	w.line.WriteString(strconv.FormatInt(r.ByteLength, 10))
	w.line.WriteByte('\n')
	return w.out.writeString(w.line.String())
}

func (w *CSVWriter) Flush(ctx context.Context) error {
	if err := types.CtxErr(ctx); err != nil {
		return err
	}
	return w.out.commit()
}

func (w *CSVWriter) Close() error {
	return w.out.discard()
}

// EscapeField quotes s when it contains a comma or a double quote, doubling
// any embedded double quotes. Other strings are returned as is.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, ",\"") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func (w *CSVWriter) Owns(path string) bool {
	return w.out.owns(path)
}
