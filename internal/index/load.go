// Package index reads manifests written by a previous scan.
package index

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"DirectoryHasher/internal/output"
	"DirectoryHasher/internal/types"
)

var (
	ErrNoHeader  = errors.New("manifest: missing header")
	ErrBadHeader = errors.New("manifest: unexpected header")
	ErrBadRecord = errors.New("manifest: malformed record")
)

// Load parses a CSV or JSON Lines manifest, chosen by file extension the same
// way the scan chose its writer.
func Load(path string) (run RunInfo, items []FileItem, err error) {
	f, err := os.Open(path) // #nosec G304
	if err != nil {
		return RunInfo{}, nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		run, items, err = loadJSONL(f)
	default:
		run, items, err = loadCSV(f)
	}
	if err != nil {
		return RunInfo{}, nil, fmt.Errorf("loading %s: %w", path, err)
	}

	run.Total = int64(len(items))
	for _, fi := range items {
		run.TotalBytes += fi.Length
	}
	return run, items, nil
}

func loadCSV(r io.Reader) (RunInfo, []FileItem, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return RunInfo{}, nil, ErrNoHeader
	}
	if err != nil {
		return RunInfo{}, nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	if header[0] != "path" || header[2] != "bytes" {
		return RunInfo{}, nil, fmt.Errorf("%w: %q", ErrBadHeader, strings.Join(header, ","))
	}
	alg, err := types.ParseAlgorithm(header[1])
	if err != nil {
		return RunInfo{}, nil, fmt.Errorf("%w: %w", ErrBadHeader, err)
	}
	if output.Header(alg) != strings.Join(header, ",") {
		return RunInfo{}, nil, fmt.Errorf("%w: %q", ErrBadHeader, strings.Join(header, ","))
	}

	items := []FileItem{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return RunInfo{}, nil, fmt.Errorf("%w: %w", ErrBadRecord, err)
		}
		fi, err := newItem(alg, rec[0], rec[1], rec[2])
		if err != nil {
			line, _ := cr.FieldPos(0)
			return RunInfo{}, nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, fi)
	}

	return RunInfo{Algorithm: alg}, items, nil
}

func loadJSONL(r io.Reader) (RunInfo, []FileItem, error) {
	var run RunInfo
	items := []FileItem{}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(strings.TrimSpace(sc.Text())) == 0 {
			continue
		}
		var rec output.Record
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return RunInfo{}, nil, fmt.Errorf("line %d: %w: %w", line, ErrBadRecord, err)
		}
		alg, err := types.ParseAlgorithm(rec.Algorithm)
		if err != nil {
			return RunInfo{}, nil, fmt.Errorf("line %d: %w: %w", line, ErrBadRecord, err)
		}
		if run.Algorithm == "" {
			run.Algorithm = alg
		} else if run.Algorithm != alg {
			return RunInfo{}, nil, fmt.Errorf("line %d: %w: mixed algorithms", line, ErrBadRecord)
		}
		fi, err := newItem(alg, rec.Path, rec.Digest, strconv.FormatInt(rec.Bytes, 10))
		if err != nil {
			return RunInfo{}, nil, fmt.Errorf("line %d: %w", line, err)
		}
		items = append(items, fi)
	}
	if err := sc.Err(); err != nil {
		return RunInfo{}, nil, err
	}
	if run.Algorithm == "" {
		run.Algorithm = types.SHA256
	}
	return run, items, nil
}

func newItem(alg types.Algorithm, path, digest, length string) (FileItem, error) {
	n, err := strconv.ParseInt(length, 10, 64)
	if err != nil || n < 0 {
		return FileItem{}, fmt.Errorf("%w: bad byte count %q", ErrBadRecord, length)
	}
	if len(digest) != alg.HexLen() {
		return FileItem{}, fmt.Errorf("%w: bad digest %q", ErrBadRecord, digest)
	}
	if path == "" {
		return FileItem{}, fmt.Errorf("%w: empty path", ErrBadRecord)
	}
	return FileItem{Path: path, Length: n, Hash: digest}, nil
}
