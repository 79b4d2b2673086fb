package walk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DirectoryHasher/internal/types"
)

func writeTree(t *testing.T, root string, files ...string) []string {
	t.Helper()
	var out []string
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(f), 0o600))
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func drain(ctx context.Context, c Cursor) []string {
	var got []string
	for {
		task, ok := c.Next(ctx)
		if !ok {
			return got
		}
		got = append(got, task.Path)
	}
}

func TestEnumerate_allRegularFiles(t *testing.T) {
	root := t.TempDir()
	want := writeTree(t, root,
		"a.txt",
		"b/c.txt",
		"b/d/e/f.bin",
		"g,h\".txt",
	)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link.txt")))

	c, err := New(2, nil).Enumerate(context.Background(), root)
	require.NoError(t, err)

	got := drain(context.Background(), c)
	sort.Strings(got)

	assert.Equal(t, want, got)
	assert.NoError(t, c.Err())
	for _, p := range got {
		assert.True(t, filepath.IsAbs(p), p)
	}
}

func TestEnumerate_symlinkedRootIsFollowed(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.txt", "b/c.txt")
	require.NoError(t, os.Symlink(filepath.Join(dir, "a.txt"), filepath.Join(dir, "b", "inner-link")))

	link := filepath.Join(t.TempDir(), "link")
	require.NoError(t, os.Symlink(dir, link))

	c, err := New(0, nil).Enumerate(context.Background(), link)
	require.NoError(t, err)

	got := drain(context.Background(), c)
	sort.Strings(got)
	assert.Equal(t, []string{
		filepath.Join(link, "a.txt"),
		filepath.Join(link, "b", "c.txt"),
	}, got)
	assert.NoError(t, c.Err())
}

func TestEnumerate_relativeRootYieldsAbsolutePaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "x/y.txt")
	t.Chdir(root)

	c, err := New(0, nil).Enumerate(context.Background(), "x")
	require.NoError(t, err)

	got := drain(context.Background(), c)
	require.Len(t, got, 1)
	assert.True(t, filepath.IsAbs(got[0]))
}

func TestEnumerate_rootErrors(t *testing.T) {
	dir := t.TempDir()
	file := writeTree(t, dir, "plain.txt")[0]

	tests := []struct {
		name    string
		root    string
		wantErr error
	}{
		{"missing", filepath.Join(dir, "nope"), types.ErrPathNotFound},
		{"not a directory", file, types.ErrNotDirectory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(0, nil).Enumerate(context.Background(), tt.root)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, types.ErrPathNotFound)
			assert.Nil(t, c)
		})
	}
}

func TestEnumerate_concurrentConsumersSeeEachFileOnce(t *testing.T) {
	root := t.TempDir()
	var names []string
	for i := range 200 {
		names = append(names, fmt.Sprintf("d%d/f%03d", i%7, i))
	}
	want := writeTree(t, root, names...)

	c, err := New(4, nil).Enumerate(context.Background(), root)
	require.NoError(t, err)

	var (
		mu  sync.Mutex
		got []string
		wg  sync.WaitGroup
	)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, p := range drain(context.Background(), c) {
				mu.Lock()
				got = append(got, p)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestEnumerate_cancellationStopsTraversal(t *testing.T) {
	root := t.TempDir()
	var names []string
	for i := range 50 {
		names = append(names, fmt.Sprintf("f%03d", i))
	}
	writeTree(t, root, names...)

	ctx, cancel := context.WithCancel(context.Background())
	// queue of one keeps the traversal blocked on send
	c, err := New(1, nil).Enumerate(ctx, root)
	require.NoError(t, err)

	_, ok := c.Next(ctx)
	require.True(t, ok)
	cancel()

	rest := drain(ctx, c)
	assert.Less(t, len(rest), len(names)-1)

	s := c.(*stream)
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		t.Fatal("traversal did not stop after cancellation")
	}
	assert.ErrorIs(t, c.Err(), types.ErrCancelled)
}

func TestEnumerate_unreadableSubdirIsSkipped(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	root := t.TempDir()
	writeTree(t, root, "ok.txt", "locked/hidden.txt")
	want := []string{filepath.Join(root, "ok.txt")}
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	var reported []string
	c, err := New(0, func(path string, err error) {
		reported = append(reported, path)
	}).Enumerate(context.Background(), root)
	require.NoError(t, err)

	got := drain(context.Background(), c)
	assert.Equal(t, want, got)
	assert.Equal(t, []string{locked}, reported)
	assert.NoError(t, c.Err())
}
