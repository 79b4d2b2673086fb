package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"DirectoryHasher/internal/config"
	"DirectoryHasher/internal/types"
)

func execute(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	}
}

// isolateEnv blanks the DIRHASH_ variables; ApplyEnv ignores empty values.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OUTPUT", "WORKERS", "ALGORITHM", "FAIL_FAST"} {
		t.Setenv(config.EnvPrefix+k, "")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{types.Cancelled(context.Canceled), ExitCancelled},
		{fmt.Errorf("%w: 2 files", types.ErrIncomplete), ExitIncomplete},
		{types.ErrPathNotFound, ExitFatal},
		{errors.New("boom"), ExitFatal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestScan_writesManifest(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello", "b/c.txt": ""})
	dest := filepath.Join(t.TempDir(), "out.csv")

	out, err := execute(t, context.Background(), root, "-o", dest, "-t", "1", "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, out, "2 files hashed")

	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "path,sha256,bytes", lines[0])
	assert.Equal(t, filepath.Join(root, "a.txt")+",2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824,5", lines[1])
}

func TestScan_missingRoot(t *testing.T) {
	isolateEnv(t)
	dest := filepath.Join(t.TempDir(), "out.csv")

	_, err := execute(t, context.Background(), filepath.Join(t.TempDir(), "nope"), "-o", dest, "--no-progress")
	require.ErrorIs(t, err, types.ErrPathNotFound)
	assert.Equal(t, ExitFatal, ExitCode(err))
	assert.NoFileExists(t, dest)
}

func TestScan_requiresPath(t *testing.T) {
	_, err := execute(t, context.Background())
	require.Error(t, err)
}

func TestScan_rejectsUnknownAlgorithm(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, context.Background(), t.TempDir(), "-a", "MD5", "--no-progress")
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestScan_cancelledBeforeStart(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello"})
	dest := filepath.Join(t.TempDir(), "out.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := execute(t, ctx, root, "-o", dest, "--no-progress")
	require.ErrorIs(t, err, types.ErrCancelled)
	assert.Equal(t, ExitCancelled, ExitCode(err))
	assert.Contains(t, out, "cancelled")
	assert.NoFileExists(t, dest)
}

func TestScan_environmentAndFlagPrecedence(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello"})
	envDest := filepath.Join(t.TempDir(), "env.jsonl")
	flagDest := filepath.Join(t.TempDir(), "flag.csv")

	t.Setenv(config.EnvPrefix+"OUTPUT", envDest)
	t.Setenv(config.EnvPrefix+"ALGORITHM", "BLAKE3")

	_, err := execute(t, context.Background(), root, "--no-progress")
	require.NoError(t, err)
	b, err := os.ReadFile(envDest)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"algorithm":"BLAKE3"`)

	_, err = execute(t, context.Background(), root, "-o", flagDest, "-a", "SHA256", "--no-progress")
	require.NoError(t, err)
	b, err = os.ReadFile(flagDest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "path,sha256,bytes\n"))
}

func TestScan_configFile(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"x": "1", "y": "2"})
	dest := filepath.Join(t.TempDir(), "cfg.csv")
	cfgPath := filepath.Join(t.TempDir(), "dirhash.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("output: %s\nworkers: 1\nprogress: false\n", dest)), 0o600))

	_, err := execute(t, context.Background(), root, "--config", cfgPath)
	require.NoError(t, err)
	assert.FileExists(t, dest)
}

func TestVerify_roundTrip(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello", "sub/b.txt": "world", "c,d.txt": "comma"})
	manifest := filepath.Join(t.TempDir(), "hashes.csv")

	_, err := execute(t, context.Background(), root, "-o", manifest, "--no-progress")
	require.NoError(t, err)

	out, err := execute(t, context.Background(), "verify", manifest, "--no-progress")
	require.NoError(t, err)
	assert.NotContains(t, out, "mismatch:")

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("HELLO"), 0o600))
	require.NoError(t, os.Remove(filepath.Join(root, "sub", "b.txt")))

	out, err = execute(t, context.Background(), "verify", manifest, "--no-progress")
	require.ErrorIs(t, err, types.ErrIncomplete)
	assert.Equal(t, ExitIncomplete, ExitCode(err))
	assert.Contains(t, out, "mismatch: "+filepath.Join(root, "a.txt"))
	assert.Contains(t, out, "failed: "+filepath.Join(root, "sub", "b.txt"))
}

func TestVerify_missingManifest(t *testing.T) {
	isolateEnv(t)
	_, err := execute(t, context.Background(), "verify", filepath.Join(t.TempDir(), "none.csv"), "--no-progress")
	require.Error(t, err)
	assert.Equal(t, ExitFatal, ExitCode(err))
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "dirhash "))
}

func TestScan_defaultOutputInsideScannedDirectory(t *testing.T) {
	isolateEnv(t)
	root := t.TempDir()
	writeTree(t, root, map[string]string{"a.txt": "hello", "b/c.txt": "x"})
	t.Chdir(root)

	_, err := execute(t, context.Background(), ".", "-t", "1", "--no-progress")
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(root, "hashes.csv"))
	require.NoError(t, err)

	_, err = execute(t, context.Background(), ".", "-t", "1", "--no-progress")
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(root, "hashes.csv"))
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.Equal(t, 3, strings.Count(string(first), "\n"))

	_, err = execute(t, context.Background(), "verify", "hashes.csv", "--no-progress")
	require.NoError(t, err)
}
