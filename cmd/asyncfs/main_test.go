package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brettbedarf/asyncfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The CLI initializes the global logger, so these tests do not run in parallel.

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var out bytes.Buffer
	err := execute(ctx, &out, append([]string{"--verbose", "1"}, args...))
	return out.String(), err
}

func TestStatCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	out, err := runCLI(t, "stat", path)
	require.NoError(t, err)

	var st asyncfs.Stat
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, int64(5), st.Size)
	assert.True(t, st.IsFile)
	assert.Contains(t, out, `"is_file": true`)
}

func TestStatCommandMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")
	_, err := runCLI(t, "stat", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENOENT")
	assert.Contains(t, err.Error(), missing)
}

func TestLsCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	out, err := runCLI(t, "ls", dir)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, out, "FILE    file")
	assert.Contains(t, out, "DIR     sub")
}

func TestCatCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	data := bytes.Repeat([]byte("0123456789abcdef"), copyChunk/8)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	out, err := runCLI(t, "cat", path)
	require.NoError(t, err)
	assert.Equal(t, string(data), out)
}

func TestCpCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	data := bytes.Repeat([]byte("x"), copyChunk+123)
	require.NoError(t, os.WriteFile(src, data, 0o600))

	_, err := runCLI(t, "cp", src, dst)
	require.NoError(t, err)
	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDirectoryCommands(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")

	_, err := runCLI(t, "mkdir", "-m", "0700", sub)
	require.NoError(t, err)
	info, err := os.Stat(sub)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = runCLI(t, "mkdir", "-m", "rwx", filepath.Join(dir, "bad"))
	var inErr *asyncfs.InputError
	require.ErrorAs(t, err, &inErr)

	moved := filepath.Join(dir, "moved")
	_, err = runCLI(t, "mv", sub, moved)
	require.NoError(t, err)

	_, err = runCLI(t, "rm", moved)
	require.NoError(t, err)
	_, err = os.Stat(moved)
	assert.True(t, os.IsNotExist(err))
}

func TestFileCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")

	_, err := runCLI(t, "touch", "-t", "1234567890", path)
	require.NoError(t, err)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1234567890), info.ModTime().Unix())

	_, err = runCLI(t, "chmod", "600", path)
	require.NoError(t, err)
	info, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	link := filepath.Join(dir, "link")
	_, err = runCLI(t, "ln", "-s", path, link)
	require.NoError(t, err)
	out, err := runCLI(t, "readlink", link)
	require.NoError(t, err)
	assert.Equal(t, path+"\n", out)

	hard := filepath.Join(dir, "hard")
	_, err = runCLI(t, "ln", path, hard)
	require.NoError(t, err)

	for _, p := range []string{link, hard, path} {
		_, err = runCLI(t, "rm", p)
		require.NoError(t, err)
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConfigFileAndMetricsFlag(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("workers: 2\nverbose: 1\n"), 0o644))

	out, err := runCLI(t, "--config", cfgPath, "--metrics-addr", "127.0.0.1:0", "ls", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "cfg.yaml")

	_, err = runCLI(t, "--config", filepath.Join(dir, "missing.yaml"), "ls", dir)
	assert.Error(t, err)
}

func TestWatchCommand(t *testing.T) {
	dir := t.TempDir()
	go func() {
		time.Sleep(200 * time.Millisecond)
		os.WriteFile(filepath.Join(dir, "new"), nil, 0o644)
	}()

	out, err := runCLI(t, "watch", "-n", "1", dir)
	if err != nil && strings.Contains(err.Error(), "ENOSYS") {
		t.Skip("watcher unsupported on this platform")
	}
	require.NoError(t, err)
	assert.Equal(t, "rename\tnew\n", out)
}
