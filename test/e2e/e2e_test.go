package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

var (
	asyncfsBin string
	projRoot   string
)

func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	// Build the CLI binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "asyncfs-bin")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpBinDir)

	asyncfsBin = filepath.Join(tmpBinDir, "asyncfs")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", asyncfsBin, "./cmd/asyncfs")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	return m.Run()
}

// cli runs the binary to completion and returns stdout and stderr.
func cli(t *testing.T, env []string, args ...string) (string, string, error) {
	t.Helper()
	cmd := exec.Command(asyncfsBin, args...)
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

func TestE2EWriteCopyRead(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")
	content := "Hello, asyncfs! This is a simple test file."
	if err := os.WriteFile(src, []byte(content), 0o640); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	if _, stderr, err := cli(t, nil, "cp", src, dst); err != nil {
		t.Fatalf("cp failed: %v\n%s", err, stderr)
	}

	out, stderr, err := cli(t, nil, "cat", dst)
	if err != nil {
		t.Fatalf("cat failed: %v\n%s", err, stderr)
	}
	if out != content {
		t.Fatalf("content mismatch:\nexpected: %q\ngot:      %q", content, out)
	}

	out, stderr, err = cli(t, nil, "stat", dst)
	if err != nil {
		t.Fatalf("stat failed: %v\n%s", err, stderr)
	}
	var st struct {
		Size   int64  `json:"size"`
		Mode   uint32 `json:"mode"`
		IsFile bool   `json:"is_file"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("bad stat output %q: %v", out, err)
	}
	if st.Size != int64(len(content)) || !st.IsFile {
		t.Fatalf("unexpected stat: %+v", st)
	}
	if st.Mode&0o777 != 0o640 {
		t.Fatalf("permission mismatch: expected 640, got %o", st.Mode&0o777)
	}
}

func TestE2EErrors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	_, stderr, err := cli(t, nil, "cat", missing)
	if err == nil {
		t.Fatal("cat of missing file succeeded")
	}
	if !strings.Contains(stderr, "open: ENOENT") || !strings.Contains(stderr, missing) {
		t.Fatalf("unexpected error output: %q", stderr)
	}

	_, stderr, err = cli(t, nil, "mkdir", "-m", "999", missing)
	if err == nil {
		t.Fatal("mkdir with bad mode succeeded")
	}
	if !strings.Contains(stderr, "not an octal mode") {
		t.Fatalf("unexpected error output: %q", stderr)
	}
}

func TestE2EEnvOverride(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "asyncfs.log")

	env := []string{"ASYNCFS_VERBOSE=5", "ASYNCFS_LOG_FILE=" + logFile}
	if _, stderr, err := cli(t, env, "ls", dir); err != nil {
		t.Fatalf("ls failed: %v\n%s", err, stderr)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"component":"FS.scandir"`) {
		t.Fatalf("trace logs missing from %s:\n%s", logFile, data)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()
	return addr
}

func TestE2EMetricsWhileWatching(t *testing.T) {
	dir := t.TempDir()
	addr := freeAddr(t)

	cmd := exec.Command(asyncfsBin, "--metrics-addr", addr, "watch", "-n", "1", dir)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start watch: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	body := scrape(t, "http://"+addr+"/metrics")
	if !strings.Contains(body, "asyncfs_fs_requests_in_flight") {
		t.Fatalf("in-flight gauge missing from metrics:\n%s", body)
	}
	// metrics come up just before the watch is registered
	time.Sleep(500 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "trigger"), nil, 0o644); err != nil {
		t.Fatalf("failed to create trigger: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watch failed: %v", err)
		}
	case <-time.After(10 * time.Second):
		cmd.Process.Kill()
		t.Fatal("watch did not exit after one event")
	}
	if got := stdout.String(); got != "rename\ttrigger\n" {
		t.Fatalf("unexpected watch output: %q", got)
	}
}

// scrape polls url until the server answers.
func scrape(t *testing.T, url string) string {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			defer resp.Body.Close()
			data, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("read metrics: %v", err)
			}
			return string(data)
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics endpoint never came up: %v", err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestE2EHelp(t *testing.T) {
	out, _, err := cli(t, nil, "--help")
	if err != nil {
		t.Fatalf("help failed: %v", err)
	}
	for _, sub := range []string{"stat", "ls", "cat", "cp", "mkdir", "rm", "mv", "chmod", "ln", "readlink", "touch", "watch"} {
		if !strings.Contains(out, fmt.Sprintf("  %s ", sub)) {
			t.Errorf("help output missing %q", sub)
		}
	}
}
