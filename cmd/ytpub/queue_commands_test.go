package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	cfgPath := filepath.Join(root, "config.toml")
	content := fmt.Sprintf(`[paths]
inbox_dir = %q
archive_dir = %q
review_dir = %q
data_dir = %q
log_dir = %q
`,
		filepath.Join(root, "inbox"),
		filepath.Join(root, "archive"),
		filepath.Join(root, "review"),
		filepath.Join(root, "data"),
		filepath.Join(root, "logs"),
	)
	if err := os.WriteFile(cfgPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfgPath
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestQueueListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	output, err := runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(output, "Queue is empty") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestScanThenListShowsItem(t *testing.T) {
	cfgPath := writeTestConfig(t)
	inbox := filepath.Join(filepath.Dir(cfgPath), "inbox", "lecture")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "clip.mp4"), []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox, "clip.json"), []byte(`{"title":"Lecture One"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCommand(t, "--config", cfgPath, "scan")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !strings.Contains(output, "1 queued") {
		t.Fatalf("unexpected scan output: %s", output)
	}

	output, err = runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(output, "Lecture One") || !strings.Contains(output, "pending") {
		t.Fatalf("queued item missing from list: %s", output)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := runCommand(t, "--config", cfgPath, "queue", "list", "--status", "bogus")
	if err == nil || !strings.Contains(err.Error(), "unknown status") {
		t.Fatalf("expected unknown status error, got %v", err)
	}
}

func TestQueueClear(t *testing.T) {
	cfgPath := writeTestConfig(t)
	output, err := runCommand(t, "--config", cfgPath, "queue", "clear")
	if err != nil {
		t.Fatalf("queue clear: %v", err)
	}
	if !strings.Contains(output, "Removed 0 item(s)") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestQueueRetryRejectsBadID(t *testing.T) {
	cfgPath := writeTestConfig(t)
	_, err := runCommand(t, "--config", cfgPath, "queue", "retry", "not-a-number")
	if err == nil || !strings.Contains(err.Error(), "invalid item id") {
		t.Fatalf("expected invalid id error, got %v", err)
	}
}

func TestQueueHealthRenders(t *testing.T) {
	cfgPath := writeTestConfig(t)
	output, err := runCommand(t, "--config", cfgPath, "queue", "health")
	if err != nil {
		t.Fatalf("queue health: %v", err)
	}
	if !strings.Contains(output, "Pending") || !strings.Contains(output, "Total") {
		t.Fatalf("unexpected output: %s", output)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	output, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(output, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %s", output)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected overwrite protection error")
	}
}
