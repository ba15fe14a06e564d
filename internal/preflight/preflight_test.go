package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ytpub/internal/config"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("dir", dir)
	if !result.Passed {
		t.Fatalf("expected pass for %s: %+v", dir, result)
	}

	result = CheckDirectoryAccess("dir", filepath.Join(dir, "missing"))
	if result.Passed {
		t.Fatalf("expected failure for missing dir: %+v", result)
	}
}

func TestCheckCredentialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "client_secret.json")
	if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
		t.Fatal(err)
	}

	if result := CheckCredentialFile("secret", path); !result.Passed {
		t.Fatalf("expected pass: %+v", result)
	}
	if result := CheckCredentialFile("secret", filepath.Join(dir, "absent.json")); result.Passed {
		t.Fatalf("expected failure: %+v", result)
	}
	if result := CheckCredentialFile("secret", ""); result.Passed {
		t.Fatalf("expected failure for empty path: %+v", result)
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 0); !result.Passed {
		t.Fatalf("zero minimum should pass: %+v", result)
	}
	// No filesystem has this much headroom.
	if result := CheckFreeSpace("space", dir, 1 << 20); result.Passed {
		t.Fatalf("absurd minimum should fail: %+v", result)
	}
}

func TestRunAllReportsFailures(t *testing.T) {
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.InboxDir = filepath.Join(root, "inbox")
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Paths.ReviewDir = filepath.Join(root, "review")
	cfg.YouTube.ClientSecretPath = filepath.Join(root, "absent.json")
	cfg.YouTube.TokenPath = filepath.Join(root, "token.json")

	results := RunAll(context.Background(), &cfg)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if AllPassed(results) {
		t.Fatalf("expected failures with nothing provisioned: %+v", results)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	for _, path := range []string{cfg.YouTube.ClientSecretPath, cfg.YouTube.TokenPath} {
		if err := os.WriteFile(path, []byte("{}"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	cfg.Upload.MinFreeSpaceGiB = 0

	results = RunAll(context.Background(), &cfg)
	if !AllPassed(results) {
		t.Fatalf("expected all checks to pass: %+v", results)
	}
}
