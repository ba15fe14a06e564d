package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"ytpub/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Inbox directory", cfg.Paths.InboxDir),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
	}

	if cfg.Cleanup.ArchiveCompleted && strings.TrimSpace(cfg.Paths.ArchiveDir) != "" {
		results = append(results, CheckDirectoryAccess("Archive directory", cfg.Paths.ArchiveDir))
	}

	results = append(results,
		CheckCredentialFile("OAuth client secret", cfg.YouTube.ClientSecretPath),
		CheckCredentialFile("OAuth token", cfg.YouTube.TokenPath),
		CheckFreeSpace("Inbox free space", cfg.Paths.InboxDir, cfg.Upload.MinFreeSpaceGiB),
	)

	return results
}

// AllPassed reports whether every result in the set passed.
func AllPassed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCredentialFile verifies that a credential file exists and is a regular file.
func CheckCredentialFile(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckFreeSpace verifies that the filesystem holding path has at least
// minGiB gibibytes available. A zero minimum always passes.
func CheckFreeSpace(name, path string, minGiB int) Result {
	if minGiB <= 0 {
		return Result{Name: name, Passed: true, Detail: "no minimum configured"}
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}

	availableBytes := stat.Bavail * uint64(stat.Bsize)
	availableGiB := float64(availableBytes) / (1 << 30)
	if availableBytes < uint64(minGiB)<<30 {
		return Result{
			Name:   name,
			Detail: fmt.Sprintf("%.1f GiB available, %d GiB required", availableGiB, minGiB),
		}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%.1f GiB available", availableGiB)}
}
