package daemon

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ytpub/internal/assets"
	"ytpub/internal/config"
	"ytpub/internal/queue"
	"ytpub/internal/stage"
	"ytpub/internal/workflow"
)

type idleStage struct{}

func (idleStage) Prepare(ctx context.Context, item *queue.Item) error { return nil }

func (idleStage) Execute(ctx context.Context, item *queue.Item) error {
	item.Status = queue.StatusCompleted
	return nil
}

func (idleStage) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy("idle")
}

func daemonTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()
	cfg.Paths.InboxDir = filepath.Join(root, "inbox")
	cfg.Paths.ArchiveDir = filepath.Join(root, "archive")
	cfg.Paths.ReviewDir = filepath.Join(root, "review")
	cfg.Paths.DataDir = filepath.Join(root, "data")
	cfg.Paths.LogDir = filepath.Join(root, "logs")
	cfg.Workflow.QueuePollInterval = 1
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	return &cfg
}

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	manager := workflow.NewManager(cfg, store, idleStage{}, nil, nil)
	d, err := New(cfg, store, nil, manager)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := daemonTestConfig(t)
	d := newTestDaemon(t, cfg)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Running() {
		t.Fatal("daemon not marked running")
	}
	if err := d.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}

	d.Stop()
	if d.Running() {
		t.Fatal("daemon still running after Stop")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := daemonTestConfig(t)
	first := newTestDaemon(t, cfg)
	second := newTestDaemon(t, cfg)

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer first.Stop()

	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance acquired the lock")
	}
}

func TestDaemonStartResetsStuckItems(t *testing.T) {
	cfg := daemonTestConfig(t)
	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	item := &queue.Item{
		FolderPath: filepath.Join(cfg.Paths.InboxDir, "orphan"),
		VideoPath:  filepath.Join(cfg.Paths.InboxDir, "orphan", "clip.mp4"),
		Status:     queue.StatusUploading,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := insertRaw(t, store, item); err != nil {
		t.Fatal(err)
	}

	manager := workflow.NewManager(cfg, store, idleStage{}, nil, nil)
	d, err := New(cfg, store, nil, manager)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		uploading, err := store.List(context.Background(), queue.StatusUploading)
		if err != nil {
			t.Fatal(err)
		}
		if len(uploading) == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("stuck uploading item was not reset")
}

func insertRaw(t *testing.T, store *queue.Store, item *queue.Item) error {
	t.Helper()
	folder := assets.Folder{Dir: item.FolderPath, VideoPath: item.VideoPath}
	stored, created, err := store.NewFolder(context.Background(), folder, item.Title)
	if err != nil {
		return err
	}
	if !created {
		t.Fatal("expected fresh insert")
	}
	stored.Status = item.Status
	return store.Update(context.Background(), stored)
}
