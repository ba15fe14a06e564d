package testsupport

import (
	"context"
	"testing"

	"ytpub/internal/assets"
	"ytpub/internal/config"
	"ytpub/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewQueuedFolder enqueues an asset folder for tests using the provided store.
func NewQueuedFolder(t testing.TB, store *queue.Store, folder assets.Folder, title string) *queue.Item {
	t.Helper()

	item, created, err := store.NewFolder(context.Background(), folder, title)
	if err != nil {
		t.Fatalf("store.NewFolder: %v", err)
	}
	if !created {
		t.Fatalf("folder %s already queued", folder.Dir)
	}
	return item
}
