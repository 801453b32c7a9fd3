package datastore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnWrite(t *testing.T) {
	path := newSourcePath(t)
	writeSource(t, path, usersCSV(2), 0)
	store := New(path)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, store, logger) }()

	// Give the watcher a moment to register before writing.
	time.Sleep(50 * time.Millisecond)
	writeSource(t, path, usersCSV(9), time.Minute)

	require.Eventually(t, func() bool {
		return store.Stats().Rows == 9
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	t.Parallel()
	store := New("/nonexistent-dir-for-watch-test/users.csv")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	err := Watch(context.Background(), store, logger)
	require.Error(t, err)
}
