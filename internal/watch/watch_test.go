package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/reqguard/internal/input"
)

func TestNew_NoPaths(t *testing.T) {
	_, err := New(Config{}, func(context.Context, *input.Document) error { return nil })
	assert.Error(t, err)
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for handler")
		return ""
	}
}

func TestRun_InitialAndOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "brd.md")
	other := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("FHA loan, version one."), 0o644))
	require.NoError(t, os.WriteFile(other, []byte("unwatched"), 0o644))

	seen := make(chan string, 10)
	w, err := New(Config{Paths: []string{path}, Debounce: 20 * time.Millisecond}, func(_ context.Context, doc *input.Document) error {
		seen <- doc.Text
		return errors.New("handler errors are logged, not fatal")
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Equal(t, "FHA loan, version one.", waitFor(t, seen))

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(other, []byte("still unwatched"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("FHA loan, version two."), 0o644))
	assert.Equal(t, "FHA loan, version two.", waitFor(t, seen))

	// Rewriting identical content does not re-run the handler.
	require.NoError(t, os.WriteFile(path, []byte("FHA loan, version two."), 0o644))
	select {
	case s := <-seen:
		t.Errorf("unexpected handler call for unchanged content: %q", s)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_BurstOfWritesValidatesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "brd.md")
	require.NoError(t, os.WriteFile(path, []byte("VA loan, draft 0."), 0o644))

	seen := make(chan string, 10)
	w, err := New(Config{Paths: []string{path}, Debounce: 300 * time.Millisecond}, func(_ context.Context, doc *input.Document) error {
		seen <- doc.Text
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	assert.Equal(t, "VA loan, draft 0.", waitFor(t, seen))
	time.Sleep(100 * time.Millisecond)

	// Writes closer together than the debounce keep postponing the flush,
	// so only the last draft is validated.
	for i := 1; i <= 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("VA loan, draft %d.", i)), 0o644))
		time.Sleep(30 * time.Millisecond)
	}
	assert.Equal(t, "VA loan, draft 5.", waitFor(t, seen))

	select {
	case s := <-seen:
		t.Errorf("unexpected extra validation: %q", s)
	case <-time.After(500 * time.Millisecond):
	}
}
