// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

// TestWatcherDebounce verifies that multiple rapid filesystem events are
// coalesced into a single callback invocation containing all changed paths.
func TestWatcherDebounce(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var (
		mu        sync.Mutex
		calls     int
		collected []string
	)

	done := make(chan struct{})

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 100 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls++
			collected = append(collected, changed...)
			close(done)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Write three module files in rapid succession, well within the debounce
	// window.
	for _, name := range []string{"A.psm1", "B.psm1", "C.psm1"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("Invoke"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		// Small pause so events arrive as separate fsnotify events rather
		// than being batched by the OS.
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for callback")
	}

	// Allow a brief settle for any additional spurious callbacks.
	time.Sleep(200 * time.Millisecond)

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if calls != 1 {
		t.Errorf("expected 1 debounced callback, got %d", calls)
	}

	slices.Sort(collected)
	for _, want := range []string{"A.psm1", "B.psm1", "C.psm1"} {
		if !slices.Contains(collected, want) {
			t.Errorf("expected %q in changed files, got %v", want, collected)
		}
	}
}

// TestWatcherDefaultPatterns confirms that with no configured patterns only
// module sources and the descriptor trigger callbacks, while build outputs
// and unrelated files stay silent.
func TestWatcherDefaultPatterns(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, sub := range []string{"src", "dist"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", sub, err)
		}
	}

	events := make(chan []string, 10)

	w, err := New(Config{
		BaseDir:  dir,
		Debounce: 100 * time.Millisecond,
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
		OnChange: func(_ context.Context, changed []string) error {
			events <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Neither build outputs nor unrelated files should fire.
	writes := map[string]string{
		filepath.Join(dir, "dist", "MyModule-1.0.0.zip"): "zip",
		filepath.Join(dir, "notes.md"):                   "notes",
	}
	for path, content := range writes {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	select {
	case changed := <-events:
		t.Fatalf("unexpected callback for %v", changed)
	case <-time.After(400 * time.Millisecond):
	}

	// A module file under src should fire.
	if err := os.WriteFile(filepath.Join(dir, "src", "MyModule.psm1"), []byte("Invoke"), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	select {
	case changed := <-events:
		want := filepath.Join("src", "MyModule.psm1")
		if !slices.Contains(changed, want) {
			t.Errorf("changed = %v, want to contain %q", changed, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for module change callback")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("Run() error: %v", err)
	}
}

func TestWatcherRunTwice(t *testing.T) {
	t.Parallel()

	w, err := New(Config{
		BaseDir: t.TempDir(),
		Stdout:  &bytes.Buffer{},
		Stderr:  &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	// Give the first Run a moment to claim the started flag.
	time.Sleep(50 * time.Millisecond)

	if err := w.Run(ctx); err == nil {
		t.Error("second Run() should return an error")
	}

	cancel()
	if err := <-errCh; err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
}

func TestWatcherInvalidPattern(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{
		BaseDir:  t.TempDir(),
		Patterns: []string{"[invalid"},
		Stdout:   &bytes.Buffer{},
		Stderr:   &bytes.Buffer{},
	}); err == nil {
		t.Error("New() with invalid pattern should fail")
	}
}

func TestDefaultPatternsCovered(t *testing.T) {
	t.Parallel()

	pats := DefaultPatterns()
	for _, want := range []string{"**/*.psm1", "**/*.ps1", "psproj.json"} {
		if !slices.Contains(pats, want) {
			t.Errorf("DefaultPatterns() = %v, want to contain %q", pats, want)
		}
	}

	// Returned slice is a copy.
	pats[0] = "mutated"
	if DefaultPatterns()[0] == "mutated" {
		t.Error("DefaultPatterns() should return a copy")
	}
}
