// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

const testDebounce = 80 * time.Millisecond

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// startWatcher runs w in the background and returns a stop function that
// cancels it and checks Run's result.
func startWatcher(t *testing.T, w *Watcher) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()
	// Let the event loop start before the test writes files.
	time.Sleep(30 * time.Millisecond)
	return func() {
		cancel()
		if err := <-errCh; err != nil {
			t.Errorf("Run() error: %v", err)
		}
	}
}

func waitChanged(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	select {
	case changed := <-ch:
		return changed
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for re-scan")
		return nil
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cfg      Config
		wantErrs int
	}{
		{"valid", Config{Roots: []string{"."}, Include: []string{"**/*.php"}}, 0},
		{"no roots", Config{}, 1},
		{"blank root", Config{Roots: []string{"  "}}, 1},
		{"bad include", Config{Roots: []string{"."}, Include: []string{"[php"}}, 1},
		{"empty exclude", Config{Roots: []string{"."}, Exclude: []string{""}}, 1},
		{"everything wrong", Config{Roots: []string{""}, Include: []string{"["}, Exclude: []string{""}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErrs == 0 {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			var cfgErr *InvalidConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *InvalidConfigError", err)
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Error("error should wrap ErrInvalidConfig")
			}
			if len(cfgErr.FieldErrors) != tt.wantErrs {
				t.Errorf("got %d field errors, want %d: %v", len(cfgErr.FieldErrors), tt.wantErrs, cfgErr.FieldErrors)
			}
		})
	}
}

func TestRelevant(t *testing.T) {
	t.Parallel()

	base := filepath.Join(string(filepath.Separator), "themes", "acme")
	single := filepath.Join(string(filepath.Separator), "plugins", "x", "tgmpa.php")
	w := &Watcher{
		cfg:     Config{Include: []string{"**/*.php"}},
		ignores: append(DefaultIgnores(), "**/vendor/**"),
		roots:   []root{{dir: base}, {dir: filepath.Dir(single), file: single}},
	}

	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(base, "functions.php"), true},
		{filepath.Join(base, "inc", "class-tgm-plugin-activation.php"), true},
		{filepath.Join(base, "style.css"), false},
		{filepath.Join(base, "vendor", "lib", "a.php"), false},
		{filepath.Join(base, ".git", "index.php"), false},
		{filepath.Join(base, "inc", "a.php.swp"), false},
		{single, true},
		{filepath.Join(filepath.Dir(single), "other.php"), false},
		{filepath.Join(string(filepath.Separator), "themes", "other", "functions.php"), false},
	}
	for _, tt := range tests {
		if got := w.relevant(tt.path); got != tt.want {
			t.Errorf("relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWatcher_DebouncedRescan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "inc", "keep.php"), "<?php")

	changes := make(chan []string, 10)
	w, err := New(Config{
		Roots:    []string{dir},
		Include:  []string{"**/*.php"},
		Debounce: testDebounce,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	for _, name := range []string{"functions.php", "inc/class-tgm-plugin-activation.php", "readme.txt"} {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(name)), "<?php // "+name)
		time.Sleep(10 * time.Millisecond)
	}

	changed := waitChanged(t, changes)
	if !slices.IsSorted(changed) {
		t.Errorf("changed files not sorted: %v", changed)
	}
	abs, _ := filepath.Abs(dir)
	for _, want := range []string{
		filepath.Join(abs, "functions.php"),
		filepath.Join(abs, "inc", "class-tgm-plugin-activation.php"),
	} {
		if !slices.Contains(changed, want) {
			t.Errorf("expected %q in %v", want, changed)
		}
	}
	if slices.Contains(changed, filepath.Join(abs, "readme.txt")) {
		t.Error("non-PHP file triggered a re-scan")
	}

	select {
	case extra := <-changes:
		t.Errorf("expected a single callback, got another with %v", extra)
	case <-time.After(3 * testDebounce):
	}
}

func TestWatcher_ExcludedDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "vendor", "lib", "a.php"), "<?php")

	changes := make(chan []string, 10)
	w, err := New(Config{
		Roots:    []string{dir},
		Include:  []string{"**/*.php"},
		Exclude:  []string{"**/vendor/**"},
		Debounce: testDebounce,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	writeFile(t, filepath.Join(dir, "vendor", "lib", "a.php"), "<?php // changed")
	time.Sleep(3 * testDebounce)
	writeFile(t, filepath.Join(dir, "functions.php"), "<?php")

	changed := waitChanged(t, changes)
	if len(changed) != 1 || filepath.Base(changed[0]) != "functions.php" {
		t.Errorf("changed = %v, want only functions.php", changed)
	}
}

func TestWatcher_FileRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "class-tgm-plugin-activation.php")
	writeFile(t, target, "<?php")

	changes := make(chan []string, 10)
	w, err := New(Config{
		Roots:    []string{target},
		Debounce: testDebounce,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	writeFile(t, filepath.Join(dir, "sibling.php"), "<?php")
	time.Sleep(3 * testDebounce)
	writeFile(t, target, "<?php // v2")

	changed := waitChanged(t, changes)
	abs, _ := filepath.Abs(target)
	if len(changed) != 1 || changed[0] != abs {
		t.Errorf("changed = %v, want [%s]", changed, abs)
	}
}

func TestWatcher_NewDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	changes := make(chan []string, 10)
	w, err := New(Config{
		Roots:    []string{dir},
		Include:  []string{"**/*.php"},
		Debounce: testDebounce,
		OnChange: func(_ context.Context, changed []string) error {
			changes <- changed
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	if err := os.Mkdir(filepath.Join(dir, "inc"), 0o755); err != nil {
		t.Fatal(err)
	}
	// The directory must be registered before the file is written.
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "inc", "tgmpa.php"), "<?php")

	deadline := time.After(5 * time.Second)
	for {
		select {
		case changed := <-changes:
			for _, c := range changed {
				if filepath.Base(c) == "tgmpa.php" {
					return
				}
			}
		case <-deadline:
			t.Fatal("file in new directory never triggered a re-scan")
		}
	}
}

func TestWatcher_CallbackErrorKeepsWatching(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	calls := make(chan struct{}, 10)
	w, err := New(Config{
		Roots:    []string{dir},
		Debounce: testDebounce,
		OnChange: func(context.Context, []string) error {
			calls <- struct{}{}
			return errors.New("scan failed")
		},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	for i := range 2 {
		writeFile(t, filepath.Join(dir, "a.php"), "<?php // "+string(rune('a'+i)))
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatalf("callback %d not invoked", i+1)
		}
	}
}

func TestWatcher_MissingRoot(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Roots: []string{filepath.Join(t.TempDir(), "gone")}}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestWatcher_DoubleRun(t *testing.T) {
	t.Parallel()

	w, err := New(Config{Roots: []string{t.TempDir()}, Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	stop := startWatcher(t, w)
	defer stop()

	if err := w.Run(context.Background()); err == nil {
		t.Error("second Run() should fail")
	}
}

func TestDefaultIgnores_ReturnsCopy(t *testing.T) {
	t.Parallel()

	a := DefaultIgnores()
	a[0] = "mutated"
	if DefaultIgnores()[0] == "mutated" {
		t.Error("DefaultIgnores must return a copy")
	}
}
