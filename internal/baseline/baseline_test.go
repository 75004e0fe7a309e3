// SPDX-License-Identifier: MPL-2.0

package baseline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/themecheck/tgmpalint/internal/issue"
	"github.com/themecheck/tgmpalint/internal/scan"
	"github.com/themecheck/tgmpalint/internal/sniff"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("empty path returns empty baseline", func(t *testing.T) {
		t.Parallel()
		b, err := Load("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Len() != 0 || b.Suppressed("a.php", "upgradeRequired") {
			t.Error("empty baseline should match nothing")
		}
	})

	t.Run("missing file returns empty baseline", func(t *testing.T) {
		t.Parallel()
		b, err := Load(filepath.Join(t.TempDir(), "none.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Len() != 0 {
			t.Errorf("expected 0 entries, got %d", b.Len())
		}
	})

	t.Run("valid file", func(t *testing.T) {
		t.Parallel()
		path := writeTempFile(t, "baseline.toml", `
[[finding]]
path = "inc/class-tgm-plugin-activation.php"
code = "upgradeRequired"

[[finding]]
path = "inc/class-tgm-plugin-activation.php"
code = "upgradeRequired"

[[finding]]
path = "lib/tgmpa.php"
code = "wrongGeneratorChannel"
`)
		b, err := Load(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if b.Len() != 2 {
			t.Errorf("expected 2 unique entries, got %d", b.Len())
		}
		if !b.Suppressed("lib/tgmpa.php", "wrongGeneratorChannel") {
			t.Error("expected entry to be suppressed")
		}
		if b.Suppressed("lib/tgmpa.php", "upgradeRequired") {
			t.Error("code must match as well as path")
		}
	})

	t.Run("invalid TOML", func(t *testing.T) {
		t.Parallel()
		path := writeTempFile(t, "bad.toml", "[[finding")
		_, err := Load(path)
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
		var ae *issue.ActionableError
		if !errors.As(err, &ae) || !ae.HasSuggestions() {
			t.Errorf("expected actionable error with suggestions, got %T", err)
		}
	})

	t.Run("unknown code", func(t *testing.T) {
		t.Parallel()
		path := writeTempFile(t, "unknown.toml", "[[finding]]\npath = \"a.php\"\ncode = \"nope\"\n")
		if _, err := Load(path); !errors.Is(err, ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
	})
}

func TestFromResult_WriteRoundTrip(t *testing.T) {
	t.Parallel()

	res := &scan.Result{
		Files: []scan.FileResult{
			{Path: filepath.Join("lib", "z.php"), Findings: []scan.Located{
				{Finding: sniff.NewFinding(sniff.WrongGeneratorChannel, 3), Path: filepath.Join("lib", "z.php"), Line: 1},
			}},
			{Path: "a.php", Findings: []scan.Located{
				{Finding: sniff.NewFinding(sniff.UpgradeRequired, 3, "2.6.1", "2.5.0"), Path: "a.php", Line: 1},
			}},
		},
		Notices: []sniff.Finding{sniff.NewFinding(sniff.RateLimitReached, 0)},
	}

	b := FromResult(res)
	if b.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", b.Len())
	}
	if b.Entries[0].Path != "a.php" || b.Entries[1].Path != "lib/z.php" {
		t.Errorf("entries not sorted with slash paths: %+v", b.Entries)
	}

	path := filepath.Join(t.TempDir(), "baseline.toml")
	if err := b.Write(path); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# Total: 2 findings") || !strings.Contains(string(data), "[[finding]]") {
		t.Errorf("unexpected baseline file:\n%s", data)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !loaded.Suppressed(filepath.Join("lib", "z.php"), "wrongGeneratorChannel") {
		t.Error("written baseline should suppress its own findings")
	}
	if loaded.Suppressed("", "rateLimitReached") {
		t.Error("notices must not be baselined")
	}
}

func TestSuppressed_NilBaseline(t *testing.T) {
	t.Parallel()

	var b *Baseline
	if b.Suppressed("a.php", "upgradeRequired") || b.Len() != 0 {
		t.Error("nil baseline should match nothing")
	}
}

func TestWrite_MissingDirectory(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing", "baseline.toml")
	err := New([]Entry{{Path: "a.php", Code: "upgradeRequired"}}).Write(path)

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %T: %v", err, err)
	}
	if ae.Operation != "write baseline" || ae.Resource != path || !ae.HasSuggestions() {
		t.Errorf("ActionableError = %+v", ae)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("cause not preserved: %v", err)
	}
}
