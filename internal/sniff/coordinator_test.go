// SPDX-License-Identifier: MPL-2.0

package sniff

import (
	"slices"
	"testing"
)

// libraryFile builds a source that looks like class-tgm-plugin-activation.php
// under a neutral file name, detected through its class declaration.
func libraryFile(name, version string) *fakeSource {
	src := newFakeSource(name)
	src.addBlock(10, "package", "TGM-Plugin-Activation", "version", version, "author", "Thomas Griffin")
	src.addToken(KindClass, 100, "TGM_Plugin_Activation")
	src.addToken(KindConstant, 110, "TGMPA_VERSION")
	src.addToken(KindFunction, 500, "tgmpa")
	src.boundary = 100
	return src
}

func TestScanFile_ClassifierIsAGate(t *testing.T) {
	t.Parallel()

	src := newFakeSource("functions.php")
	src.addBlock(10, "package", "TGM-Plugin-Activation", "version", "1.0.0")
	src.addToken(KindCall, 50, "tgmpa_register")
	src.addToken(KindClass, 100, "My_Theme")

	state := NewScanState("2.6.1", ResolverNone)
	if got := ScanFile(state, src); len(got) != 0 {
		t.Errorf("expected no findings for a non-library file, got %v", kindsOf(got))
	}
	if state.FilesChecked() != 0 {
		t.Errorf("FilesChecked() = %d, want 0", state.FilesChecked())
	}
}

func TestScanFile_Outdated(t *testing.T) {
	t.Parallel()

	src := libraryFile("inc/tgmpa.php", "2.4.0"+wporgSuffix)
	state := NewScanState("2.5.0", ResolverNone)

	got := ScanFile(state, src)
	want := []FindingKind{UpgradeRequired, ConfigurationOptionsWarning}
	if !slices.Equal(kindsOf(got), want) {
		t.Fatalf("kinds = %v, want %v", kindsOf(got), want)
	}
	// The @version marker is the second tag of the block starting at 10.
	if got[0].Pos != 13 {
		t.Errorf("finding reported at %d, want the @version marker at 13", got[0].Pos)
	}
	if !state.Checked("inc/tgmpa.php") {
		t.Error("file should be marked as checked")
	}
}

func TestScanFile_DetectedByFileName(t *testing.T) {
	t.Parallel()

	src := newFakeSource("lib/class-tgm-plugin-activation.php")
	src.addBlock(10, "package", "TGM-Plugin-Activation", "version", "2.6.1"+wporgSuffix)

	state := NewScanState("2.6.1", ResolverNone)
	if got := ScanFile(state, src); len(got) != 0 {
		t.Errorf("expected no findings for a current library file, got %v", kindsOf(got))
	}
	if !state.Checked(src.name) {
		t.Error("file should be marked as checked")
	}
}

func TestScanFile_VersionUndetermined(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(src *fakeSource)
	}{
		{"no doc blocks", func(*fakeSource) {}},
		{"plain comment", func(src *fakeSource) {
			src.blocks = append(src.blocks, DocBlock{Start: 5, End: 9})
			src.strings[6] = "Plugin installation and activation for WordPress themes."
		}},
		{"example subpackage", func(src *fakeSource) {
			src.addBlock(10, "package", "TGM-Plugin-Activation", "subpackage", "Example", "version", "2.6.1"+wporgSuffix)
		}},
		{"unparseable version", func(src *fakeSource) {
			src.addBlock(10, "package", "TGM-Plugin-Activation", "version", "trunk")
		}},
		{"block after the class declaration", func(src *fakeSource) {
			src.addBlock(200, "package", "TGM-Plugin-Activation", "version", "2.6.1"+wporgSuffix)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src := newFakeSource("inc/tgmpa.php")
			tt.setup(src)
			src.addToken(KindClass, 100, "TGM_Plugin_Activation")
			src.addToken(KindFunction, 500, "tgmpa")
			src.boundary = 100

			state := NewScanState("2.6.1", ResolverNone)
			got := ScanFile(state, src)
			if len(got) != 1 || got[0].Kind != VersionUndetermined {
				t.Fatalf("kinds = %v, want [VersionUndetermined]", kindsOf(got))
			}
			if got[0].Pos != 100 {
				t.Errorf("reported at %d, want the class declaration at 100", got[0].Pos)
			}
			if !slices.Equal(got[0].Args, []string{"2.6.1"}) {
				t.Errorf("args = %v, want [2.6.1]", got[0].Args)
			}
		})
	}
}

func TestScanFile_SkipsToNextApplicableBlock(t *testing.T) {
	t.Parallel()

	src := newFakeSource("inc/tgmpa.php")
	src.addBlock(10, "package", "MyTheme", "version", "1.0.0")
	src.addBlock(30, "package", "TGM-Plugin-Activation", "subpackage", "Example", "version", "2.0.0")
	src.addBlock(50, "package", "TGM-Plugin-Activation", "version", "2.5.0 for plugin MyPlugin for publication on ThemeForest")
	src.addToken(KindClass, 100, "TGM_Plugin_Activation")
	src.boundary = 100

	got := ScanFile(NewScanState("2.5.0", ResolverNone), src)
	if !slices.Equal(kindsOf(got), []FindingKind{WrongGeneratorChannel}) {
		t.Errorf("kinds = %v, want [WrongGeneratorChannel]", kindsOf(got))
	}
}

func TestProcess_ResolvedFileIsIdempotent(t *testing.T) {
	t.Parallel()

	src := libraryFile("inc/tgmpa.php", "2.0.0")
	state := NewScanState("2.6.1", ResolverNone)

	first := ScanFile(state, src)
	if len(first) == 0 {
		t.Fatal("expected findings on the first scan")
	}
	if again := ScanFile(state, src); len(again) != 0 {
		t.Errorf("second scan produced %v", kindsOf(again))
	}
	for _, tok := range src.Tokens() {
		if got := Process(state, src, tok); len(got) != 0 {
			t.Errorf("Process(%v) on a resolved file produced %v", tok.Kind, kindsOf(got))
		}
	}
	if state.FilesChecked() != 1 {
		t.Errorf("FilesChecked() = %d, want 1", state.FilesChecked())
	}
}

func TestProcess_ResolverNoticeOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		notice ResolverNotice
		want   FindingKind
	}{
		{ResolverRateLimited, RateLimitReached},
		{ResolverAuthInvalid, AuthTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.notice.String(), func(t *testing.T) {
			t.Parallel()

			state := NewScanState("2.6.1", tt.notice)
			plain := newFakeSource("style.php")

			got := Process(state, plain, Token{Kind: KindFileStart})
			if len(got) != 1 || got[0].Kind != tt.want || got[0].Pos != 0 {
				t.Fatalf("first call = %+v, want one %s at 0", got, tt.want)
			}
			if again := Process(state, plain, Token{Kind: KindFileStart}); len(again) != 0 {
				t.Errorf("second call = %v, want none", kindsOf(again))
			}

			// Later files never see the notice again.
			lib := libraryFile("inc/tgmpa.php", "2.6.1"+wporgSuffix)
			if got := ScanFile(state, lib); len(got) != 0 {
				t.Errorf("library scan = %v, want none", kindsOf(got))
			}
		})
	}
}

func TestProcess_NoticeWithoutPendingError(t *testing.T) {
	t.Parallel()

	state := NewScanState("2.6.1", ResolverNone)
	if got := Process(state, newFakeSource("a.php"), Token{Kind: KindFileStart}); len(got) != 0 {
		t.Errorf("got %v, want none", kindsOf(got))
	}
}
