// SPDX-License-Identifier: MPL-2.0

package phptoken

import (
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/themecheck/tgmpalint/internal/sniff"
)

func readFixture(t *testing.T, name string) (string, []byte) {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return path, data
}

func hasToken(tokens []sniff.Token, kind sniff.TokenKind, name string) bool {
	return slices.ContainsFunc(tokens, func(tok sniff.Token) bool {
		return tok.Kind == kind && tok.Name == name
	})
}

func TestParse_VendorFile(t *testing.T) {
	t.Parallel()

	path, data := readFixture(t, "class-tgm-plugin-activation.php")
	f := Parse(path, data)
	src := string(data)

	if f.FileName() != path {
		t.Errorf("FileName() = %q, want %q", f.FileName(), path)
	}

	tokens := f.Tokens()
	if len(tokens) == 0 || tokens[0].Kind != sniff.KindFileStart || tokens[0].Pos != 0 {
		t.Fatalf("first token = %+v, want file start at 0", tokens[0])
	}

	for _, want := range []struct {
		kind sniff.TokenKind
		name string
	}{
		{sniff.KindClass, "TGM_Plugin_Activation"},
		{sniff.KindConstant, "TGMPA_VERSION"},
		{sniff.KindFunction, "register"},
		{sniff.KindFunction, "tgmpa"},
		{sniff.KindCall, "class_exists"},
		{sniff.KindCall, "function_exists"},
		{sniff.KindCall, "call_user_func"},
	} {
		if !hasToken(tokens, want.kind, want.name) {
			t.Errorf("missing %v token %q", want.kind, want.name)
		}
	}
	if hasToken(tokens, sniff.KindClass, "Not_A_Declaration") {
		t.Error("class inside a heredoc must not be a declaration")
	}

	wantBoundary := strings.Index(src, "class TGM_Plugin_Activation {")
	if got := f.ScanBoundary(); got != wantBoundary {
		t.Errorf("ScanBoundary() = %d, want %d", got, wantBoundary)
	}

	blocks := f.DocBlocks()
	if len(blocks) < 2 {
		t.Fatalf("got %d doc blocks, want at least 2", len(blocks))
	}

	header := sniff.ExtractTags(f, blocks[0])
	if got := header["package"]; got != sniff.VendorPackage {
		t.Errorf("@package = %q", got)
	}
	if got, want := header["version"], "2.6.1 for parent theme Twenty Something for publication on WordPress.org"; got != want {
		t.Errorf("@version = %q, want %q", got, want)
	}
	if !header.Applicable() {
		t.Error("file header block should be applicable")
	}

	classDoc := sniff.ExtractTags(f, blocks[1])
	if classDoc.Applicable() {
		t.Errorf("class doc block %v has no version and must not be applicable", classDoc)
	}
	if got := classDoc["author"]; got != "Gary Jones" {
		t.Errorf("@author = %q, want the last duplicate", got)
	}
}

func TestParse_ScanVendorFile(t *testing.T) {
	t.Parallel()

	path, data := readFixture(t, "class-tgm-plugin-activation.php")
	f := Parse(path, data)

	if got := sniff.ScanFile(sniff.NewScanState("2.6.1", sniff.ResolverNone), f); len(got) != 0 {
		t.Errorf("current release produced findings: %+v", got)
	}

	got := sniff.ScanFile(sniff.NewScanState("2.7.0", sniff.ResolverNone), f)
	if len(got) != 1 || got[0].Kind != sniff.UpgradeRequired {
		t.Fatalf("findings = %+v, want one upgradeRequired", got)
	}
	line, col := f.LineCol(got[0].Pos)
	if line != 11 || col != 4 {
		t.Errorf("finding at %d:%d, want 11:4", line, col)
	}
	if !slices.Equal(got[0].Args, []string{"2.7.0", "2.6.1"}) {
		t.Errorf("args = %q", got[0].Args)
	}
}

func TestParse_ThemeFile(t *testing.T) {
	t.Parallel()

	path, data := readFixture(t, "functions.php")
	f := Parse(path, data)
	src := string(data)

	tokens := f.Tokens()
	if want := strings.Index(src, "<?php"); tokens[0].Pos != want {
		t.Errorf("file start at %d, want first open tag at %d", tokens[0].Pos, want)
	}
	for _, tok := range tokens {
		if tok.Kind.IsClassLike() {
			t.Errorf("unexpected class-like token %+v", tok)
		}
	}
	if f.ScanBoundary() != len(data) {
		t.Errorf("ScanBoundary() = %d, want end of file %d", f.ScanBoundary(), len(data))
	}
	if !hasToken(tokens, sniff.KindCall, "tgmpa") || !hasToken(tokens, sniff.KindCall, "add_action") {
		t.Errorf("missing call tokens in %+v", tokens)
	}
	if !hasToken(tokens, sniff.KindFunction, "mytheme_register_required_plugins") {
		t.Error("missing function declaration")
	}

	if got := sniff.ScanFile(sniff.NewScanState("2.6.1", sniff.ResolverNone), f); len(got) != 0 {
		t.Errorf("theme file produced findings: %+v", got)
	}
}

func TestParse_DocComments(t *testing.T) {
	t.Parallel()

	src := "<?php\n/**\n * Summary line.\n *\n * @version   2.6.1\n * @api\n * @package TGM-Plugin-Activation */\n/** @var string */\n$x = 1;\n"
	f := Parse("x.php", []byte(src))

	blocks := f.DocBlocks()
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}

	var names []string
	for _, tag := range blocks[0].Tags {
		names = append(names, tag.Name)
		if !strings.HasPrefix(src[tag.Pos:], "@"+tag.Name) {
			t.Errorf("marker %q at %d points at %q", tag.Name, tag.Pos, src[tag.Pos:tag.Pos+10])
		}
	}
	if want := []string{"version", "api", "package"}; !slices.Equal(names, want) {
		t.Errorf("tags = %q, want %q", names, want)
	}

	tags := sniff.ExtractTags(f, blocks[0])
	want := sniff.DocTagSet{"version": "2.6.1", "package": "TGM-Plugin-Activation"}
	if !maps.Equal(tags, want) {
		t.Errorf("ExtractTags() = %v, want %v", tags, want)
	}

	summary, ok := f.DocStringAfter(blocks[0].Start, blocks[0].End)
	if !ok || summary != "Summary line." {
		t.Errorf("DocStringAfter(start) = %q, %v", summary, ok)
	}

	if got := sniff.ExtractTags(f, blocks[1]); got["var"] != "string" {
		t.Errorf("single-line block tags = %v", got)
	}
}

func TestParse_InlineTags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want sniff.DocTagSet
	}{
		{
			name: "one-line block",
			doc:  "/** @package TGM-Plugin-Activation @version 2.4.0 */",
			want: sniff.DocTagSet{"package": "TGM-Plugin-Activation", "version": "2.4.0"},
		},
		{
			name: "text before the first tag",
			doc:  "/** Bundled copy. @version 2.4.0 @package TGM-Plugin-Activation */",
			want: sniff.DocTagSet{"package": "TGM-Plugin-Activation", "version": "2.4.0"},
		},
		{
			name: "at sign inside a value",
			doc:  "/**\n * @author Jane <jane@example.com>\n * @link https://example.com/@tgmpa\n */",
			want: sniff.DocTagSet{"author": "Jane <jane@example.com>", "link": "https://example.com/@tgmpa"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := Parse("a.php", []byte("<?php\n"+tt.doc+"\nclass TGM_Plugin_Activation {}\n"))
			blocks := f.DocBlocks()
			if len(blocks) != 1 {
				t.Fatalf("got %d blocks, want 1", len(blocks))
			}
			if got := sniff.ExtractTags(f, blocks[0]); !maps.Equal(got, tt.want) {
				t.Errorf("ExtractTags() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_ScanOneLineBlock(t *testing.T) {
	t.Parallel()

	src := "<?php\n/** @package TGM-Plugin-Activation @version 2.4.0 for parent theme My Theme for publication on WordPress.org */\nclass TGM_Plugin_Activation {}\n"
	f := Parse("a.php", []byte(src))

	got := sniff.ScanFile(sniff.NewScanState("2.5.0", sniff.ResolverNone), f)
	if len(got) != 2 || got[0].Kind != sniff.UpgradeRequired || got[1].Kind != sniff.ConfigurationOptionsWarning {
		t.Fatalf("findings = %+v, want upgradeRequired then configurationOptions", got)
	}
	if !slices.Equal(got[0].Args, []string{"2.5.0", "2.4.0"}) {
		t.Errorf("upgrade args = %q", got[0].Args)
	}
	if want := strings.Index(src, "@version"); got[0].Pos != want {
		t.Errorf("finding at %d, want the @version marker at %d", got[0].Pos, want)
	}
}

func TestParse_Declarations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		kind sniff.TokenKind
		want string
	}{
		{"define", "<?php define( 'TGMPA_VERSION', '2.6.1' );", sniff.KindConstant, "TGMPA_VERSION"},
		{"typed constant", "<?php class A { const string TGMPA_VERSION = '1'; }", sniff.KindConstant, "TGMPA_VERSION"},
		{"by-reference function", "<?php function &tgmpa() {}", sniff.KindFunction, "tgmpa"},
		{"namespaced call", "<?php \\Vendor\\tgmpa( $x );", sniff.KindCall, "tgmpa"},
		{"interface", "<?php interface Foo {}", sniff.KindInterface, "Foo"},
		{"trait", "<?php trait Bar {}", sniff.KindTrait, "Bar"},
		{"uppercase keyword", "<?php CLASS Baz {}", sniff.KindClass, "Baz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := Parse("x.php", []byte(tt.src))
			if !hasToken(f.Tokens(), tt.kind, tt.want) {
				t.Errorf("tokens %+v lack %v %q", f.Tokens(), tt.kind, tt.want)
			}
		})
	}
}

func TestParse_NotDeclarations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{"class constant", "<?php echo Foo::class;"},
		{"anonymous class", "<?php $a = new class {};"},
		{"method call", "<?php $a->tgmpa();"},
		{"static call", "<?php Foo::tgmpa();"},
		{"instantiation", "<?php new TGM_Plugin_Activation();"},
		{"string mention", "<?php $a = 'class TGM_Plugin_Activation {}';"},
		{"comment mention", "<?php // class TGM_Plugin_Activation {}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := Parse("x.php", []byte(tt.src))
			for _, tok := range f.Tokens() {
				if tok.Kind.IsClassLike() || tok.Kind == sniff.KindFunction || tok.Name == "tgmpa" {
					t.Errorf("unexpected token %+v", tok)
				}
			}
			if f.ScanBoundary() != len(tt.src) {
				t.Errorf("ScanBoundary() = %d, want %d", f.ScanBoundary(), len(tt.src))
			}
		})
	}
}

func TestFile_LineCol(t *testing.T) {
	t.Parallel()

	src := "<?php\n$a = 1;\n\n  $b;"
	f := Parse("x.php", []byte(src))

	tests := []struct {
		pos       int
		line, col int
	}{
		{0, 1, 1},
		{strings.Index(src, "$a"), 2, 1},
		{strings.Index(src, "$b"), 4, 3},
		{-5, 1, 1},
		{len(src) + 10, 4, 6},
	}
	for _, tt := range tests {
		line, col := f.LineCol(tt.pos)
		if line != tt.line || col != tt.col {
			t.Errorf("LineCol(%d) = %d:%d, want %d:%d", tt.pos, line, col, tt.line, tt.col)
		}
	}
}
