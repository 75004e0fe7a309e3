// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/themecheck/tgmpalint/internal/release"
)

const wporgHeader = `<?php
/**
 * Plugin installation and activation for WordPress themes.
 *
 * @package   TGM-Plugin-Activation
 * @version   %s
 */
class TGM_Plugin_Activation {}
`

func vendorFile(version string) string {
	return strings.Replace(wporgHeader, "%s", version, 1)
}

// writeTree creates files under a temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func defaultFilter() Filter {
	return Filter{
		Include:     []string{"**/*.php"},
		Exclude:     []string{"**/.git/**", "**/node_modules/**", "**/vendor/bin/**"},
		MaxFileSize: 4 << 20,
	}
}

type fixedResolver struct {
	result release.Result
	calls  atomic.Int32
}

func (f *fixedResolver) Resolve(context.Context) release.Result {
	f.calls.Add(1)
	return f.result
}

type countingObserver struct {
	scanned, vendor, findings atomic.Int32
}

func (c *countingObserver) FileScanned()    { c.scanned.Add(1) }
func (c *countingObserver) VendorDetected() { c.vendor.Add(1) }
func (c *countingObserver) Finding(string)  { c.findings.Add(1) }
