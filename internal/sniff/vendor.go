// SPDX-License-Identifier: MPL-2.0

package sniff

// Identifying marks of the vendored TGM Plugin Activation library.
const (
	VendorClassName       = "TGM_Plugin_Activation"
	VendorBootstrapFunc   = "tgmpa"
	VendorVersionConstant = "TGMPA_VERSION"
	// VendorRegisterHook is the callback name themes hook into. Matching on
	// it is reserved; see Classify.
	VendorRegisterHook = "tgmpa_register"

	VendorPackage = "TGM-Plugin-Activation"
	// ExampleSubpackage marks the example configuration file shipped with
	// TGMPA; such blocks are never checked.
	ExampleSubpackage = "Example"

	// ConfigFormatChangeVersion is the release that changed the
	// configuration options format.
	ConfigFormatChangeVersion = "2.5.0"
)

// vendorFileNames are lower-cased basenames the library ships under.
var vendorFileNames = map[string]struct{}{
	"class-tgm-plugin-activation.php": {},
}
