// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling and the catalog of documented
// problems behind `tgmpalint explain`.
//
// ActionableError carries an operation, a resource and remediation steps for
// failures of the tool itself. The catalog holds Markdown guidance, rendered with
// glamour, for every finding code and for the tool's own failure modes.
package issue
