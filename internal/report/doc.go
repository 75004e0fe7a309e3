// SPDX-License-Identifier: MPL-2.0

// Package report turns scan results into user-facing diagnostics.
//
// A Report is built once per run from a scan.Result. Finding messages are
// interpolated with their arguments and annotated with the severity of their
// kind. Reporters render a Report as styled text, JSON or YAML, and ExitCode
// aggregates the diagnostics into a process exit status.
package report
