// SPDX-License-Identifier: MPL-2.0

// Package scan discovers PHP files and runs the TGMPA checks over them.
//
// A Runner resolves the latest upstream version once, creates one
// sniff.ScanState per run and feeds every discovered file through the
// coordinator with a bounded worker pool.
package scan
