// SPDX-License-Identifier: MPL-2.0

// Package release resolves the latest stable TGM Plugin Activation release
// from the GitHub Releases API.
//
// The package is organized into two concerns:
//   - github.go: HTTP client for the GitHub Releases API (latest, list)
//   - resolver.go: Resolver that queries the API at most once per process and
//     degrades to a baked-in fallback version on any failure
package release
