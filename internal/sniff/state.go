// SPDX-License-Identifier: MPL-2.0

package sniff

import "sync"

// Resolver notices recorded on a ScanState.
const (
	ResolverNone ResolverNotice = iota
	ResolverAuthInvalid
	ResolverRateLimited
)

type (
	// ResolverNotice is a non-fatal condition met while resolving the latest
	// upstream version. It is reported once per run.
	ResolverNotice int

	// ScanState is the run-scoped state shared by every coordinator call of
	// one run. It is safe for concurrent use by file workers.
	ScanState struct {
		mu          sync.Mutex
		latest      string
		notice      ResolverNotice
		noticeTaken bool
		checked     map[string]bool
	}
)

// NewScanState creates the state for one run. latest is the resolved (or
// fallback) upstream version; it never changes for the rest of the run.
func NewScanState(latest string, notice ResolverNotice) *ScanState {
	return &ScanState{
		latest:  latest,
		notice:  notice,
		checked: make(map[string]bool),
	}
}

// Latest returns the version findings are compared against.
func (s *ScanState) Latest() string {
	return s.latest
}

// FilesChecked returns the number of files confirmed as TGMPA so far.
func (s *ScanState) FilesChecked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checked)
}

// Checked reports whether file was confirmed and resolved.
func (s *ScanState) Checked(file string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checked[file]
}

// claim marks file as resolved. It returns false when the file was already
// resolved earlier in the run.
func (s *ScanState) claim(file string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.checked[file] {
		return false
	}
	s.checked[file] = true
	return true
}

// takeNotice returns the pending resolver notice and clears it. Only the first
// call in a run can return anything but ResolverNone.
func (s *ScanState) takeNotice() ResolverNotice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noticeTaken {
		return ResolverNone
	}
	s.noticeTaken = true
	n := s.notice
	s.notice = ResolverNone
	return n
}

// findingKind maps a notice to the finding that surfaces it.
func (n ResolverNotice) findingKind() (FindingKind, bool) {
	switch n {
	case ResolverAuthInvalid:
		return AuthTokenInvalid, true
	case ResolverRateLimited:
		return RateLimitReached, true
	case ResolverNone:
		return 0, false
	}
	return 0, false
}

// String implements fmt.Stringer.
func (n ResolverNotice) String() string {
	switch n {
	case ResolverAuthInvalid:
		return "auth-invalid"
	case ResolverRateLimited:
		return "rate-limited"
	case ResolverNone:
		return "none"
	}
	return "unknown"
}
