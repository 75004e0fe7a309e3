// SPDX-License-Identifier: MPL-2.0

package sniff

// Finding kinds. The zero value is not a valid kind.
const (
	AuthTokenInvalid FindingKind = iota + 1
	RateLimitReached
	VersionUndetermined
	UpgradeRequired
	ConfigurationOptionsWarning
	UseStableVersionRequired
	WrongGeneratorChannel
)

// Finding severities.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type (
	// FindingKind identifies what a Finding reports.
	FindingKind int

	// Severity is fixed per FindingKind.
	Severity string

	// Finding is a structured result handed to a diagnostic sink. Message is a
	// printf template; the sink interpolates Args into it.
	Finding struct {
		Kind    FindingKind
		Pos     int
		Message string
		Args    []string
	}

	kindInfo struct {
		code     string
		severity Severity
		message  string
	}
)

var kindTable = map[FindingKind]kindInfo{
	AuthTokenInvalid: {
		code:     "authTokenInvalid",
		severity: SeverityWarning,
		message:  "The GitHub token you provided is invalid. Using the latest known version of TGMPA instead.",
	},
	RateLimitReached: {
		code:     "rateLimitReached",
		severity: SeverityWarning,
		message:  "The GitHub API rate limit has been reached. Provide a GitHub token to raise the limit. Using the latest known version of TGMPA instead.",
	},
	VersionUndetermined: {
		code:     "versionUndetermined",
		severity: SeverityWarning,
		message:  "TGM Plugin Activation was detected but its version could not be determined. Please make sure you are using the latest version, %s.",
	},
	UpgradeRequired: {
		code:     "upgradeRequired",
		severity: SeverityError,
		message:  "Please upgrade TGM Plugin Activation to the latest version, %s. Detected version: %s.",
	},
	ConfigurationOptionsWarning: {
		code:     "configurationOptions",
		severity: SeverityWarning,
		message:  "The TGMPA configuration options changed in version 2.5.0. When upgrading from %s to %s, review the options passed to tgmpa().",
	},
	UseStableVersionRequired: {
		code:     "useStableVersion",
		severity: SeverityError,
		message:  "Only stable releases of TGM Plugin Activation may be used. Latest stable version: %s. Detected version: %s.",
	},
	WrongGeneratorChannel: {
		code:     "wrongGeneratorChannel",
		severity: SeverityError,
		message:  "TGM Plugin Activation must be downloaded through the Custom TGMPA Generator with WordPress.org selected as the publication channel.",
	},
}

// Kinds returns all finding kinds in declaration order.
func Kinds() []FindingKind {
	return []FindingKind{
		AuthTokenInvalid,
		RateLimitReached,
		VersionUndetermined,
		UpgradeRequired,
		ConfigurationOptionsWarning,
		UseStableVersionRequired,
		WrongGeneratorChannel,
	}
}

// KindByCode returns the kind with the given stable code.
func KindByCode(code string) (FindingKind, bool) {
	for k, info := range kindTable {
		if info.code == code {
			return k, true
		}
	}
	return 0, false
}

// Code returns the stable identifier of the kind, e.g. "upgradeRequired".
func (k FindingKind) Code() string {
	return kindTable[k].code
}

// Severity returns the fixed severity of the kind.
func (k FindingKind) Severity() Severity {
	return kindTable[k].severity
}

// String implements fmt.Stringer.
func (k FindingKind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.code
	}
	return "unknown"
}

// NewFinding creates a Finding of the given kind with its message template.
func NewFinding(kind FindingKind, pos int, args ...string) Finding {
	return Finding{
		Kind:    kind,
		Pos:     pos,
		Message: kindTable[kind].message,
		Args:    args,
	}
}
