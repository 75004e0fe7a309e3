// SPDX-License-Identifier: MPL-2.0

package sniff

import (
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

// Generator targets and publication channels recognized in a provenance string.
const (
	TargetParentTheme TargetKind = "parent theme"
	TargetChildTheme  TargetKind = "child theme"
	TargetPlugin      TargetKind = "plugin"

	ChannelWordPressOrg Channel = "WordPress.org"
	ChannelThemeForest  Channel = "ThemeForest"
)

const (
	provenanceTargetSep  = " for "
	provenanceChannelSep = " for publication on "
)

type (
	// TargetKind is the kind of project the generator configured TGMPA for.
	TargetKind string

	// Channel is the publication channel the generator configured TGMPA for.
	Channel string

	// VersionSpec is the version found at the start of a "@version" value.
	VersionSpec struct {
		// Numeric is the dotted-numeric part as written, e.g. "2.6.0".
		Numeric string
		// Prerelease is the label after "-", e.g. "beta1". Empty for stable.
		Prerelease string
		// Raw is Numeric plus the optional "-Prerelease" suffix.
		Raw string

		parts [3]int
	}

	// GeneratorProvenance is the full "@version" value written by the TGMPA
	// custom generator:
	//
	//	2.6.1 for parent theme Twenty for publication on WordPress.org
	GeneratorProvenance struct {
		DeclaredVersion string
		Target          TargetKind
		TargetName      string
		Channel         Channel
	}
)

var targetKinds = []TargetKind{TargetParentTheme, TargetChildTheme, TargetPlugin}

// ParseVersion reads a version from the start of s. It accepts two or three
// dot-separated numbers optionally followed by "-label". The boolean is false
// when s does not start with a dotted-numeric version.
func ParseVersion(s string) (VersionSpec, bool) {
	s = strings.TrimSpace(s)

	var v VersionSpec
	i, n := 0, 0
	for n < 3 {
		start := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == start {
			if n > 0 {
				// Trailing dot with nothing after it: drop the dot.
				i--
			}
			break
		}
		num, err := strconv.Atoi(s[start:i])
		if err != nil {
			return VersionSpec{}, false
		}
		v.parts[n] = num
		n++
		if n == 3 || i >= len(s) || s[i] != '.' {
			break
		}
		i++
	}
	if n < 2 {
		return VersionSpec{}, false
	}
	v.Numeric = s[:i]

	if i+1 < len(s) && s[i] == '-' {
		j := i + 1
		for j < len(s) && isLabelChar(s[j]) {
			j++
		}
		label := strings.TrimRight(s[i+1:j], ".-")
		if label != "" {
			v.Prerelease = label
			i += 1 + len(label)
		}
	}
	v.Raw = s[:i]
	return v, true
}

func isLabelChar(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '.' || c == '-'
}

// String returns the version as written.
func (v VersionSpec) String() string {
	return v.Raw
}

// semver returns the canonical "vMAJOR.MINOR.PATCH[-label]" form. Labels that
// are not valid semantic-version pre-release identifiers are dropped.
func (v VersionSpec) semver() string {
	base := "v" + strconv.Itoa(v.parts[0]) + "." + strconv.Itoa(v.parts[1]) + "." + strconv.Itoa(v.parts[2])
	if v.Prerelease != "" {
		if withLabel := base + "-" + v.Prerelease; semver.IsValid(withLabel) {
			return withLabel
		}
	}
	return base
}

// Compare returns -1, 0 or +1 depending on whether v precedes, equals or
// follows other in semantic-version order. Pre-release versions precede the
// release they lead up to.
func (v VersionSpec) Compare(other VersionSpec) int {
	return semver.Compare(v.semver(), other.semver())
}

// ParseProvenance parses a full generator "@version" value. The boolean is
// false when the value does not follow the generator format. Runs of
// whitespace are treated as single spaces.
func ParseProvenance(s string) (GeneratorProvenance, bool) {
	s = strings.Join(strings.Fields(s), " ")

	v, ok := ParseVersion(s)
	if !ok {
		return GeneratorProvenance{}, false
	}
	rest, ok := strings.CutPrefix(s[len(v.Raw):], provenanceTargetSep)
	if !ok {
		return GeneratorProvenance{}, false
	}

	var target TargetKind
	for _, kind := range targetKinds {
		if after, found := strings.CutPrefix(rest, string(kind)+" "); found {
			target = kind
			rest = after
			break
		}
	}
	if target == "" {
		return GeneratorProvenance{}, false
	}

	idx := strings.LastIndex(rest, provenanceChannelSep)
	if idx <= 0 {
		return GeneratorProvenance{}, false
	}
	name := rest[:idx]
	channel := Channel(rest[idx+len(provenanceChannelSep):])
	if channel != ChannelWordPressOrg && channel != ChannelThemeForest {
		return GeneratorProvenance{}, false
	}

	return GeneratorProvenance{
		DeclaredVersion: v.Raw,
		Target:          target,
		TargetName:      name,
		Channel:         channel,
	}, true
}
