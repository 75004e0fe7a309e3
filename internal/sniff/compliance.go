// SPDX-License-Identifier: MPL-2.0

package sniff

var configFormatChange, _ = ParseVersion(ConfigFormatChangeVersion)

// Evaluate checks an applicable TGMPA doc block against the latest stable
// version and the generator provenance rules, reporting findings at pos.
// The boolean is false, with no findings, when the "@version" value does not
// start with a version number or latest cannot be parsed; callers treat such
// a block as not applicable.
//
// Findings are ordered UpgradeRequired, ConfigurationOptionsWarning,
// UseStableVersionRequired, WrongGeneratorChannel. UpgradeRequired and
// UseStableVersionRequired never occur together.
func Evaluate(tags DocTagSet, latest string, pos int) ([]Finding, bool) {
	raw := tags["version"]
	found, ok := ParseVersion(raw)
	if !ok {
		return nil, false
	}
	current, ok := ParseVersion(latest)
	if !ok {
		return nil, false
	}

	var findings []Finding
	switch current.Compare(found) {
	case 1:
		findings = append(findings, NewFinding(UpgradeRequired, pos, current.Raw, found.Raw))
		// Only installs that predate the options format change need the
		// configuration warning.
		if configFormatChange.Compare(found) > 0 {
			findings = append(findings, NewFinding(ConfigurationOptionsWarning, pos, found.Raw, current.Raw))
		}
	case -1:
		findings = append(findings, NewFinding(UseStableVersionRequired, pos, current.Raw, found.Raw))
	}

	if prov, ok := ParseProvenance(raw); !ok || prov.Channel != ChannelWordPressOrg {
		findings = append(findings, NewFinding(WrongGeneratorChannel, pos))
	}

	return findings, true
}
