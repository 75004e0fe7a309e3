// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/themecheck/tgmpalint/internal/sniff"
)

// Issue ids. The first seven document finding kinds; the rest document
// failures of the tool itself.
const (
	AuthTokenInvalidId Id = iota + 1
	RateLimitReachedId
	VersionUndeterminedId
	UpgradeRequiredId
	ConfigurationOptionsId
	UseStableVersionId
	WrongGeneratorChannelId
	ConfigLoadFailedId
	PathNotFoundId
	BaselineInvalidId
)

const (
	generatorLink HttpLink = "http://tgmpluginactivation.com/download/"
	releasesLink  HttpLink = "https://github.com/TGMPA/TGM-Plugin-Activation/releases"
	tokenLink     HttpLink = "https://docs.github.com/en/authentication/keeping-your-account-secure/managing-your-personal-access-tokens"
	rateLimitLink HttpLink = "https://docs.github.com/en/rest/using-the-rest-api/rate-limits-for-the-rest-api"
	configLink    HttpLink = "http://tgmpluginactivation.com/configuration/"
)

type (
	// Id identifies an entry of the issue catalog.
	Id int

	// MarkdownMsg is catalog text rendered through glamour.
	MarkdownMsg string

	// HttpLink is a documentation URL.
	HttpLink string

	// Issue is a documented problem with remediation steps.
	Issue struct {
		id       Id          // ID used to lookup the issue
		code     string      // stable code, shared with findings where one exists
		mdMsg    MarkdownMsg // Markdown text that will be rendered
		docLinks []HttpLink  // tool and library documentation
		extLinks []HttpLink  // external links that might be useful for the user
	}
)

// Id returns the catalog id.
func (i *Issue) Id() Id {
	return i.id
}

// Code returns the stable code used by findings, baselines and `explain`.
func (i *Issue) Code() string {
	return i.code
}

// MarkdownMsg returns the raw Markdown text.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// ExtLinks returns a copy of the external links.
func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Markdown returns the full Markdown document, including links.
func (i *Issue) Markdown() string {
	var sb strings.Builder
	sb.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		sb.WriteString("\n\n## See also\n")
		for _, link := range slices.Concat(i.docLinks, i.extLinks) {
			sb.WriteString("- <" + string(link) + ">\n")
		}
	}
	return sb.String()
}

// Render renders the issue for a terminal. stylePath is a glamour style name
// ("auto", "dark", "light", "notty") or a path to a JSON style file.
func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	authTokenInvalidIssue = &Issue{
		id:   AuthTokenInvalidId,
		code: sniff.AuthTokenInvalid.Code(),
		mdMsg: `
# GitHub token rejected

GitHub answered **401 Unauthorized** when the latest TGMPA release was
requested with your token. The check continued with the latest version known
when tgmpalint was built, which may be out of date.

## Things you can try:
- Check that the token has not expired or been revoked
- Pass a fresh token with ` + "`--github-token`" + `, ` + "`github.token`" + ` in config.cue, or ` + "`GITHUB_TOKEN`" + `
- Remove the token entirely; anonymous requests work within the public rate limit`,
		extLinks: []HttpLink{tokenLink},
	}

	rateLimitReachedIssue = &Issue{
		id:   RateLimitReachedId,
		code: sniff.RateLimitReached.Code(),
		mdMsg: `
# GitHub rate limit reached

The GitHub API refused the release lookup because the request quota is used
up. Anonymous clients get 60 requests per hour. The check continued with the
latest version known when tgmpalint was built.

## Things you can try:
- Provide a token to raise the limit to 5000 requests per hour:
~~~
$ GITHUB_TOKEN=ghp_... tgmpalint scan .
~~~
- Wait for the quota to reset and run the scan again`,
		extLinks: []HttpLink{rateLimitLink, tokenLink},
	}

	versionUndeterminedIssue = &Issue{
		id:   VersionUndeterminedId,
		code: sniff.VersionUndetermined.Code(),
		mdMsg: `
# TGMPA version could not be determined

The file was recognized as TGM Plugin Activation, but no file header doc
block with ` + "`@package TGM-Plugin-Activation`" + ` and a numeric ` + "`@version`" + `
tag precedes the class declaration. The header was probably removed or edited.

## Things you can try:
- Replace the file with a fresh copy from the Custom TGMPA Generator
- Keep the original file header intact; it carries the version and provenance`,
		docLinks: []HttpLink{generatorLink},
	}

	upgradeRequiredIssue = &Issue{
		id:   UpgradeRequiredId,
		code: sniff.UpgradeRequired.Code(),
		mdMsg: `
# TGMPA upgrade required

The bundled copy of TGM Plugin Activation is older than the latest stable
release. Older releases contain bugs and security issues fixed upstream.

## Things you can try:
- Download the latest release through the Custom TGMPA Generator
- Select WordPress.org as the publication channel when generating it`,
		docLinks: []HttpLink{generatorLink, releasesLink},
	}

	configurationOptionsIssue = &Issue{
		id:   ConfigurationOptionsId,
		code: sniff.ConfigurationOptionsWarning.Code(),
		mdMsg: `
# TGMPA configuration options changed

TGMPA 2.5.0 renamed and removed several options of the array passed to
` + "`tgmpa()`" + `. A theme upgrading from an older release must review its
configuration or the admin notices will not behave as intended.

## Things you can try:
- Compare your ` + "`$config`" + ` array with the example shipped in the new release
- Remove options that no longer exist, such as ` + "`domain`",
		docLinks: []HttpLink{configLink},
	}

	useStableVersionIssue = &Issue{
		id:   UseStableVersionId,
		code: sniff.UseStableVersionRequired.Code(),
		mdMsg: `
# Stable TGMPA release required

The bundled copy reports a version newer than the latest stable release, so
it is a development build or a release candidate. Only stable releases may
be distributed.

## Things you can try:
- Replace the file with the latest stable release from the Custom TGMPA Generator`,
		docLinks: []HttpLink{generatorLink, releasesLink},
	}

	wrongGeneratorChannelIssue = &Issue{
		id:   WrongGeneratorChannelId,
		code: sniff.WrongGeneratorChannel.Code(),
		mdMsg: `
# TGMPA not generated for WordPress.org

The Custom TGMPA Generator stamps every download with its target and
publication channel, for example:

~~~
@version 2.6.1 for parent theme My Theme for publication on WordPress.org
~~~

The version tag is missing this stamp or names another channel. Copies made
for other channels contain code that is not allowed on WordPress.org.

## Things you can try:
- Generate a new copy and choose WordPress.org as the publication channel`,
		docLinks: []HttpLink{generatorLink},
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		code: "configLoadFailed",
		mdMsg: `
# Configuration could not be loaded

tgmpalint reads ` + "`config.cue`" + ` from the user configuration directory, then
from the working directory, or the file named with ` + "`--config`" + `.

## Things you can try:
- Show the effective configuration:
~~~
$ tgmpalint config show
~~~
- Write a fresh default file:
~~~
$ tgmpalint config init --force
~~~`,
	}

	pathNotFoundIssue = &Issue{
		id:   PathNotFoundId,
		code: "pathNotFound",
		mdMsg: `
# Scan path not found

A path given to ` + "`tgmpalint scan`" + ` does not exist or cannot be read.

## Things you can try:
- Check the spelling of the path
- Run the command from the theme or plugin root and scan ` + "`.`",
	}

	baselineInvalidIssue = &Issue{
		id:   BaselineInvalidId,
		code: "baselineInvalid",
		mdMsg: `
# Baseline file is invalid

The baseline is a TOML file of accepted findings:

~~~toml
[[finding]]
path = "inc/class-tgm-plugin-activation.php"
code = "upgradeRequired"
~~~

## Things you can try:
- Regenerate it from the current findings:
~~~
$ tgmpalint scan --update-baseline tgmpalint-baseline.toml .
~~~`,
	}

	issues = map[Id]*Issue{
		authTokenInvalidIssue.Id():      authTokenInvalidIssue,
		rateLimitReachedIssue.Id():      rateLimitReachedIssue,
		versionUndeterminedIssue.Id():   versionUndeterminedIssue,
		upgradeRequiredIssue.Id():       upgradeRequiredIssue,
		configurationOptionsIssue.Id():  configurationOptionsIssue,
		useStableVersionIssue.Id():      useStableVersionIssue,
		wrongGeneratorChannelIssue.Id(): wrongGeneratorChannelIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		pathNotFoundIssue.Id():          pathNotFoundIssue,
		baselineInvalidIssue.Id():       baselineInvalidIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id - b.id)
	})
}

// Get returns the issue with the given id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// Lookup returns the issue with the given code. Matching ignores case.
func Lookup(code string) (*Issue, bool) {
	for _, i := range issues {
		if strings.EqualFold(i.code, code) {
			return i, true
		}
	}
	return nil, false
}

// ForFinding returns the documentation of a finding kind.
func ForFinding(kind sniff.FindingKind) *Issue {
	i, _ := Lookup(kind.Code())
	return i
}
