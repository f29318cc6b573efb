// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

// Id identifies an entry of the issue catalog.
type Id int

const (
	ConfigFileNotFoundId Id = iota + 1
	ConfigurationInvalidId
	IncludeCycleId
	UnresolvableDependencyId
	RepoProviderFailedId
	ExternalToolFailedId
	SettingsInvalidId
	InitScriptNotFoundId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render returns the issue as terminal markdown styled by stylePath
// (a glamour standard style name such as "dark", "light" or "notty").
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

const projectDocs HttpLink = "https://kas.readthedocs.io/en/latest/userguide/project-configuration.html"

var (
	render = glamour.Render

	configFileNotFoundIssue = &Issue{
		id: ConfigFileNotFoundId,
		mdMsg: `
# Configuration file not found!

kas could not open the project configuration file you passed on the command line,
or one of the files it includes.

## Things you can try:
- Check the path passed to ` + "`kas build`" + `, ` + "`kas checkout`" + ` or ` + "`kas shell`" + `
- Includes without a ` + "`repo`" + ` key are relative to the including file
- Includes with a ` + "`repo`" + ` key are relative to the root of that repository`,
		docLinks: []HttpLink{projectDocs},
	}

	configurationInvalidIssue = &Issue{
		id: ConfigurationInvalidId,
		mdMsg: `
# Invalid project configuration!

The configuration could not be parsed or contains a malformed section.

## Common issues:
- Missing or unsupported ` + "`header.version`" + `
- An include entry that is neither a path nor a ` + "`{repo, file}`" + ` mapping
- A ` + "`repos`" + ` entry that is not a mapping
- A ` + "`local_conf_header`" + ` or ` + "`env`" + ` value that is not a string

## Minimal example:
~~~yaml
header:
  version: 1
machine: qemux86-64
repos:
  poky:
    url: https://git.yoctoproject.org/git/poky
    refspec: kirkstone
    layers:
      meta:
~~~`,
		docLinks: []HttpLink{projectDocs},
	}

	includeCycleIssue = &Issue{
		id: IncludeCycleId,
		mdMsg: `
# Include cycle detected!

Two or more configuration files include each other, so the merge order
cannot be determined.

## Things you can try:
- Move the shared settings into a separate fragment
- Include that fragment from both files instead of from each other`,
		docLinks: []HttpLink{projectDocs},
	}

	unresolvableDependencyIssue = &Issue{
		id: UnresolvableDependencyId,
		mdMsg: `
# Unresolvable repository dependency!

An include refers to a repository that no configuration file declares,
so kas cannot fetch it.

## Things you can try:
- Add the repository to the ` + "`repos`" + ` section of your project file
- Check the spelling of the ` + "`repo`" + ` key in the include entry`,
		docLinks: []HttpLink{projectDocs},
	}

	repoProviderFailedIssue = &Issue{
		id: RepoProviderFailedId,
		mdMsg: `
# Repository operation failed!

Cloning, fetching or checking out a repository did not succeed.

## Things you can try:
- Verify the repository URL and your network connection
- Provide credentials via ` + "`SSH_PRIVATE_KEY`" + `, ` + "`GITLAB_TOKEN`" + ` or ` + "`GITHUB_TOKEN`" + `
- Check that the ` + "`refspec`" + ` names an existing branch, tag or commit
- Point ` + "`KAS_REPO_REF_DIR`" + ` at a directory of reference clones to speed up cloning`,
	}

	externalToolFailedIssue = &Issue{
		id: ExternalToolFailedId,
		mdMsg: `
# External tool failed!

bitbake or the build environment init script exited with an error.

## Things you can try:
- Re-run with ` + "`--debug`" + ` to see the exact command line
- Open a build shell with ` + "`kas shell <config>`" + ` and run the command by hand`,
	}

	settingsInvalidIssue = &Issue{
		id: SettingsInvalidId,
		mdMsg: `
# Invalid kas settings!

The settings file does not match the expected schema.

## Example settings file (~/.config/kas/config.cue):
~~~cue
work_dir:     "/srv/kas"
repo_ref_dir: "/srv/kas/refs"
log_level:    "info"
log_format:   "text"
~~~`,
	}

	initScriptNotFoundIssue = &Issue{
		id: InitScriptNotFoundId,
		mdMsg: `
# Build environment init script not found!

kas looks for exactly one of ` + "`oe-init-build-env`" + ` or ` + "`isar-init-build-env`" + `
at the root of the configured repositories.

## Things you can try:
- Add the poky or isar repository to the ` + "`repos`" + ` section
- Make sure only one repository ships an init script`,
	}

	issues = map[Id]*Issue{
		configFileNotFoundIssue.Id():     configFileNotFoundIssue,
		configurationInvalidIssue.Id():   configurationInvalidIssue,
		includeCycleIssue.Id():           includeCycleIssue,
		unresolvableDependencyIssue.Id(): unresolvableDependencyIssue,
		repoProviderFailedIssue.Id():     repoProviderFailedIssue,
		externalToolFailedIssue.Id():     externalToolFailedIssue,
		settingsInvalidIssue.Id():        settingsInvalidIssue,
		initScriptNotFoundIssue.Id():     initScriptNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

func Get(id Id) *Issue {
	return issues[id]
}
