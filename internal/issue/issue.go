// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type (
	// Id identifies one catalogued issue.
	Id int

	// MarkdownMsg is the issue body, written in markdown and rendered with
	// glamour before display.
	MarkdownMsg string

	// HttpLink is a documentation or reference URL attached to an issue.
	HttpLink string

	// Issue is one catalogued user-facing failure: what went wrong and what
	// the user can do about it, independent of any single error value.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

const (
	EntryNotFoundId Id = iota + 1
	ParseFailedId
	DependencyCycleId
	RegistryUnreachableId
	ConfigLoadFailedId
	OutputWriteFailedId
	WatchFailedId
)

// Id returns the issue identifier.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the raw markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns the documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// ExtLinks returns the external reference links.
func (i *Issue) ExtLinks() []HttpLink { return slices.Clone(i.extLinks) }

// Render renders the issue body with glamour using the given style path
// ("auto" picks light/dark from the terminal).
func (i *Issue) Render(stylePath string) (string, error) {
	extra := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extra = "\n\n## See also\n"
		for _, link := range i.docLinks {
			extra += "- " + string(link) + "\n"
		}
		for _, link := range i.extLinks {
			extra += "- " + string(link) + "\n"
		}
	}
	return render(string(i.mdMsg)+extra, stylePath)
}

// render is a seam for tests; glamour talks to the terminal otherwise.
var render = glamour.Render

var (
	entryNotFoundIssue = &Issue{
		id: EntryNotFoundId,
		mdMsg: `
# Entry document not found

The PromptScript file you asked to compile does not exist at the given path.

## Things you can try
- Check the path for typos
- Create a starter document:
~~~
$ prs init
~~~
- Compile an explicit path:
~~~
$ prs compile ./prompts/main.prs
~~~`,
	}

	parseFailedIssue = &Issue{
		id: ParseFailedId,
		mdMsg: `
# Document failed to parse

The entry document (or one it references) contains PromptScript the parser
cannot recover from. The diagnostics above carry the line and column of each
problem.

## Things you can try
- Fix the locations listed in the diagnostics
- Check that every block body closes with a matching brace
- Check that docstrings close with """`,
	}

	dependencyCycleIssue = &Issue{
		id: DependencyCycleId,
		mdMsg: `
# Dependency cycle detected

A document ends up inheriting from or importing itself, directly or through
a chain of references. The cycle is listed above in resolution order.

## Things you can try
- Break the cycle by removing one of the listed @inherit or @use edges
- Extract the shared content into a fragment both sides can @use`,
	}

	registryUnreachableIssue = &Issue{
		id: RegistryUnreachableId,
		mdMsg: `
# Registry unreachable

A registry reference (@namespace/name) could not be fetched after retries.

## Things you can try
- Check your network connection
- Verify the registry URL in your config:
~~~
$ prs config show
~~~
- Set credentials if the registry needs them (PRS_REGISTRY_TOKEN)`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration failed to load

Your config.cue exists but does not validate against the configuration
schema.

## Things you can try
- Fix the field named in the error above
- Compare against the defaults:
~~~
$ prs config show
~~~`,
	}

	outputWriteFailedIssue = &Issue{
		id: OutputWriteFailedId,
		mdMsg: `
# Output files could not be written

Compilation succeeded but the output files could not be placed under the
output root.

## Things you can try
- Check permissions on the output directory
- Pass a different output root:
~~~
$ prs compile --output ./build
~~~`,
	}

	watchFailedIssue = &Issue{
		id: WatchFailedId,
		mdMsg: `
# Watch mode could not start

The filesystem watcher could not be created or could not watch the source
directories.

## Things you can try
- Check the inotify limits on your system (fs.inotify.max_user_watches)
- Watch a narrower directory tree`,
	}

	registry = map[Id]*Issue{
		EntryNotFoundId:       entryNotFoundIssue,
		ParseFailedId:         parseFailedIssue,
		DependencyCycleId:     dependencyCycleIssue,
		RegistryUnreachableId: registryUnreachableIssue,
		ConfigLoadFailedId:    configLoadFailedIssue,
		OutputWriteFailedId:   outputWriteFailedIssue,
		WatchFailedId:         watchFailedIssue,
	}
)

// Get returns the issue registered under the id, or nil.
func Get(id Id) *Issue {
	return registry[id]
}

// Values returns every catalogued issue in id order.
func Values() []*Issue {
	ids := maps.Keys(registry)
	slices.Sort(ids)
	out := make([]*Issue, len(ids))
	for i, id := range ids {
		out[i] = registry[id]
	}
	return out
}
