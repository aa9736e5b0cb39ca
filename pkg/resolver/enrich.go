// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"sort"

	"promptscript-cli/pkg/document"
)

// nativeEnrichments maps block names eligible for native-resource
// substitution to the property the resource body lands in. An entry named n
// inside such a block picks up the content of <blockdir>/n.md when that file
// sits next to the source document: agents read their system prompt from
// agents/<n>.md, skills read their body from skills/<n>.md.
var nativeEnrichments = map[string]string{
	"agents": "prompt",
	"skills": "content",
}

// enrichNative runs the post-resolution pass that folds sibling markdown
// resources into agent and skill entries. Substituted resources count as
// sources so watch mode rebuilds when they change; a resource that exists
// but cannot be read yields a warning and leaves the entry untouched.
func (r *Resolver) enrichNative(ctx context.Context, g *gather, doc *document.Document, loc string) {
	for i := range doc.Blocks {
		prop, eligible := nativeEnrichments[doc.Blocks[i].Name]
		if !eligible {
			continue
		}
		content := &doc.Blocks[i].Content
		if len(content.Props) == 0 {
			continue
		}

		names := make([]string, 0, len(content.Props))
		for name := range content.Props {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			entry := content.Props[name]
			if entry.Kind != document.MapValue {
				continue
			}
			candidate := r.loc.Sibling(loc, doc.Blocks[i].Name+"/"+name+".md")
			if !r.src.Exists(ctx, candidate) {
				continue
			}
			body, err := r.src.Fetch(ctx, candidate)
			if err != nil {
				d := document.Warnf("enrich_failed", candidate,
					"cannot read native resource for %s %q: %v", doc.Blocks[i].Name, name, err)
				d.Cause = err
				g.diag(d)
				continue
			}
			if entry.Props == nil {
				entry.Props = map[string]document.Value{}
			}
			entry.Props[prop] = document.Text(body)
			content.Props[name] = entry
			g.source(candidate)
		}
	}
}
