// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

type (
	// aliasRecord keeps an aliased import addressable after its blocks have
	// been dissolved into the importing document. Later extension edges use
	// the table to resolve an alias-qualified path onto the merged block it
	// now lives in; the record also survives into the result for
	// introspection.
	aliasRecord struct {
		Alias types.Alias
		Ref   document.Reference

		// Doc is the fully resolved fragment as it was at merge time. It
		// is read-only shared state (the fragment may live in the cache);
		// it is consulted only to check which blocks the alias can address.
		Doc *document.Document
	}

	aliasTable map[types.Alias]*aliasRecord
)

// mergeImported dissolves a fully resolved fragment into the target
// document. Merged blocks keep the target's order; blocks only the fragment
// has are appended after in the fragment's order. On conflicts inside a
// merged block the imported side wins, and fragment prose already present in
// the target is not repeated.
//
// Fragment metadata describes the fragment, not the importing document, so
// it does not carry over. Neither does the fragment's @local block: @local
// is private to its declaring document, so the target's own @local (if any)
// passes through unmerged.
func mergeImported(target, imported *document.Document) *document.Document {
	out := &document.Document{
		Meta:     document.CloneProps(target.Meta),
		Location: target.Location,
	}
	for _, p := range target.Params {
		out.Params = append(out.Params, p.Clone())
	}
	for _, ext := range target.Extends {
		ext.Content = ext.Content.Clone()
		out.Extends = append(out.Extends, ext)
	}

	for _, tb := range target.Blocks {
		ib := imported.FindBlock(tb.Name)
		if ib == nil || tb.Name == localBlockName {
			out.Blocks = append(out.Blocks, document.Block{Name: tb.Name, Content: tb.Content.Clone()})
			continue
		}
		out.Blocks = append(out.Blocks, document.Block{
			Name:    tb.Name,
			Content: mergeContent(ib.Content, tb.Content, importPolicy),
		})
	}
	for _, ib := range imported.Blocks {
		if ib.Name == localBlockName {
			continue
		}
		if target.FindBlock(ib.Name) == nil {
			out.Blocks = append(out.Blocks, document.Block{Name: ib.Name, Content: ib.Content.Clone()})
		}
	}
	return out
}
