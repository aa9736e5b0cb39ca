// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"strings"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

// applyExtend applies one path-addressed extension to the document in place.
// The first path segment names a block, or an import alias followed by a
// block name within that alias; the remaining segments descend through
// nested object keys, creating intermediate objects on demand. The
// extension's content always wins conflicts at the addressed position.
//
// A path that cannot be applied yields a non-fatal diagnostic and leaves the
// document untouched.
func applyExtend(doc *document.Document, edge document.ExtendEdge, aliases aliasTable) *document.Diagnostic {
	segs := strings.Split(edge.TargetPath, ".")
	if len(segs) == 0 || segs[0] == "" {
		d := document.Errorf("bad_extend_path", doc.Location, "extend path %q is empty", edge.TargetPath)
		return &d
	}

	blockName := segs[0]
	rest := segs[1:]
	if rec, aliased := aliases[types.Alias(segs[0])]; aliased {
		if len(segs) < 2 {
			d := document.Errorf("bad_extend_path", doc.Location,
				"extend path %q names import alias %q without a block", edge.TargetPath, segs[0])
			return &d
		}
		blockName = segs[1]
		rest = segs[2:]
		if rec.Doc.FindBlock(blockName) == nil {
			d := document.Errorf("bad_extend_path", doc.Location,
				"import %q (alias %q) has no block %q", rec.Ref.Raw, rec.Alias, blockName)
			return &d
		}
	}

	block := doc.FindBlock(blockName)
	if block == nil {
		doc.Blocks = append(doc.Blocks, document.Block{Name: blockName})
		block = &doc.Blocks[len(doc.Blocks)-1]
		if len(rest) == 0 {
			block.Content = edge.Content.Clone()
			return nil
		}
		block.Content = document.NewObject(map[string]document.Value{})
	}

	if len(rest) == 0 {
		block.Content = mergeContent(block.Content, edge.Content, extendPolicy)
		return nil
	}

	// A nested path needs a structured block to descend into. Prose keeps
	// its place by promotion to mixed content; an array block cannot hold
	// named keys, so the explicit modification replaces it.
	switch block.Content.Kind {
	case document.TextContent:
		block.Content = document.NewMixed(block.Content.Text, map[string]document.Value{})
	case document.ArrayContent:
		block.Content = document.NewObject(map[string]document.Value{})
	default:
		if block.Content.Props == nil {
			block.Content.Props = map[string]document.Value{}
		}
	}

	props := block.Content.Props
	for _, seg := range rest[:len(rest)-1] {
		next, ok := props[seg]
		if !ok || next.Kind != document.MapValue || next.Props == nil {
			next = document.Map(map[string]document.Value{})
		}
		props[seg] = next
		props = next.Props
	}

	last := rest[len(rest)-1]
	patch := edge.Content.AsValue()
	existing, ok := props[last]
	if !ok {
		props[last] = patch.Clone()
		return nil
	}
	props[last] = mergeValue(existing, patch, extendPolicy)
	return nil
}
