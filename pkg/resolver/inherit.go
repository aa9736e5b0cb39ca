// SPDX-License-Identifier: MPL-2.0

package resolver

import "promptscript-cli/pkg/document"

// localBlockName is the one block name with containment semantics: @local
// content belongs to the document that declares it and is never carried into
// documents that inherit or import it.
const localBlockName = "local"

// mergeInherited folds a fully resolved parent document under its child.
// The child's declarations win every conflict; blocks keep the parent's
// order with child-only blocks appended after, so prose composed across
// the chain reads base first, specialization second.
//
// The parent's @local block is private to the parent and is not carried
// over; a @local block of the child survives untouched.
//
// The inheritance edge itself is consumed here: the result carries no
// composition directives of the parent, and the child's own imports and
// extensions are preserved for the caller to apply afterwards.
func mergeInherited(parent, child *document.Document) *document.Document {
	out := &document.Document{
		Meta:     mergeProps(parent.Meta, child.Meta, inheritPolicy),
		Location: child.Location,
	}
	for _, p := range child.Params {
		out.Params = append(out.Params, p.Clone())
	}
	for _, imp := range child.Imports {
		imp.Args = cloneArguments(imp.Args)
		out.Imports = append(out.Imports, imp)
	}
	for _, ext := range child.Extends {
		ext.Content = ext.Content.Clone()
		out.Extends = append(out.Extends, ext)
	}

	for _, pb := range parent.Blocks {
		if pb.Name == localBlockName {
			continue
		}
		cb := child.FindBlock(pb.Name)
		if cb == nil {
			out.Blocks = append(out.Blocks, document.Block{Name: pb.Name, Content: pb.Content.Clone()})
			continue
		}
		out.Blocks = append(out.Blocks, document.Block{
			Name:    pb.Name,
			Content: mergeContent(pb.Content, cb.Content, inheritPolicy),
		})
	}
	for _, cb := range child.Blocks {
		if cb.Name == localBlockName || parent.FindBlock(cb.Name) == nil {
			out.Blocks = append(out.Blocks, document.Block{Name: cb.Name, Content: cb.Content.Clone()})
		}
	}
	return out
}

func cloneArguments(args []document.ParamArgument) []document.ParamArgument {
	if args == nil {
		return nil
	}
	out := make([]document.ParamArgument, len(args))
	for i, a := range args {
		out[i] = document.ParamArgument{Name: a.Name, Value: a.Value.Clone()}
	}
	return out
}
