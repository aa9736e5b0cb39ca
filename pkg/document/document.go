// SPDX-License-Identifier: MPL-2.0

package document

import (
	"promptscript-cli/pkg/types"
)

type (
	// Document is the parsed form of one PromptScript source file. It is
	// produced once by the parser and never mutated in place; every
	// resolution step that changes a document builds a new value.
	Document struct {
		// Meta holds the @meta block fields (id, version, description, ...).
		Meta Metadata

		// Params are the template parameters this document declares for
		// parametric inheritance or import (@params block). Only documents
		// that exist to be inherited/imported declare them.
		Params []ParamDefinition

		// Inherit is the document's single inheritance edge, or nil. A
		// document has at most one.
		Inherit *InheritEdge

		// Imports are the @use edges in declaration order.
		Imports []ImportEdge

		// Blocks are the document's content blocks. Names are unique within
		// one document prior to merging; the parser rejects duplicates.
		Blocks []Block

		// Extends are the @extend edges in declaration order. They are
		// applied after inheritance and all imports are resolved.
		Extends []ExtendEdge

		// Location is the canonical absolute location this document was
		// loaded from. The resolver sets it after fetching; it is the cache
		// and cycle-detection key and the base for relative references.
		Location string
	}

	// Metadata holds the fields of the @meta block. During inheritance it
	// deep-merges under the child-wins scalar policy.
	Metadata map[string]Value

	// InheritEdge points at the single base document this document extends.
	InheritEdge struct {
		Ref  Reference
		Args []ParamArgument
	}

	// ImportEdge points at a fragment document mixed into this document by a
	// @use statement.
	ImportEdge struct {
		Ref Reference

		// Alias is the local name bound by an "as" clause, or "" when the
		// import is unaliased. Aliased imports stay addressable by later
		// @extend edges.
		Alias types.Alias

		Args []ParamArgument
	}

	// ExtendEdge is a path-addressed, in-place modification applied after
	// inheritance and imports are fully resolved.
	ExtendEdge struct {
		// TargetPath is dot-separated. The first segment names a block (or
		// an import alias, consuming one extra segment for the block name
		// within that alias); remaining segments address nested object keys.
		TargetPath string

		Content BlockContent
	}

	// Block is one named content block of a document.
	Block struct {
		Name    string
		Content BlockContent
	}
)

// FindBlock returns a pointer to the block with the given name, or nil.
func (d *Document) FindBlock(name string) *Block {
	for i := range d.Blocks {
		if d.Blocks[i].Name == name {
			return &d.Blocks[i]
		}
	}
	return nil
}

// HasParams reports whether the document declares any template parameters.
func (d *Document) HasParams() bool { return len(d.Params) > 0 }

// Param returns the declared parameter with the given name, or nil.
func (d *Document) Param(name string) *ParamDefinition {
	for i := range d.Params {
		if d.Params[i].Name == name {
			return &d.Params[i]
		}
	}
	return nil
}
