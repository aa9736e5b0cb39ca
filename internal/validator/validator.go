// SPDX-License-Identifier: MPL-2.0

// Package validator runs semantic checks on parsed documents before
// resolution. The parser guarantees syntactic shape; the validator catches
// meaning-level problems a single document can exhibit on its own.
package validator

import (
	"strings"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

// Validate checks one parsed document and returns its findings. Error
// severity marks documents the compiler should refuse to resolve; warnings
// are surfaced but do not stop compilation.
func Validate(doc *document.Document) []document.Diagnostic {
	var diags []document.Diagnostic
	loc := doc.Location

	diags = append(diags, checkBlocks(doc, loc)...)
	diags = append(diags, checkParams(doc, loc)...)
	diags = append(diags, checkImports(doc, loc)...)
	diags = append(diags, checkExtends(doc, loc)...)
	return diags
}

func checkBlocks(doc *document.Document, loc string) []document.Diagnostic {
	var diags []document.Diagnostic
	seen := map[string]struct{}{}
	for _, b := range doc.Blocks {
		if _, dup := seen[b.Name]; dup {
			diags = append(diags, document.Errorf("duplicate_block", loc,
				"block @%s appears more than once", b.Name))
			continue
		}
		seen[b.Name] = struct{}{}
	}

	// A @local block never flows to consumers; declaring one in a document
	// that is built to be inherited or imported is usually a mistake.
	if doc.FindBlock("local") != nil && doc.HasParams() {
		diags = append(diags, document.Warnf("local_in_template", loc,
			"@local content stays in this document and never reaches documents that inherit or import it"))
	}
	return diags
}

func checkParams(doc *document.Document, loc string) []document.Diagnostic {
	var diags []document.Diagnostic
	seen := map[string]struct{}{}
	for i := range doc.Params {
		p := &doc.Params[i]
		if _, dup := seen[p.Name]; dup {
			diags = append(diags, document.Errorf("duplicate_param", loc,
				"parameter %q is declared more than once", p.Name))
			continue
		}
		seen[p.Name] = struct{}{}

		if p.Type == document.EnumParam && len(p.EnumOptions) == 0 {
			diags = append(diags, document.Errorf("empty_enum", loc,
				"parameter %q is an enum with no options", p.Name))
		}
		if p.Default != nil && !p.Accepts(*p.Default) {
			diags = append(diags, document.Errorf("bad_param_default", loc,
				"default for parameter %q does not satisfy its declared type %s", p.Name, p.TypeLabel()))
		}
	}
	return diags
}

func checkImports(doc *document.Document, loc string) []document.Diagnostic {
	var diags []document.Diagnostic
	seen := map[types.Alias]struct{}{}
	for _, imp := range doc.Imports {
		if imp.Alias == "" {
			continue
		}
		if _, dup := seen[imp.Alias]; dup {
			diags = append(diags, document.Errorf("alias_collision", loc,
				"import alias %q is bound more than once", imp.Alias))
			continue
		}
		seen[imp.Alias] = struct{}{}

		if doc.FindBlock(string(imp.Alias)) != nil {
			diags = append(diags, document.Warnf("alias_shadows_block", loc,
				"import alias %q has the same name as a block; extend paths starting with %q address the import",
				imp.Alias, imp.Alias))
		}
	}
	return diags
}

func checkExtends(doc *document.Document, loc string) []document.Diagnostic {
	var diags []document.Diagnostic
	for _, ext := range doc.Extends {
		for _, seg := range strings.Split(ext.TargetPath, ".") {
			if seg == "" {
				diags = append(diags, document.Errorf("bad_extend_path", loc,
					"extend path %q has an empty segment", ext.TargetPath))
				break
			}
		}
	}
	return diags
}
