// SPDX-License-Identifier: MPL-2.0

package document

// Clone returns a deep copy of the document. Merge steps clone whatever they
// carry over from an operand so cached resolution results never alias the
// trees handed to callers.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		Meta:     CloneProps(d.Meta),
		Location: d.Location,
	}
	if d.Params != nil {
		out.Params = make([]ParamDefinition, len(d.Params))
		for i, p := range d.Params {
			out.Params[i] = p.Clone()
		}
	}
	if d.Inherit != nil {
		edge := *d.Inherit
		edge.Args = cloneArgs(d.Inherit.Args)
		out.Inherit = &edge
	}
	if d.Imports != nil {
		out.Imports = make([]ImportEdge, len(d.Imports))
		for i, imp := range d.Imports {
			out.Imports[i] = imp
			out.Imports[i].Args = cloneArgs(imp.Args)
		}
	}
	if d.Blocks != nil {
		out.Blocks = make([]Block, len(d.Blocks))
		for i, b := range d.Blocks {
			out.Blocks[i] = Block{Name: b.Name, Content: b.Content.Clone()}
		}
	}
	if d.Extends != nil {
		out.Extends = make([]ExtendEdge, len(d.Extends))
		for i, e := range d.Extends {
			out.Extends[i] = ExtendEdge{TargetPath: e.TargetPath, Content: e.Content.Clone()}
		}
	}
	return out
}

// Clone returns a deep copy of the block content.
func (c BlockContent) Clone() BlockContent {
	return BlockContent{
		Kind:  c.Kind,
		Text:  c.Text,
		Props: CloneProps(c.Props),
		Items: CloneItems(c.Items),
	}
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	return Value{
		Kind:  v.Kind,
		Str:   v.Str,
		Num:   v.Num,
		Bool:  v.Bool,
		Items: CloneItems(v.Items),
		Props: CloneProps(v.Props),
	}
}

// Clone returns a deep copy of the parameter definition.
func (d ParamDefinition) Clone() ParamDefinition {
	out := d
	if d.EnumOptions != nil {
		out.EnumOptions = append([]string(nil), d.EnumOptions...)
	}
	if d.Default != nil {
		def := d.Default.Clone()
		out.Default = &def
	}
	return out
}

// CloneProps deep-copies a property map. A nil map stays nil.
func CloneProps[M ~map[string]Value](props M) M {
	if props == nil {
		return nil
	}
	out := make(M, len(props))
	for k, v := range props {
		out[k] = v.Clone()
	}
	return out
}

// CloneItems deep-copies a value slice. A nil slice stays nil.
func CloneItems(items []Value) []Value {
	if items == nil {
		return nil
	}
	out := make([]Value, len(items))
	for i, v := range items {
		out[i] = v.Clone()
	}
	return out
}

func cloneArgs(args []ParamArgument) []ParamArgument {
	if args == nil {
		return nil
	}
	out := make([]ParamArgument, len(args))
	for i, a := range args {
		out[i] = ParamArgument{Name: a.Name, Value: a.Value.Clone()}
	}
	return out
}
