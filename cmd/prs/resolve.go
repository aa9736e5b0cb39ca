// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/resolver"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	resolveFormat string

	resolveCmd = &cobra.Command{
		Use:   "resolve [entry]",
		Short: "Resolve an entry document and print the merged result",
		Long: `Resolve an entry document and print the merged result without
writing any target files. Useful for inspecting what a compilation
would see: the final block contents after inheritance, imports, and
extensions, plus the contributing sources and any diagnostics.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runResolve,
	}
)

func init() {
	resolveCmd.Flags().StringVarP(&resolveFormat, "format", "f", "yaml", "output format (yaml, json)")
}

func runResolve(cmd *cobra.Command, args []string) error {
	entry := defaultEntry
	if len(args) > 0 {
		entry = args[0]
	}

	compiler, err := buildCompiler(cmd)
	if err != nil {
		return err
	}
	res, err := compiler.Resolve(cmd.Context(), entry)
	if err != nil {
		printErrorHelp(cmd, err)
		return err
	}

	view := newResultView(res)
	var out []byte
	switch resolveFormat {
	case "json":
		out, err = json.MarshalIndent(view, "", "  ")
	case "yaml":
		out, err = yaml.Marshal(view)
	default:
		return fmt.Errorf("unknown format %q (valid: yaml, json)", resolveFormat)
	}
	if err != nil {
		return fmt.Errorf("encode resolved document: %w", err)
	}

	cmd.Println(string(out))
	printDiagnostics(cmd, res.Diagnostics)
	if hasErrorDiagnostics(res.Diagnostics) {
		return &ExitError{Code: 1, Err: fmt.Errorf("resolution finished with errors")}
	}
	return nil
}

type (
	// resultView is the serializable shape of a resolution result.
	resultView struct {
		Meta        map[string]any    `json:"meta,omitempty" yaml:"meta,omitempty"`
		Blocks      []blockView       `json:"blocks" yaml:"blocks"`
		Aliases     map[string]string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
		Sources     []string          `json:"sources" yaml:"sources"`
		Diagnostics []string          `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	}

	blockView struct {
		Name  string         `json:"name" yaml:"name"`
		Text  string         `json:"text,omitempty" yaml:"text,omitempty"`
		Props map[string]any `json:"props,omitempty" yaml:"props,omitempty"`
		Items []any          `json:"items,omitempty" yaml:"items,omitempty"`
	}
)

func newResultView(res *resolver.Result) resultView {
	view := resultView{
		Sources: res.Sources,
	}
	doc := res.Document

	if len(doc.Meta) > 0 {
		view.Meta = make(map[string]any, len(doc.Meta))
		for k, v := range doc.Meta {
			view.Meta[k] = valueToAny(v)
		}
	}
	for _, b := range doc.Blocks {
		view.Blocks = append(view.Blocks, blockView{
			Name:  b.Name,
			Text:  b.Content.Text,
			Props: propsToAny(b.Content.Props),
			Items: itemsToAny(b.Content.Items),
		})
	}
	if len(res.Aliases) > 0 {
		view.Aliases = make(map[string]string, len(res.Aliases))
		for alias, location := range res.Aliases {
			view.Aliases[alias.String()] = location
		}
	}
	for _, d := range res.Diagnostics {
		view.Diagnostics = append(view.Diagnostics, d.String())
	}
	return view
}

// valueToAny lowers a document value to the plain Go shapes the JSON and
// YAML encoders understand. Unresolved template expressions keep their
// {{name}} form.
func valueToAny(v document.Value) any {
	switch v.Kind {
	case document.StringValue, document.TextValue:
		return v.Str
	case document.TemplateValue:
		return v.StringForm()
	case document.NumberValue:
		return v.Num
	case document.BoolValue:
		return v.Bool
	case document.ArrayValue:
		return itemsToAny(v.Items)
	case document.MapValue:
		return propsToAny(v.Props)
	default:
		return nil
	}
}

func propsToAny(props map[string]document.Value) map[string]any {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = valueToAny(v)
	}
	return out
}

func itemsToAny(items []document.Value) []any {
	if len(items) == 0 {
		return nil
	}
	out := make([]any, 0, len(items))
	for _, v := range items {
		out = append(out, valueToAny(v))
	}
	return out
}
