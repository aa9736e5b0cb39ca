// SPDX-License-Identifier: MPL-2.0

package format

import (
	"bytes"
	"fmt"
	"strings"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

// cursorFormatter writes one .cursor/rules/<block>.mdc rule file per
// top-level block, each with the YAML header Cursor expects before the
// rule body.
type cursorFormatter struct{}

func (cursorFormatter) Target() types.Target { return types.TargetCursor }

func (cursorFormatter) Format(doc *document.Document) ([]File, error) {
	var files []File
	for _, b := range doc.Blocks {
		fm, err := frontmatter([]string{"description", "alwaysApply"}, map[string]document.Value{
			"description": document.String(headingFor(b.Name) + " instructions"),
			"alwaysApply": document.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("formatting rule %q: %w", b.Name, err)
		}

		var buf bytes.Buffer
		buf.Write(fm)
		buf.WriteString("\n# " + headingFor(b.Name) + "\n\n")
		var sb strings.Builder
		renderContent(&sb, b.Content)
		buf.WriteString(sb.String())

		files = append(files, File{Path: ".cursor/rules/" + b.Name + ".mdc", Body: buf.Bytes()})
	}
	return files, nil
}
