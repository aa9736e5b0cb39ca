// SPDX-License-Identifier: MPL-2.0

package format

import (
	"bytes"
	"fmt"
	"strings"

	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

// claudeFormatter writes CLAUDE.md as the main instruction file and routes
// agent and skill entries into the .claude/ resource layout the tool scans:
// agents become .claude/agents/<name>.md with their prompt as the body,
// skills become .claude/skills/<name>/SKILL.md.
type claudeFormatter struct{}

func (claudeFormatter) Target() types.Target { return types.TargetClaude }

func (claudeFormatter) Format(doc *document.Document) ([]File, error) {
	main := renderDocument(doc, func(name string) bool {
		return name == "agents" || name == "skills"
	})
	files := []File{{Path: "CLAUDE.md", Body: []byte(main)}}

	if agents := doc.FindBlock("agents"); agents != nil {
		for _, name := range sortedKeys(agents.Content.Props) {
			entry := agents.Content.Props[name]
			if entry.Kind != document.MapValue {
				continue
			}
			body, err := resourceFile(name, entry, "prompt")
			if err != nil {
				return nil, fmt.Errorf("formatting agent %q: %w", name, err)
			}
			files = append(files, File{Path: ".claude/agents/" + name + ".md", Body: body})
		}
	}

	if skills := doc.FindBlock("skills"); skills != nil {
		for _, name := range sortedKeys(skills.Content.Props) {
			entry := skills.Content.Props[name]
			if entry.Kind != document.MapValue {
				continue
			}
			body, err := resourceFile(name, entry, "content")
			if err != nil {
				return nil, fmt.Errorf("formatting skill %q: %w", name, err)
			}
			files = append(files, File{Path: ".claude/skills/" + name + "/SKILL.md", Body: body})
		}
	}
	return files, nil
}

// resourceFile renders one agent or skill entry: every property except the
// body key lands in YAML frontmatter, the body key becomes the markdown
// body.
func resourceFile(name string, entry document.Value, bodyKey string) ([]byte, error) {
	props := map[string]document.Value{"name": document.String(name)}
	keys := []string{"name"}
	for _, k := range sortedKeys(entry.Props) {
		if k == bodyKey || k == "name" {
			continue
		}
		props[k] = entry.Props[k]
		keys = append(keys, k)
	}

	fm, err := frontmatter(keys, props)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(fm)
	if body, ok := entry.Props[bodyKey]; ok && body.Str != "" {
		buf.WriteString("\n" + strings.TrimRight(body.Str, "\n") + "\n")
	}
	return buf.Bytes(), nil
}
