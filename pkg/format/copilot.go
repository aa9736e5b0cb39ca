// SPDX-License-Identifier: MPL-2.0

package format

import (
	"promptscript-cli/pkg/document"
	"promptscript-cli/pkg/types"
)

// copilotFormatter writes everything into the single instructions file
// GitHub Copilot reads.
type copilotFormatter struct{}

func (copilotFormatter) Target() types.Target { return types.TargetCopilot }

func (copilotFormatter) Format(doc *document.Document) ([]File, error) {
	return []File{{
		Path: ".github/copilot-instructions.md",
		Body: []byte(renderDocument(doc, nil)),
	}}, nil
}
