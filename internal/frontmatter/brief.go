package frontmatter

// brief.go — project brief files: generation settings in the frontmatter,
// free project context in the body.

import (
	"bytes"
	"fmt"

	"qdesigner/internal/generate"
)

// BriefFile is the conventional brief name inside a project's briefs/ dir.
const BriefFile = "brief.md"

// ReadBrief decodes a brief. The body is returned trimmed.
func ReadBrief(data []byte) (generate.Brief, string, error) {
	var b generate.Brief
	body, err := Decode(data, &b)
	if err != nil {
		return generate.Brief{}, "", fmt.Errorf("read brief: %w", err)
	}
	return b, string(bytes.TrimSpace(body)), nil
}

const starterBody = `# Project brief

Describe the business problem, the decisions this research should inform,
known hypotheses and anything the questionnaire must cover. Reference files
(.txt, .md, .html, .docx, .pptx) placed next to this brief are read too.
`

// StarterBrief returns the brief written by "qdesigner init".
func StarterBrief(b generate.Brief) ([]byte, error) {
	return Write(b.WithDefaults(), starterBody)
}
