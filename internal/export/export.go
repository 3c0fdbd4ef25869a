package export

// export.go — vault export: converts a Questionnaire into linked markdown
// pages for Obsidian-style note tools.
//
// Vault layout:
//   index.md              summary and section links
//   sections/<id>.md      one per section; jumps are wiki links
//   routing.md            Mermaid flow, terminations, routing loops
//   methodology.md        methodological notes appendix

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"qdesigner/internal/frontmatter"
	"qdesigner/internal/layout"
	"qdesigner/internal/model"
	"qdesigner/internal/preview"
	"qdesigner/internal/routing"
)

// Vault holds pre-generated page content (path → markdown).
// Paths are relative to the output directory, using forward slashes.
type Vault struct {
	pages map[string]string
}

// Paths returns the page paths in sorted order.
func (v *Vault) Paths() []string {
	paths := make([]string, 0, len(v.pages))
	for p := range v.pages {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Page returns the content of one page.
func (v *Vault) Page(path string) (string, bool) {
	s, ok := v.pages[path]
	return s, ok
}

// pageMeta is the frontmatter of every page.
type pageMeta struct {
	Tags    []string `yaml:"tags"`
	Section string   `yaml:"section,omitempty"`
}

// GenerateVault builds all vault pages from q. No files are written.
func GenerateVault(q *model.Questionnaire) (*Vault, error) {
	view, err := preview.Build(q)
	if err != nil {
		return nil, err
	}
	view = view.ExpandAll()

	pages := make(map[string]string)
	add := func(path string, meta pageMeta, body string) error {
		sort.Strings(meta.Tags)
		data, err := frontmatter.Write(meta, body)
		if err != nil {
			return fmt.Errorf("page %s: %w", path, err)
		}
		pages[path] = string(data)
		return nil
	}

	if err := add("index.md", pageMeta{Tags: []string{"qdesigner/index"}}, buildIndexPage(q, view)); err != nil {
		return nil, err
	}
	for _, s := range view.Sections {
		meta := pageMeta{Tags: []string{"qdesigner/section"}, Section: s.ID}
		if err := add(sectionPath(s.ID), meta, buildSectionPage(s)); err != nil {
			return nil, err
		}
	}
	routes, err := buildRoutingPage(q)
	if err != nil {
		return nil, err
	}
	if err := add("routing.md", pageMeta{Tags: []string{"qdesigner/routing"}}, routes); err != nil {
		return nil, err
	}
	if err := add("methodology.md", pageMeta{Tags: []string{"qdesigner/methodology"}}, buildMethodologyPage(view.Notes)); err != nil {
		return nil, err
	}
	return &Vault{pages: pages}, nil
}

// WriteVault writes all pages in v to outputDir in sorted path order.
// Always creates the sections/ subdirectory.
func WriteVault(v *Vault, outputDir string) error {
	if err := os.MkdirAll(filepath.Join(outputDir, "sections"), 0o755); err != nil {
		return fmt.Errorf("mkdir sections: %w", err)
	}
	for _, p := range v.Paths() {
		abs := filepath.Join(outputDir, filepath.FromSlash(p))
		if err := writeNote(abs, v.pages[p]); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Page builders
// ---------------------------------------------------------------------------

func sectionPath(id string) string { return "sections/" + sanitizeFilename(id) + ".md" }

// sectionLink returns the wiki link to a section page.
func sectionLink(id string) string {
	return fmt.Sprintf("[[sections/%s|%s]]", sanitizeFilename(id), id)
}

// buildIndexPage builds index.md: entry point listing all sections.
func buildIndexPage(q *model.Questionnaire, v preview.View) string {
	var b strings.Builder
	s := q.Summary
	b.WriteString("# Research Questionnaire\n\n")
	b.WriteString(s.ResearchObjective + "\n\n")
	fmt.Fprintf(&b, "- **Target audience**: %s\n", orAbsent(s.TargetAudience))
	fmt.Fprintf(&b, "- **Methodology**: %s\n", orAbsent(s.Methodology))
	fmt.Fprintf(&b, "- **Estimated LOI**: %s\n", v.Stats.LOI)
	fmt.Fprintf(&b, "- **Total questions**: %s (%d found)\n", v.Stats.TotalQuestions, v.Stats.ActualQuestions)
	if s.PlatformNotes != "" {
		fmt.Fprintf(&b, "- **Programming notes**: %s\n", s.PlatformNotes)
	}

	b.WriteString("\n## Sections\n\n")
	for _, sec := range v.Sections {
		fmt.Fprintf(&b, "- %s — %s (%d)\n", sectionLink(sec.ID), sec.Title, len(sec.Questions))
	}
	b.WriteString("\n## See also\n\n- [[routing]]\n- [[methodology]]\n")
	return b.String()
}

// buildSectionPage builds sections/<id>.md for one section.
func buildSectionPage(s preview.SectionBlock) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Heading)
	if s.Description != "" {
		fmt.Fprintf(&b, "_%s_\n\n", s.Description)
	}
	b.WriteString(preview.QuestionsMarkdown(s, sectionLink))
	b.WriteString("[[index|Back to index]]\n")
	return b.String()
}

// ---------------------------------------------------------------------------
// Routing
// ---------------------------------------------------------------------------

// jump is one routed option.
type jump struct {
	from     string // section id
	question string
	code     string
	label    string
	outcome  routing.Outcome
}

func collectJumps(q *model.Questionnaire) ([]jump, error) {
	known := q.SectionIDs()
	var out []jump
	for _, s := range q.Sections {
		for _, qu := range s.Questions {
			cb, ok := qu.Body.(*model.ChoiceBody)
			if !ok {
				continue
			}
			for _, o := range cb.Options {
				oc, err := routing.Resolve(o.Routing, known)
				if err != nil {
					return nil, fmt.Errorf("%s/%s: %w", s.ID, qu.ID, err)
				}
				if oc.Action == routing.Continue {
					continue
				}
				out = append(out, jump{from: s.ID, question: qu.ID, code: o.Code.String(), label: o.Label, outcome: oc})
			}
		}
	}
	return out, nil
}

// buildRoutingPage builds routing.md: section flow, terminations, loops.
func buildRoutingPage(q *model.Questionnaire) (string, error) {
	var b strings.Builder
	b.WriteString("# Routing\n\n")

	jumps, err := collectJumps(q)
	if err != nil {
		return "", err
	}
	graph := make(map[string][]string)
	var order []string
	for i, s := range q.Sections {
		order = append(order, s.ID)
		if i+1 < len(q.Sections) {
			graph[s.ID] = append(graph[s.ID], q.Sections[i+1].ID)
		}
	}

	b.WriteString("## Flow\n\n```mermaid\ngraph TD\n")
	for i, id := range order {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", nodeID(id), mermaidText(id+". "+q.Sections[i].Title))
	}
	for i := 0; i+1 < len(order); i++ {
		fmt.Fprintf(&b, "  %s --> %s\n", nodeID(order[i]), nodeID(order[i+1]))
	}
	terminates := false
	for _, j := range jumps {
		label := mermaidText(j.question + " = " + j.code)
		switch j.outcome.Action {
		case routing.JumpTo:
			fmt.Fprintf(&b, "  %s -.->|%s| %s\n", nodeID(j.from), label, nodeID(j.outcome.Target))
			graph[j.from] = append(graph[j.from], j.outcome.Target)
		case routing.Terminate:
			fmt.Fprintf(&b, "  %s -.->|%s| END((END))\n", nodeID(j.from), label)
			terminates = true
		}
	}
	if terminates {
		fmt.Fprintf(&b, "  style END fill:#%s,color:#fff\n", layout.ColorTerminate)
	}
	b.WriteString("```\n\n")

	b.WriteString("## Terminations\n\n")
	n := 0
	for _, j := range jumps {
		if j.outcome.Action == routing.Terminate {
			fmt.Fprintf(&b, "- %s `%s` option %s (%s) %s\n", sectionLink(j.from), j.question, j.code, j.label, layout.TerminateNote)
			n++
		}
	}
	if n == 0 {
		b.WriteString("_None._\n")
	}

	b.WriteString("\n## Jumps\n\n")
	n = 0
	for _, j := range jumps {
		if j.outcome.Action == routing.JumpTo {
			fmt.Fprintf(&b, "- %s `%s` option %s (%s) %s\n", sectionLink(j.from), j.question, j.code, j.label,
				layout.JumpNote(sectionLink(j.outcome.Target)))
			n++
		}
	}
	if n == 0 {
		b.WriteString("_None._\n")
	}

	b.WriteString("\n## Routing Loops\n\n")
	cycles := findCycles(order, graph)
	if len(cycles) == 0 {
		b.WriteString("_None found._\n")
	} else {
		for _, cycle := range cycles {
			b.WriteString("- " + cycle + "\n")
		}
	}
	return b.String(), nil
}

// buildMethodologyPage builds methodology.md.
func buildMethodologyPage(n *preview.NotesBlock) string {
	var b strings.Builder
	b.WriteString("# Methodological Notes\n\n")
	if n == nil {
		b.WriteString("_No methodological notes._\n")
		return b.String()
	}
	for _, f := range []struct{ title, text string }{
		{"Sampling", n.Sampling},
		{"Quotas", n.Quotas},
		{"Limitations", n.Limitations},
	} {
		if f.text != "" {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", f.title, f.text)
		}
	}
	if len(n.Biases) > 0 {
		b.WriteString("## Biases Mitigated\n\n")
		for _, bias := range n.Biases {
			b.WriteString("- " + bias + "\n")
		}
	}
	return b.String()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func orAbsent(s string) string {
	if s == "" {
		return preview.Absent
	}
	return s
}

// nodeID returns a Mermaid-safe node identifier for a section id.
func nodeID(id string) string {
	var b strings.Builder
	b.WriteString("s_")
	for _, r := range id {
		if r < 128 && (r == '_' || r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// mermaidText escapes characters Mermaid treats as syntax in labels.
func mermaidText(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "|", "#124;", "[", "(", "]", ")")
	return r.Replace(s)
}

// sanitizeFilename replaces / and . with -, collapses consecutive - to one,
// and trims leading/trailing -.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, ".", "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(s, "-")
	return s
}

// writeNote writes content to path, creating parent directories as needed.
func writeNote(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// findCycles performs DFS cycle detection on the section flow graph.
// Returns one string per cycle in "S1 → S2 → S1" format. Results are
// deterministic because nodes are visited in questionnaire order and
// neighbors are sorted.
func findCycles(nodes []string, graph map[string][]string) []string {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n] = true
	}

	// DFS coloring: 0=white (unvisited), 1=gray (in stack), 2=black (done).
	color := make(map[string]int)
	var cycles []string
	var path []string

	var dfs func(node string)
	dfs = func(node string) {
		if color[node] == 2 {
			return
		}
		if color[node] == 1 {
			for i, n := range path {
				if n == node {
					cycleNodes := make([]string, len(path)-i+1)
					copy(cycleNodes, path[i:])
					cycleNodes[len(cycleNodes)-1] = node // close
					cycles = append(cycles, strings.Join(cycleNodes, " → "))
					return
				}
			}
			return
		}
		color[node] = 1
		path = append(path, node)
		neighbors := append([]string(nil), graph[node]...)
		sort.Strings(neighbors)
		for i, nb := range neighbors {
			if i > 0 && nb == neighbors[i-1] {
				continue
			}
			if known[nb] {
				dfs(nb)
			}
		}
		path = path[:len(path)-1]
		color[node] = 2
	}

	for _, node := range nodes {
		if color[node] == 0 {
			dfs(node)
		}
	}
	return cycles
}
