// Package docx writes and reads the small subset of WordprocessingML the
// questionnaire document needs.
//
// A Document is a flat list of blocks: paragraphs, tables and page breaks.
// Formatting is set with chained calls in points and centimetres and
// converted to OOXML units on write (half-points for font size, twips for
// spacing and widths). Write packages the parts in a fixed order with every
// zip timestamp set to Properties.Modified, so equal input gives equal
// bytes.
package docx

// Alignment is a paragraph or table justification.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Border is a single line border.
type Border struct {
	Size  int // eighths of a point
	Space int
	Color string
}

// block is one body-level element.
type block interface {
	writeXML(w *xmlWriter, textWidth int)
}

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

// Document is an in-memory word processing document.
type Document struct {
	Props    Properties
	Page     PageSetup
	Defaults RunDefaults
	blocks   []block
}

// PageSetup is the page size and margins in centimetres.
type PageSetup struct {
	WidthCM        float64
	HeightCM       float64
	MarginTopCM    float64
	MarginBottomCM float64
	MarginLeftCM   float64
	MarginRightCM  float64
}

// RunDefaults is the Normal style font.
type RunDefaults struct {
	Font   string
	SizePt float64
	Color  string
}

// New returns an empty Letter-sized document with 2.5 cm side margins.
func New() *Document {
	return &Document{
		Page: PageSetup{
			WidthCM: 21.59, HeightCM: 27.94,
			MarginTopCM: 2.5, MarginBottomCM: 2, MarginLeftCM: 2.5, MarginRightCM: 2.5,
		},
		Defaults: RunDefaults{Font: "Calibri", SizePt: 10, Color: "000000"},
	}
}

// Paragraph appends an empty paragraph and returns it for formatting.
func (d *Document) Paragraph() *Paragraph {
	p := &Paragraph{}
	d.blocks = append(d.blocks, p)
	return p
}

// PageBreak appends a forced page break.
func (d *Document) PageBreak() {
	d.blocks = append(d.blocks, pageBreak{})
}

// Table appends a rows × cols table. Every cell starts with one empty
// paragraph.
func (d *Document) Table(rows, cols int) *Table {
	t := newTable(rows, cols)
	d.blocks = append(d.blocks, t)
	return t
}

// Len returns the number of body blocks.
func (d *Document) Len() int { return len(d.blocks) }

// textWidthTwips is the usable width between the side margins.
func (d *Document) textWidthTwips() int {
	return CM(d.Page.WidthCM - d.Page.MarginLeftCM - d.Page.MarginRightCM)
}

type pageBreak struct{}

// ---------------------------------------------------------------------------
// Paragraph and Run
// ---------------------------------------------------------------------------

// Paragraph is a block of runs.
type Paragraph struct {
	align      Alignment
	before     float64
	after      float64
	spacingSet bool
	indentCM   float64
	bottom     *Border
	runs       []*Run
}

// Align sets the justification.
func (p *Paragraph) Align(a Alignment) *Paragraph {
	p.align = a
	return p
}

// Spacing sets the space before and after in points.
func (p *Paragraph) Spacing(before, after float64) *Paragraph {
	p.before, p.after, p.spacingSet = before, after, true
	return p
}

// Indent sets the left indent in centimetres.
func (p *Paragraph) Indent(cm float64) *Paragraph {
	p.indentCM = cm
	return p
}

// BorderBottom draws a rule under the paragraph.
func (p *Paragraph) BorderBottom(b Border) *Paragraph {
	p.bottom = &b
	return p
}

// Run appends a text run and returns it for formatting.
func (p *Paragraph) Run(text string) *Run {
	r := &Run{text: text}
	p.runs = append(p.runs, r)
	return r
}

// Text returns the concatenated run text.
func (p *Paragraph) Text() string {
	s := ""
	for _, r := range p.runs {
		s += r.text
	}
	return s
}

// Run is a span of uniformly formatted text.
type Run struct {
	text   string
	sizePt float64
	bold   bool
	italic bool
	color  string
}

// Size sets the font size in points.
func (r *Run) Size(pt float64) *Run {
	r.sizePt = pt
	return r
}

// Bold makes the run bold.
func (r *Run) Bold() *Run {
	r.bold = true
	return r
}

// Italic makes the run italic.
func (r *Run) Italic() *Run {
	r.italic = true
	return r
}

// Color sets the RRGGBB text color.
func (r *Run) Color(hex string) *Run {
	r.color = hex
	return r
}

// ---------------------------------------------------------------------------
// Table
// ---------------------------------------------------------------------------

// Table is a grid of cells.
type Table struct {
	align    Alignment
	widthsCM []float64
	rows     [][]*Cell
}

func newTable(rows, cols int) *Table {
	t := &Table{rows: make([][]*Cell, rows)}
	for i := range t.rows {
		t.rows[i] = make([]*Cell, cols)
		for j := range t.rows[i] {
			t.rows[i][j] = &Cell{paras: []*Paragraph{{}}}
		}
	}
	return t
}

// Align sets the table justification.
func (t *Table) Align(a Alignment) *Table {
	t.align = a
	return t
}

// Widths sets the column widths in centimetres.
func (t *Table) Widths(cm ...float64) *Table {
	t.widthsCM = cm
	return t
}

// Cell returns the cell at row i, column j.
func (t *Table) Cell(i, j int) *Cell { return t.rows[i][j] }

// Rows returns the row count.
func (t *Table) Rows() int { return len(t.rows) }

// Cols returns the column count.
func (t *Table) Cols() int {
	if len(t.rows) == 0 {
		return 0
	}
	return len(t.rows[0])
}

// Cell is one table cell.
type Cell struct {
	paras   []*Paragraph
	shading string
	borders *Border
}

// Paragraph returns the cell's first paragraph.
func (c *Cell) Paragraph() *Paragraph { return c.paras[0] }

// AddParagraph appends a paragraph to the cell.
func (c *Cell) AddParagraph() *Paragraph {
	p := &Paragraph{}
	c.paras = append(c.paras, p)
	return p
}

// Shade fills the cell background with an RRGGBB color.
func (c *Cell) Shade(hex string) *Cell {
	c.shading = hex
	return c
}

// Border draws b on all four edges of the cell.
func (c *Cell) Border(b Border) *Cell {
	c.borders = &b
	return c
}

// ---------------------------------------------------------------------------
// Units
// ---------------------------------------------------------------------------

// CM converts centimetres to twips.
func CM(cm float64) int { return int(cm*567 + 0.5) }

// PT converts points to twips.
func PT(pt float64) int { return int(pt*20 + 0.5) }

// HalfPoints converts a font size in points to half-points.
func HalfPoints(pt float64) int { return int(pt*2 + 0.5) }
