package docx

// xml.go — WordprocessingML serialization of body blocks.
//
// Child elements are written in schema order (pPr: pBdr, spacing, ind, jc;
// rPr: b, i, color, sz, szCs; tcPr: tcW, tcBorders, shd); Word rejects
// out-of-order properties.

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const nsW = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

type xmlWriter struct {
	b strings.Builder
}

func (w *xmlWriter) raw(s string) { w.b.WriteString(s) }

// elem writes a self-closing element with attribute pairs.
func (w *xmlWriter) elem(name string, attrs ...string) {
	w.b.WriteString("<" + name)
	for i := 0; i+1 < len(attrs); i += 2 {
		w.b.WriteString(" " + attrs[i] + `="`)
		w.escape(attrs[i+1])
		w.b.WriteString(`"`)
	}
	w.b.WriteString("/>")
}

func (w *xmlWriter) escape(s string) {
	// EscapeText only fails when the underlying writer does.
	_ = xml.EscapeText(&w.b, []byte(s))
}

func itoa(n int) string { return strconv.Itoa(n) }

func (pageBreak) writeXML(w *xmlWriter, _ int) {
	w.raw(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
}

func (p *Paragraph) writeXML(w *xmlWriter, _ int) {
	w.raw("<w:p>")
	if p.bottom != nil || p.spacingSet || p.indentCM > 0 || p.align != "" {
		w.raw("<w:pPr>")
		if b := p.bottom; b != nil {
			w.raw("<w:pBdr>")
			w.elem("w:bottom", "w:val", "single", "w:sz", itoa(b.Size), "w:space", itoa(b.Space), "w:color", b.Color)
			w.raw("</w:pBdr>")
		}
		if p.spacingSet {
			w.elem("w:spacing", "w:before", itoa(PT(p.before)), "w:after", itoa(PT(p.after)))
		}
		if p.indentCM > 0 {
			w.elem("w:ind", "w:left", itoa(CM(p.indentCM)))
		}
		if p.align != "" {
			w.elem("w:jc", "w:val", string(p.align))
		}
		w.raw("</w:pPr>")
	}
	for _, r := range p.runs {
		r.writeXML(w)
	}
	w.raw("</w:p>")
}

func (r *Run) writeXML(w *xmlWriter) {
	w.raw("<w:r>")
	if r.bold || r.italic || r.color != "" || r.sizePt > 0 {
		w.raw("<w:rPr>")
		if r.bold {
			w.raw("<w:b/>")
		}
		if r.italic {
			w.raw("<w:i/>")
		}
		if r.color != "" {
			w.elem("w:color", "w:val", r.color)
		}
		if r.sizePt > 0 {
			hp := itoa(HalfPoints(r.sizePt))
			w.elem("w:sz", "w:val", hp)
			w.elem("w:szCs", "w:val", hp)
		}
		w.raw("</w:rPr>")
	}
	for i, line := range strings.Split(r.text, "\n") {
		if i > 0 {
			w.raw("<w:br/>")
		}
		w.raw(`<w:t xml:space="preserve">`)
		w.escape(line)
		w.raw("</w:t>")
	}
	w.raw("</w:r>")
}

// writeXML spreads textWidth evenly over columns without a set width.
func (t *Table) writeXML(w *xmlWriter, textWidth int) {
	cols := t.Cols()
	widths := make([]int, cols)
	for j := range widths {
		if j < len(t.widthsCM) {
			widths[j] = CM(t.widthsCM[j])
		} else if cols > 0 {
			widths[j] = textWidth / cols
		}
	}

	w.raw("<w:tbl><w:tblPr>")
	w.elem("w:tblW", "w:w", "0", "w:type", "auto")
	if t.align != "" {
		w.elem("w:jc", "w:val", string(t.align))
	}
	w.elem("w:tblLook", "w:val", "04A0", "w:firstRow", "1", "w:lastRow", "0", "w:firstColumn", "1", "w:lastColumn", "0", "w:noHBand", "0", "w:noVBand", "1")
	w.raw("</w:tblPr><w:tblGrid>")
	for _, wd := range widths {
		w.elem("w:gridCol", "w:w", itoa(wd))
	}
	w.raw("</w:tblGrid>")
	for _, row := range t.rows {
		w.raw("<w:tr>")
		for j, c := range row {
			w.raw("<w:tc><w:tcPr>")
			w.elem("w:tcW", "w:w", itoa(widths[j]), "w:type", "dxa")
			if b := c.borders; b != nil {
				w.raw("<w:tcBorders>")
				for _, edge := range []string{"top", "left", "bottom", "right"} {
					w.elem("w:"+edge, "w:val", "single", "w:sz", itoa(b.Size), "w:space", itoa(b.Space), "w:color", b.Color)
				}
				w.raw("</w:tcBorders>")
			}
			if c.shading != "" {
				w.elem("w:shd", "w:val", "clear", "w:color", "auto", "w:fill", c.shading)
			}
			w.raw("</w:tcPr>")
			for _, p := range c.paras {
				p.writeXML(w, 0)
			}
			w.raw("</w:tc>")
		}
		w.raw("</w:tr>")
	}
	w.raw("</w:tbl>")
}

func (d *Document) bodyXML() string {
	w := &xmlWriter{}
	w.raw(xml.Header)
	w.raw(`<w:document xmlns:w="` + nsW + `" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><w:body>`)
	tw := d.textWidthTwips()
	prevTable := false
	for _, b := range d.blocks {
		b.writeXML(w, tw)
		_, prevTable = b.(*Table)
	}
	// A body may not end in a table.
	if prevTable {
		w.raw("<w:p/>")
	}
	pg := d.Page
	w.raw("<w:sectPr>")
	w.elem("w:pgSz", "w:w", itoa(CM(pg.WidthCM)), "w:h", itoa(CM(pg.HeightCM)))
	w.elem("w:pgMar",
		"w:top", itoa(CM(pg.MarginTopCM)), "w:right", itoa(CM(pg.MarginRightCM)),
		"w:bottom", itoa(CM(pg.MarginBottomCM)), "w:left", itoa(CM(pg.MarginLeftCM)),
		"w:header", "708", "w:footer", "708", "w:gutter", "0")
	w.raw("</w:sectPr></w:body></w:document>")
	return w.b.String()
}

func (d *Document) stylesXML() string {
	w := &xmlWriter{}
	w.raw(xml.Header)
	w.raw(`<w:styles xmlns:w="` + nsW + `"><w:docDefaults><w:rPrDefault><w:rPr>`)
	w.elem("w:rFonts", "w:ascii", d.Defaults.Font, "w:hAnsi", d.Defaults.Font, "w:cs", d.Defaults.Font)
	w.elem("w:color", "w:val", d.Defaults.Color)
	hp := itoa(HalfPoints(d.Defaults.SizePt))
	w.elem("w:sz", "w:val", hp)
	w.elem("w:szCs", "w:val", hp)
	w.raw(`</w:rPr></w:rPrDefault><w:pPrDefault><w:pPr>`)
	w.elem("w:spacing", "w:after", "0", "w:line", "259", "w:lineRule", "auto")
	w.raw(`</w:pPr></w:pPrDefault></w:docDefaults>`)
	w.raw(`<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:qFormat/></w:style>`)
	w.raw(`<w:style w:type="table" w:default="1" w:styleId="TableNormal"><w:name w:val="Normal Table"/><w:tblPr><w:tblInd w:w="0" w:type="dxa"/><w:tblCellMar><w:top w:w="0" w:type="dxa"/><w:left w:w="108" w:type="dxa"/><w:bottom w:w="0" w:type="dxa"/><w:right w:w="108" w:type="dxa"/></w:tblCellMar></w:tblPr></w:style>`)
	w.raw(`</w:styles>`)
	return w.b.String()
}
