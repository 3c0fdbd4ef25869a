package docx

// read.go — Plain-text extraction from .docx files.

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrNoDocumentPart is returned for zips without word/document.xml.
var ErrNoDocumentPart = errors.New("docx: word/document.xml not found")

// ExtractText returns the text of a .docx in reading order: one line per
// non-empty paragraph, and one line per table row with its non-empty cells
// joined by " | ".
func ExtractText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx: open: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("docx: open document part: %w", err)
		}
		defer rc.Close()
		return paragraphsText(rc)
	}
	return "", ErrNoDocumentPart
}

// row collects the cells of one table row while it is being read.
type row struct {
	cells []string
	cell  []string
}

func paragraphsText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		lines []string
		rows  []*row
		cur   strings.Builder
		inT   bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("docx: parse document: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inT = true
			case "tab":
				cur.WriteByte('\t')
			case "br":
				cur.WriteByte('\n')
			case "tr":
				rows = append(rows, &row{})
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inT = false
			case "p":
				line := strings.TrimSpace(cur.String())
				cur.Reset()
				if line == "" {
					continue
				}
				if len(rows) > 0 {
					top := rows[len(rows)-1]
					top.cell = append(top.cell, line)
				} else {
					lines = append(lines, line)
				}
			case "tc":
				if len(rows) > 0 {
					top := rows[len(rows)-1]
					if text := strings.Join(top.cell, " "); text != "" {
						top.cells = append(top.cells, text)
					}
					top.cell = nil
				}
			case "tr":
				if len(rows) == 0 {
					continue
				}
				top := rows[len(rows)-1]
				rows = rows[:len(rows)-1]
				text := strings.Join(top.cells, " | ")
				switch {
				case text == "":
				case len(rows) > 0:
					parent := rows[len(rows)-1]
					parent.cell = append(parent.cell, text)
				default:
					lines = append(lines, text)
				}
			}
		case xml.CharData:
			if inT {
				cur.Write(el)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
