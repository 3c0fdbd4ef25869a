package docx

// package.go — OPC packaging.
//
// Parts are written in a fixed order. Every entry carries Props.Modified as
// its timestamp and the core properties use the same instant, so a document
// built twice from the same input with the same Modified value is
// byte-identical.

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

// Properties is the document metadata written to docProps/core.xml.
type Properties struct {
	Title    string
	Subject  string
	Creator  string
	Modified time.Time
}

type part struct {
	name string
	body string
}

const contentTypesXML = xml.Header + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
	`<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>` +
	`<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>` +
	`<Override PartName="/docProps/app.xml" ContentType="application/vnd.openxmlformats-officedocument.extended-properties+xml"/>` +
	`</Types>`

const rootRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>` +
	`<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>` +
	`<Relationship Id="rId3" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties" Target="docProps/app.xml"/>` +
	`</Relationships>`

const documentRelsXML = xml.Header + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
	`<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>` +
	`</Relationships>`

const appXML = xml.Header + `<Properties xmlns="http://schemas.openxmlformats.org/officeDocument/2006/extended-properties">` +
	`<Application>qdesigner</Application></Properties>`

func (d *Document) coreXML() string {
	w := &xmlWriter{}
	w.raw(xml.Header)
	w.raw(`<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"` +
		` xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/"` +
		` xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">`)
	w.raw("<dc:title>")
	w.escape(d.Props.Title)
	w.raw("</dc:title><dc:subject>")
	w.escape(d.Props.Subject)
	w.raw("</dc:subject><dc:creator>")
	w.escape(d.Props.Creator)
	w.raw("</dc:creator>")
	stamp := d.Props.Modified.UTC().Format("2006-01-02T15:04:05Z")
	w.raw(`<dcterms:created xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:created>`)
	w.raw(`<dcterms:modified xsi:type="dcterms:W3CDTF">` + stamp + `</dcterms:modified>`)
	w.raw("</cp:coreProperties>")
	return w.b.String()
}

func (d *Document) parts() []part {
	return []part{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", rootRelsXML},
		{"docProps/core.xml", d.coreXML()},
		{"docProps/app.xml", appXML},
		{"word/document.xml", d.bodyXML()},
		{"word/styles.xml", d.stylesXML()},
		{"word/_rels/document.xml.rels", documentRelsXML},
	}
}

// Write packages the document as a .docx zip stream.
func (d *Document) Write(out io.Writer) error {
	zw := zip.NewWriter(out)
	mod := d.Props.Modified.UTC()
	for _, p := range d.parts() {
		hdr := &zip.FileHeader{Name: p.name, Method: zip.Deflate}
		if !mod.IsZero() {
			hdr.Modified = mod
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("docx: create %s: %w", p.name, err)
		}
		if _, err := io.WriteString(fw, p.body); err != nil {
			return fmt.Errorf("docx: write %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("docx: close package: %w", err)
	}
	return nil
}

// Bytes returns the packaged document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
