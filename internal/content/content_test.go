package content

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"qdesigner/internal/docx"
	"qdesigner/internal/logging"
	"qdesigner/internal/settings"
)

func TestPlainTextFallsBackToLatin1(t *testing.T) {
	utf := []byte("Satisfação do cliente")
	got, err := plainText(utf)
	require.NoError(t, err)
	assert.Equal(t, "Satisfação do cliente", got)

	latin1 := []byte{'S', 'a', 't', 'i', 's', 'f', 'a', 0xE7, 0xE3, 'o'}
	got, err = plainText(latin1)
	require.NoError(t, err)
	assert.Equal(t, "Satisfação", got)

	got, err = plainText([]byte("\xef\xbb\xbfBOM"))
	require.NoError(t, err)
	assert.Equal(t, "BOM", got)
}

func TestHTMLText(t *testing.T) {
	page := `<html><head><title>ignored</title><style>p{}</style></head><body>
		<h1>Brief</h1>
		<p>Commuters   in <b>Lisbon</b></p>
		<script>var x = 1;</script>
		<table><tr><th>Segment</th><th>Quota</th></tr><tr><td>18-34</td><td>50%</td></tr></table>
		<ul><li>One</li><li>Two</li></ul>
	</body></html>`
	got, err := htmlText([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Brief\nCommuters in Lisbon\nSegment | Quota\n18-34 | 50%\nOne\nTwo", got)
}

func TestDocxText(t *testing.T) {
	d := docx.New()
	d.Paragraph().Run("Objective: measure NPS")
	tbl := d.Table(1, 2)
	tbl.Cell(0, 0).Paragraph().Run("Audience")
	tbl.Cell(0, 1).Paragraph().Run("Retail owners")
	data, err := d.Bytes()
	require.NoError(t, err)

	doc, err := Extract("brief.docx", data)
	require.NoError(t, err)
	assert.Equal(t, "Objective: measure NPS\nAudience | Retail owners", doc.Text)
}

func pptx(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range slides {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPptxText(t *testing.T) {
	const ns = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	data := pptx(t, map[string]string{
		"ppt/slides/slide10.xml": `<p:sld ` + ns + `><a:p><a:r><a:t>Tenth</a:t></a:r></a:p></p:sld>`,
		"ppt/slides/slide2.xml":  `<p:sld ` + ns + `><a:p><a:r><a:t>Objectives</a:t></a:r></a:p><a:p><a:r><a:t>Grow </a:t></a:r><a:r><a:t>share</a:t></a:r></a:p></p:sld>`,
		"ppt/slides/slide3.xml":  `<p:sld ` + ns + `><a:p/></p:sld>`,
		"ppt/presentation.xml":   `<p:presentation ` + ns + `/>`,
	})
	got, err := pptxText(data)
	require.NoError(t, err)
	assert.Equal(t, "[Slide 2]\nObjectives\nGrow share\n\n[Slide 10]\nTenth", got)
}

func TestXlsxText(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Segment", "Quota"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"18-34", 50}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"", "gap"}))
	_, err := f.NewSheet("Empty")
	require.NoError(t, err)
	_, err = f.NewSheet("Regions")
	require.NoError(t, err)
	for i := 1; i <= maxSheetRows+5; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue("Regions", cell, i))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	doc, err := Extract("quotas.xlsx", buf.Bytes())
	require.NoError(t, err)
	parts := strings.Split(doc.Text, "\n\n")
	require.Len(t, parts, 2)
	assert.Equal(t, "[Sheet Sheet1]\nSegment | Quota\n18-34 | 50\ngap", parts[0])

	regions := strings.Split(parts[1], "\n")
	assert.Equal(t, "[Sheet Regions]", regions[0])
	assert.Len(t, regions, maxSheetRows+1)
	assert.Equal(t, "100", regions[len(regions)-1])
}

// minimalPDF builds a one-page PDF whose content stream shows each line
// in its own text object.
func minimalPDF(lines ...string) []byte {
	var content bytes.Buffer
	for i, l := range lines {
		fmt.Fprintf(&content, "BT /F1 12 Tf 72 %d Td (%s) Tj ET\n", 720-20*i, l)
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
	}
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, o := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}

func TestPdfText(t *testing.T) {
	doc, err := Extract("brief.pdf", minimalPDF("Objective: commuter NPS", "Audience: adults"))
	require.NoError(t, err)
	assert.Equal(t, "Objective: commuter NPS\nAudience: adults", doc.Text)
}

func TestPdfTextMalformed(t *testing.T) {
	_, err := Extract("broken.pdf", []byte("%PDF-1.4 but nothing else"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnsupported)
}

func TestExtractUnsupported(t *testing.T) {
	for _, name := range []string{"deck.key", "data.numbers", "noext"} {
		_, err := Extract(name, []byte("x"))
		assert.ErrorIs(t, err, ErrUnsupported, name)
	}
	assert.True(t, Supported("Brief.MD"))
	assert.True(t, Supported("a.PDF"))
	assert.True(t, Supported("quotas.xlsx"))
	assert.False(t, Supported("a.key"))
}

func TestBlock(t *testing.T) {
	assert.Equal(t, "--- Document: a.txt ---\nhello", Document{Name: "a.txt", Text: "hello"}.Block())
	assert.Equal(t, "--- Document: b.txt (no text could be extracted) ---", Document{Name: "b.txt"}.Block())
	assert.Equal(t,
		"--- Document: a.txt ---\nhello\n\n--- Document: b.txt (no text could be extracted) ---",
		Combine([]Document{{Name: "a.txt", Text: "hello"}, {Name: "b.txt"}}))
}

func writeFile(t *testing.T, dir, rel, body string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_brief.md", "# Brief\nNPS study")
	writeFile(t, dir, "a_notes.txt", "  ")
	writeFile(t, dir, "deck.key", "keynote")
	writeFile(t, dir, "private/salaries.txt", "secret")
	writeFile(t, dir, ".git/HEAD", "ref")

	st := settings.Default()
	st.Permissions.Deny = []string{"Read(./private/**)"}
	l := Loader{Settings: st, Logger: logging.Nop()}

	docs, warnings, err := l.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a_notes.txt", docs[0].Name)
	assert.Equal(t, "", docs[0].Text)
	assert.Equal(t, "b_brief.md", docs[1].Name)
	assert.Equal(t, "# Brief\nNPS study", docs[1].Text)

	require.Len(t, warnings, 1)
	assert.True(t, errors.Is(warnings[0].Err, ErrUnsupported))
	assert.Equal(t, "deck.key", filepath.Base(warnings[0].Name))

	for _, d := range docs {
		assert.NotContains(t, d.Text, "secret")
	}
}

func TestLoadFilesMissing(t *testing.T) {
	docs, warnings := Loader{}.LoadFiles([]string{filepath.Join(t.TempDir(), "gone.txt")})
	assert.Empty(t, docs)
	require.Len(t, warnings, 1)
	assert.ErrorIs(t, warnings[0].Err, os.ErrNotExist)
}
