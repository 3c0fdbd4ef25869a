package layout

// style.go — Kind labels, preview glyphs and the shared palette.

import (
	"qdesigner/internal/model"
	"qdesigner/internal/routing"
)

var kindLabels = map[model.Kind]string{
	model.SingleChoice:   "Single Choice",
	model.MultipleChoice: "Multiple Choice",
	model.ScaleNumeric:   "Numeric Scale",
	model.ScaleLikert:    "Likert Scale",
	model.NPS:            "NPS (0-10)",
	model.Ranking:        "Ranking / Ordering",
	model.OpenText:       "Open Text",
	model.Matrix:         "Matrix / Grid",
}

var kindGlyphs = map[model.Kind]string{
	model.SingleChoice:   "⏺",
	model.MultipleChoice: "☑",
	model.ScaleNumeric:   "🔢",
	model.ScaleLikert:    "📊",
	model.NPS:            "📈",
	model.Ranking:        "🏆",
	model.OpenText:       "✏",
	model.Matrix:         "📋",
}

// KindLabel returns the human-readable label of k.
func KindLabel(k model.Kind) string {
	if s, ok := kindLabels[k]; ok {
		return s
	}
	return k.String()
}

// KindGlyph returns the preview glyph of k.
func KindGlyph(k model.Kind) string {
	if s, ok := kindGlyphs[k]; ok {
		return s
	}
	return "❓"
}

// Required marker text.
const RequiredMark = "*Required"

// Palette colors as RRGGBB hex, shared by the document and the terminal
// preview.
const (
	ColorPrimary   = "1A568E"
	ColorSecondary = "2E86C1"
	ColorAccent    = "5DAED8"
	ColorDark      = "2C3E50"
	ColorLightBG   = "EBF5FB"
	ColorText      = "333333"
	ColorMuted     = "777777"
	ColorTerminate = "C0392B"
	ColorSkip      = "E67E22"
	ColorNote      = "8E44AD"
	ColorBorder    = "CCCCCC"
)

// AnnotationColor returns the palette color of a routing annotation.
func AnnotationColor(it Item) string {
	if it.Outcome.Action == routing.Terminate {
		return ColorTerminate
	}
	return ColorSkip
}
