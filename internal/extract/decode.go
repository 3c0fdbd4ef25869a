package extract

// decode.go — The one path from bytes to a validated questionnaire.

import (
	"errors"
	"path/filepath"
	"strings"

	"qdesigner/internal/model"
)

// Format hints how input bytes should be read.
type Format int

const (
	// Text is free text that contains a JSON object, such as a model reply
	// or a bare JSON document.
	Text Format = iota
	// YAML is a YAML (or JSON) document parsed as is.
	YAML
	// Auto reads the input as Text and falls back to YAML.
	Auto
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case YAML:
		return "yaml"
	case Auto:
		return "auto"
	}
	return "format(?)"
}

// FormatOf picks the format for a named source. ".yaml"/".yml" files are
// YAML, "-" (stdin) and names without an extension are Auto, and
// everything else is Text.
func FormatOf(name string) Format {
	if name == "-" {
		return Auto
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return YAML
	case "":
		return Auto
	}
	return Text
}

// Decode runs extract → parse → validate. Failures keep their type:
// *Error from extraction, model.ErrSyntax from parsing and
// *model.ValidationError from validation.
//
// With Auto, a failed text read is retried as a YAML document and the
// text error is returned when that fails too.
func Decode(data []byte, f Format) (*model.Questionnaire, error) {
	switch f {
	case YAML:
		return parse(data)
	case Auto:
		q, err := decodeText(data)
		if err == nil {
			return q, nil
		}
		if yq, yerr := parse(data); yerr == nil {
			return yq, nil
		}
		return nil, err
	}
	return decodeText(data)
}

func decodeText(data []byte) (*model.Questionnaire, error) {
	obj, err := Extract(string(data))
	if err != nil {
		return nil, err
	}
	return parse(obj)
}

func parse(data []byte) (*model.Questionnaire, error) {
	raw, err := model.Parse(data)
	if err != nil {
		return nil, err
	}
	return model.Validate(raw)
}

// IsExtraction reports whether err came from finding the JSON object.
func IsExtraction(err error) bool {
	var e *Error
	return errors.As(err, &e)
}
