// Package frontmatter provides helpers for reading and writing markdown files
// that carry YAML frontmatter between --- delimiters.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned by Parse when the opening delimiter is absent.
var ErrNoFrontmatter = errors.New("frontmatter: missing opening --- delimiter")

// Parse splits a markdown document into its frontmatter (raw YAML bytes) and
// body. The document must begin with "---\n"; the closing "---" line ends the
// frontmatter block. CRLF line endings are accepted.
func Parse(data []byte) (frontmatter []byte, body []byte, err error) {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	const delim = "---\n"
	if !bytes.HasPrefix(data, []byte(delim)) {
		return nil, nil, ErrNoFrontmatter
	}
	rest := data[len(delim):]
	var fm, tail []byte
	if bytes.HasPrefix(rest, []byte("---")) {
		// Empty frontmatter block.
		tail = rest[3:]
	} else {
		idx := bytes.Index(rest, []byte("\n---"))
		if idx < 0 {
			return nil, nil, fmt.Errorf("frontmatter: missing closing --- delimiter")
		}
		fm = rest[:idx]
		tail = rest[idx+4:]
	}
	// Skip past closing delimiter and optional newline.
	if len(tail) > 0 && tail[0] == '\n' {
		tail = tail[1:]
	}
	return fm, tail, nil
}

// Decode unmarshals the frontmatter of data into v and returns the body.
// A document without frontmatter leaves v untouched and is all body.
func Decode(data []byte, v any) (body []byte, err error) {
	fm, body, err := Parse(data)
	if errors.Is(err, ErrNoFrontmatter) {
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(fm, v); err != nil {
		return nil, fmt.Errorf("frontmatter: unmarshal: %w", err)
	}
	return body, nil
}

// Write marshals v as YAML frontmatter and concatenates body, returning the
// complete markdown document with --- delimiters.
func Write(v any, body string) ([]byte, error) {
	fm, err := yaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: marshal: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n")
	if body != "" {
		buf.WriteString(body)
	}
	return buf.Bytes(), nil
}
