// Package frontmatter reads and writes markdown files that carry a YAML
// header delimited by "---" lines.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

type Meta struct {
	Title    string   `yaml:"title,omitempty"`
	Notebook string   `yaml:"notebook,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
	Pinned   bool     `yaml:"pinned,omitempty"`
	Created  string   `yaml:"created,omitempty"`
	Updated  string   `yaml:"updated,omitempty"`
}

var ErrUnterminated = errors.New("frontmatter started but no closing delimiter found")

// Parse splits data into its metadata and body. Files without a header
// return an empty Meta and the whole input as body.
func Parse(data []byte) (Meta, string, error) {
	var meta Meta
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if !strings.HasPrefix(text, delimiter+"\n") {
		return meta, text, nil
	}
	rest := text[len(delimiter)+1:]
	header, body, found := cutClosing(rest)
	if !found {
		return meta, "", ErrUnterminated
	}
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return meta, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, strings.TrimPrefix(body, "\n"), nil
}

func cutClosing(rest string) (string, string, bool) {
	if strings.HasPrefix(rest, delimiter+"\n") || rest == delimiter {
		return "", strings.TrimPrefix(rest, delimiter), true
	}
	idx := strings.Index(rest, "\n"+delimiter+"\n")
	if idx >= 0 {
		return rest[:idx], rest[idx+len(delimiter)+2:], true
	}
	if strings.HasSuffix(rest, "\n"+delimiter) {
		return rest[:len(rest)-len(delimiter)-1], "", true
	}
	return "", "", false
}

// Format renders meta as a YAML header followed by body.
func Format(meta Meta, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter + "\n")
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(meta); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	buf.WriteString(delimiter + "\n")
	buf.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}
