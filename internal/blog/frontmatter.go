package blog

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const fence = "---"

type frontMatter struct {
	Title   string  `yaml:"title"`
	Date    string  `yaml:"date"`
	Excerpt string  `yaml:"excerpt"`
	Author  string  `yaml:"author"`
	Tags    tagList `yaml:"tags"`
}

// tagList accepts a yaml sequence or a comma separated scalar.
type tagList []string

func (t *tagList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.SequenceNode:
		var out []string
		if err := n.Decode(&out); err != nil {
			return err
		}
		*t = clean(out)
	case yaml.ScalarNode:
		v := strings.TrimSpace(n.Value)
		v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
		*t = clean(strings.Split(v, ","))
	default:
		return fmt.Errorf("tags: unexpected yaml node kind %d", n.Kind)
	}
	return nil
}

func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.Trim(strings.TrimSpace(s), `"'`)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// splitFrontMatter separates a leading "---" fenced block from the body. A
// document without an opening fence, or with one that is never closed, has no
// front matter.
func splitFrontMatter(src []byte) (meta, body []byte) {
	src = bytes.ReplaceAll(src, []byte("\r\n"), []byte("\n"))
	lines := bytes.SplitAfter(src, []byte("\n"))
	if len(lines) == 0 || string(bytes.TrimRight(lines[0], "\r\n")) != fence {
		return nil, src
	}
	off := len(lines[0])
	for _, l := range lines[1:] {
		if string(bytes.TrimRight(l, "\r\n")) == fence {
			return src[len(lines[0]):off], src[off+len(l):]
		}
		off += len(l)
	}
	return nil, src
}

func parseFrontMatter(src []byte) (frontMatter, []byte, error) {
	var fm frontMatter
	meta, body := splitFrontMatter(src)
	if len(bytes.TrimSpace(meta)) == 0 {
		return fm, body, nil
	}
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return fm, body, fmt.Errorf("front matter: %w", err)
	}
	return fm, body, nil
}
