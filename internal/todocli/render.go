package todocli

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"todotrack/internal/model"
)

// ScanningLabel is printed instead of groups while a full scan runs.
const ScanningLabel = "Scanning..."

// Report is what every output mode renders: the tag groups and the items
// under them, in group order.
type Report struct {
	Scanning bool
	Groups   []model.Group
	Items    []model.Item
}

func RenderJSONL(items []model.Item) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for _, item := range items {
		_ = enc.Encode(item)
	}
	return b.String()
}

// RenderJSONLValue encodes one value as a JSON line.
func RenderJSONLValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b) + "\n"
}

func RenderVim(items []model.Item) string {
	var b strings.Builder
	for _, item := range items {
		_, _ = fmt.Fprintf(&b, "%s:%d:1: %s\n", item.RelPath, item.Line, strings.TrimSpace(item.Text))
	}
	return b.String()
}

func RenderDefault(r Report, th Theme) string {
	var b strings.Builder
	if r.Scanning {
		_, _ = fmt.Fprintln(&b, th.Status.Sprint(ScanningLabel))
		return b.String()
	}

	byTag := map[string][]model.Item{}
	for _, item := range r.Items {
		byTag[item.Tag] = append(byTag[item.Tag], item)
	}

	for i, g := range r.Groups {
		if i > 0 {
			b.WriteByte('\n')
		}
		_, _ = fmt.Fprintf(&b, "%s %s\n", th.Header.Sprint(g.Tag), th.Count.Sprintf("(%d)", g.Count))
		for _, item := range byTag[g.Tag] {
			_, _ = fmt.Fprintf(&b, "  %s:%s  %s\n",
				th.Path.Sprint(item.RelPath),
				th.Line.Sprint(item.Line),
				th.Text.Sprint(strings.TrimSpace(item.Text)))
		}
	}
	return b.String()
}

type yamlGroup struct {
	Tag   string     `yaml:"tag"`
	Count int        `yaml:"count"`
	Items []yamlItem `yaml:"items"`
}

type yamlItem struct {
	File    string `yaml:"file"`
	Line    int    `yaml:"line"`
	Text    string `yaml:"text"`
	Tooltip string `yaml:"tooltip"`
}

func RenderYAML(r Report) (string, error) {
	doc := struct {
		Scanning bool        `yaml:"scanning"`
		Groups   []yamlGroup `yaml:"groups"`
	}{Scanning: r.Scanning, Groups: []yamlGroup{}}

	idx := map[string]int{}
	for _, g := range r.Groups {
		idx[g.Tag] = len(doc.Groups)
		doc.Groups = append(doc.Groups, yamlGroup{Tag: g.Tag, Count: g.Count})
	}
	for _, item := range r.Items {
		i, ok := idx[item.Tag]
		if !ok {
			continue
		}
		doc.Groups[i].Items = append(doc.Groups[i].Items, yamlItem{
			File:    item.RelPath,
			Line:    item.Line,
			Text:    item.Text,
			Tooltip: item.Tooltip,
		})
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// render picks the output mode from opts.
func render(opts *Options, r Report) (string, error) {
	switch {
	case opts.Jsonl:
		return RenderJSONL(r.Items), nil
	case opts.YAML:
		return RenderYAML(r)
	case opts.VimLines:
		return RenderVim(r.Items), nil
	default:
		return RenderDefault(r, ThemeFor(opts.Theme)), nil
	}
}
