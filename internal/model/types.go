package model

// Record is one tagged comment found in a file. Records are values and are
// never mutated after a scan produces them.
type Record struct {
	Tag  string `json:"tag" yaml:"tag"`
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
	Text string `json:"text" yaml:"text"`
}

type Group struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// Item is a record prepared for display.
type Item struct {
	File    string `json:"file" yaml:"file"`
	RelPath string `json:"rel_path" yaml:"rel_path"`
	Name    string `json:"name" yaml:"name"`
	Tag     string `json:"tag" yaml:"tag"`
	Line    int    `json:"line" yaml:"line"`
	Text    string `json:"text" yaml:"text"`
	Tooltip string `json:"tooltip" yaml:"tooltip"`
}

type Location struct {
	Path  string `json:"path"`
	Line0 int    `json:"line0"`
	Col   int    `json:"col"`
}
