package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// FileName is the project-local override, looked up at the project root.
const FileName = ".todo.json"

var defaultCommentTypes = []string{
	"TODO",
	"FIXME",
	"OPTIMIZE",
	"REFACTOR",
	"REVIEW",
	"DEBUG",
	"NOTE",
	"DEPRECATED",
}

var defaultFileTypes = []string{
	"js", "jsx", "ts", "tsx",
	"html", "css", "scss", "json",
	"py", "java", "dart", "php",
	"rb", "cs", "go", "rs",
}

// Config is the active tag and extension set. Both lists are non-empty.
type Config struct {
	CommentTypes []string `json:"commentTypes" mapstructure:"commentTypes"`
	FileTypes    []string `json:"fileTypes" mapstructure:"fileTypes"`
}

func Default() Config {
	return Config{
		CommentTypes: append([]string(nil), defaultCommentTypes...),
		FileTypes:    append([]string(nil), defaultFileTypes...),
	}
}

// Resolve returns the configuration for the project at root. A missing
// override yields the defaults silently; an unreadable or malformed one is
// reported once through n and also yields the defaults.
func Resolve(root string, n Notifier) Config {
	if strings.TrimSpace(root) == "" {
		return Default()
	}
	path := filepath.Join(root, FileName)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			notifyError(n, fmt.Sprintf("Error reading %s: %v", FileName, err))
		}
		return Default()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		notifyError(n, fmt.Sprintf("Error reading %s: %v", FileName, err))
		return Default()
	}

	var raw Config
	if err := v.Unmarshal(&raw); err != nil {
		notifyError(n, fmt.Sprintf("Error reading %s: %v", FileName, err))
		return Default()
	}
	return raw.normalized()
}

// EnsureFile writes the default override to root once. An existing file is
// never touched.
func EnsureFile(root string) (bool, error) {
	if strings.TrimSpace(root) == "" {
		return false, fmt.Errorf("root is required")
	}
	b, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return false, err
	}
	b = append(b, '\n')

	f, err := os.OpenFile(filepath.Join(root, FileName), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("create %s: %w", FileName, err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("write %s: %w", FileName, err)
	}
	if err := f.Close(); err != nil {
		return false, err
	}
	return true, nil
}

func (c Config) normalized() Config {
	out := Config{
		CommentTypes: uniq(c.CommentTypes, func(s string) string { return s }),
		FileTypes: uniq(c.FileTypes, func(s string) string {
			return strings.TrimPrefix(strings.TrimPrefix(s, "*"), ".")
		}),
	}
	if len(out.CommentTypes) == 0 {
		out.CommentTypes = append([]string(nil), defaultCommentTypes...)
	}
	if len(out.FileTypes) == 0 {
		out.FileTypes = append([]string(nil), defaultFileTypes...)
	}
	return out
}

func uniq(in []string, clean func(string) string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range in {
		s = clean(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		key := strings.ToUpper(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
