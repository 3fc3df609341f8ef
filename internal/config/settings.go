package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TODOTRACK"

// Settings are tool-level knobs, separate from the project's .todo.json.
type Settings struct {
	LogLevel  string
	LogFormat string
	Backend   string
	Debounce  time.Duration
	Workers   int
}

// LoadSettings reads TODOTRACK_* variables from the environment, falling
// back to a .env file in dir and then to built-in defaults.
func LoadSettings(dir string) (Settings, error) {
	v := viper.New()
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("backend", "memory")
	v.SetDefault("debounce", 200*time.Millisecond)
	v.SetDefault("workers", 0)

	if strings.TrimSpace(dir) != "" {
		env, err := godotenv.Read(filepath.Join(dir, ".env"))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, err
		}
		for k, val := range env {
			if key, ok := strings.CutPrefix(k, envPrefix+"_"); ok {
				v.SetDefault(strings.ToLower(key), val)
			}
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	return Settings{
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		Backend:   v.GetString("backend"),
		Debounce:  v.GetDuration("debounce"),
		Workers:   v.GetInt("workers"),
	}, nil
}
