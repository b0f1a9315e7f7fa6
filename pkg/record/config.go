package record

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	Strict      bool   `json:"strict"`
	Parallel    int64  `json:"parallel"`
	Compression string `json:"compression"`
}

func DefaultConfig() Config {
	return Config{Strict: true, Parallel: 4, Compression: "snappy"}
}

func (c Config) parallel() int64 {
	if c.Parallel <= 0 {
		return 1
	}
	return c.Parallel
}

// FindConfigPath looks for config.json in dir and its parents and returns
// the file path and the directory holding it.
func FindConfigPath(dir string) (string, string, error) {
	start := dir
	for {
		path := filepath.Join(dir, "config.json")
		if _, err := os.Stat(path); err == nil {
			return path, filepath.Dir(path), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", fmt.Errorf("config.json not found from %s", start)
}

// LoadConfig reads path on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := compressionCodec(cfg.Compression); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}
