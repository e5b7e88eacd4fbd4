package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

// Config holds the process configuration loaded from YAML, with environment
// variable overrides for deployment-specific values.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	Files    FilesConfig    `yaml:"files"`
	// Roles maps agency-wide roles to a fixed user. Steps whose role is not
	// mapped here fall back to the first user holding that role.
	Roles map[string]string `yaml:"roles"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type NATSConfig struct {
	// URL enables NATS push notifications when set. Empty disables the
	// publisher; in-process SSE subscribers still work.
	URL string `yaml:"url"`
}

type FilesConfig struct {
	BaseURL string `yaml:"base_url"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "agencyflow.db"},
		Files:    FilesConfig{BaseURL: "http://localhost:9000/agencyflow"},
		Roles:    map[string]string{},
	}
}

// Load reads the config file at path, applies env overrides, and validates.
// A missing file is not an error; defaults are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to defaults
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("AGENCYFLOW_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("AGENCYFLOW_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("AGENCYFLOW_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("AGENCYFLOW_FILES_URL"); v != "" {
		cfg.Files.BaseURL = v
	}
}

func (c Config) validate() error {
	for role := range c.Roles {
		if !domain.GlobalRoles[domain.Role(role)] {
			return fmt.Errorf("config: %q is not an agency-wide role", role)
		}
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("config: server.addr must not be empty")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("config: database.path must not be empty")
	}
	return nil
}

// GlobalRoles converts the role map into domain identifiers.
func (c Config) GlobalRoles() map[domain.Role]domain.UserID {
	out := make(map[domain.Role]domain.UserID, len(c.Roles))
	for role, user := range c.Roles {
		out[domain.Role(role)] = domain.UserID(user)
	}
	return out
}
