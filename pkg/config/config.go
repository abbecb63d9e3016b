package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	dirName  = ".hecvat-adk"
	fileName = "config.yaml"

	// EnvAPIKey overrides the stored Gemini key.
	EnvAPIKey = "GOOGLE_API_KEY"
)

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// InputsConfig points at the rule data every run needs.
type InputsConfig struct {
	Catalog string `yaml:"catalog"`
	Weights string `yaml:"weights"`
	Rules   string `yaml:"rules"`
}

// ArchiveConfig selects where current snapshots are kept between runs.
type ArchiveConfig struct {
	Backend  string `yaml:"backend"` // file or sqlite
	Path     string `yaml:"path"`
	Compress bool   `yaml:"compress"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

type AssistantConfig struct {
	Provider  string                    `yaml:"provider"`
	Model     string                    `yaml:"model"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type Config struct {
	Logger    LoggerConfig    `yaml:"logger"`
	Inputs    InputsConfig    `yaml:"inputs"`
	OutputDir string          `yaml:"output_dir"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Logger: LoggerConfig{Level: "INFO"},
		Inputs: InputsConfig{
			Catalog: "references/catalog.yaml",
			Weights: "references/category_weights.yaml",
			Rules:   "references/rules",
		},
		OutputDir: "hecvat-output",
		Archive:   ArchiveConfig{Backend: "file", Path: "hecvat-archive"},
		Assistant: AssistantConfig{
			Provider:  "gemini",
			Model:     "gemini-1.5-flash",
			Providers: make(map[string]ProviderConfig),
		},
	}
}

// GetConfigPath returns ~/.hecvat-adk/config.yaml, creating the directory.
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, dirName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(configDir, fileName), nil
}

// LoadEnv reads an optional .env file from the working directory.
// Variables already set in the environment win.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadConfig reads the config from path, or from the default location when
// path is empty. A missing file yields Default().
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.Assistant.Providers == nil {
		cfg.Assistant.Providers = make(map[string]ProviderConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path, or to the default location when path is
// empty.
func SaveConfig(cfg *Config, path string) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600 permissions for security (api keys)
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	switch c.Archive.Backend {
	case "", "file", "sqlite":
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	return nil
}

func (c *Config) SetAPIKey(provider, key string) {
	p := c.Assistant.Providers[provider]
	p.APIKey = key
	c.Assistant.Providers[provider] = p
}

// GetAPIKey returns the stored key for provider, or GOOGLE_API_KEY for
// gemini when none is stored.
func (c *Config) GetAPIKey(provider string) string {
	if k := c.Assistant.Providers[provider].APIKey; k != "" {
		return k
	}
	if provider == "gemini" {
		return os.Getenv(EnvAPIKey)
	}
	return ""
}
