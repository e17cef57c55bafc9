// Package config loads the unhold settings from a config file, an optional
// .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultLogDir is the directory run logs are written to unless configured.
const DefaultLogDir = "logs"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the settings of an unhold run.
type Config struct {
	Store           string `yaml:"store,omitempty"`
	Token           string `yaml:"token,omitempty"`
	Location        string `yaml:"location,omitempty"`
	APIVersion      string `yaml:"apiVersion,omitempty"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	RedisURL        string `yaml:"redisUrl,omitempty"`
	LogDir          string `yaml:"logDir,omitempty"`
	MetricsTextfile string `yaml:"metricsTextfile,omitempty"`
}

// fileNames are tried in order; the first one found is used.
var fileNames = []string{"config.yaml", "config.yml", "config.json"}

// Load reads the config file from dir, then applies the variables of an
// optional .env file in dir and finally the real environment. A variable set
// in the environment wins over the same variable in .env; empty values are
// ignored. Missing files are not an error.
func Load(dir string) (*Config, error) {
	cfg := &Config{}

	for _, name := range fileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		break
	}

	dotenv, err := godotenv.Read(filepath.Join(dir, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	cfg.applyEnv(func(key string) (string, bool) {
		if value := os.Getenv(key); value != "" {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	})

	if cfg.LogDir == "" {
		cfg.LogDir = DefaultLogDir
	}

	return cfg, nil
}

// keyNames are the config file keys. Keys are matched case-insensitively,
// so {"Store": ...} and {"store": ...} load the same.
var keyNames = []string{
	"store",
	"token",
	"location",
	"apiVersion",
	"endpoint",
	"redisUrl",
	"logDir",
	"metricsTextfile",
}

// decode unmarshals a YAML or JSON document into cfg after rewriting its
// top-level keys to their canonical spelling.
func decode(data []byte, cfg *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	if len(doc.Content) == 0 {
		return nil
	}

	root := doc.Content[0]
	if root.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(root.Content); i += 2 {
			key := root.Content[i]
			for _, name := range keyNames {
				if strings.EqualFold(key.Value, name) {
					key.Value = name
					break
				}
			}
		}
	}
	return root.Decode(cfg)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key   string
		field *string
	}{
		{"SHOPIFY_STORE", &c.Store},
		{"SHOPIFY_ACCESS_TOKEN", &c.Token},
		{"SHOPIFY_LOCATION", &c.Location},
		{"SHOPIFY_API_VERSION", &c.APIVersion},
		{"SHOPIFY_ENDPOINT", &c.Endpoint},
		{"REDIS_URL", &c.RedisURL},
		{"UNHOLD_LOG_DIR", &c.LogDir},
		{"UNHOLD_METRICS_TEXTFILE", &c.MetricsTextfile},
	}

	for _, o := range overrides {
		if value, ok := lookup(o.key); ok && value != "" {
			*o.field = value
		}
	}
}

// Validate checks that a run can reach the store.
func (c *Config) Validate() error {
	if c.Store == "" && c.Endpoint == "" {
		return fmt.Errorf("%w: store or endpoint is required", ErrInvalid)
	}
	if c.Token == "" {
		return fmt.Errorf("%w: token is required", ErrInvalid)
	}
	if c.Location == "" {
		return fmt.Errorf("%w: location is required", ErrInvalid)
	}
	return nil
}
