// Package config resolves Janus's project-level configuration: the
// storage root, hook execution limits, embedding behavior, and the
// persistent cache toggle.
package config

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the config file at project root.
const ConfigFileName = ".janus.yaml"

// DefaultRootDirName is the default storage root, relative to the
// project directory, used when JANUS_ROOT is unset.
const DefaultRootDirName = ".janus"

// DefaultHookTimeoutSeconds bounds how long a hook script may run before
// it is sent SIGTERM.
const DefaultHookTimeoutSeconds = 10

// DefaultEmbeddingBatchSize bounds how many ticket/doc-chunk texts are
// sent to the embedder in a single EmbedBatch call when the watcher
// processes a batch of filesystem changes or a full rescan.
const DefaultEmbeddingBatchSize = 32

// HooksConfig configures hook execution.
type HooksConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	BatchSize int  `yaml:"batch_size,omitempty"`
	Skip      bool `yaml:"skip,omitempty"`
}

// CacheConfig configures the persistent SQLite mirror.
type CacheConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config holds Janus's resolved configuration.
type Config struct {
	Root      string          `yaml:"root,omitempty"`
	Hooks     HooksConfig     `yaml:"hooks,omitempty"`
	Embedding EmbeddingConfig `yaml:"embedding,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`

	// configDir is the directory containing the config file, used to
	// resolve Root when it's a relative path. Not serialized.
	configDir string `yaml:"-"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Root:      DefaultRootDirName,
		Hooks:     HooksConfig{TimeoutSeconds: DefaultHookTimeoutSeconds},
		Embedding: EmbeddingConfig{BatchSize: DefaultEmbeddingBatchSize},
		Cache:     CacheConfig{Enabled: true},
	}
}

// FindConfig searches upward from startDir for a .janus.yaml file.
// Returns the absolute path, or empty string if none is found before the
// filesystem root.
func FindConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads configuration from configPath, applying defaults for any
// field left unset. A missing file is not an error: it yields defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.configDir = filepath.Dir(configPath)
			return applyEnv(cfg), nil
		}
		return nil, fmt.Errorf("reading %s: %w", configPath, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	cfg.Root = cmp.Or(cfg.Root, DefaultRootDirName)
	if cfg.Hooks.TimeoutSeconds == 0 {
		cfg.Hooks.TimeoutSeconds = DefaultHookTimeoutSeconds
	}
	if cfg.Embedding.BatchSize == 0 {
		cfg.Embedding.BatchSize = DefaultEmbeddingBatchSize
	}
	cfg.configDir = filepath.Dir(configPath)

	return applyEnv(cfg), nil
}

// LoadFromDirectory finds and loads the config file by searching upward
// from startDir. If none is found, returns defaults anchored at startDir.
func LoadFromDirectory(startDir string) (*Config, error) {
	configPath, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	if configPath == "" {
		cfg := Default()
		cfg.configDir = startDir
		return applyEnv(cfg), nil
	}
	return Load(configPath)
}

// applyEnv layers JANUS_ROOT and JANUS_SKIP_EMBEDDINGS over the loaded
// config; environment always wins over the config file, matching the
// storage layer's own precedence when no config is loaded at all.
func applyEnv(cfg *Config) *Config {
	if root := os.Getenv("JANUS_ROOT"); root != "" {
		cfg.Root = root
	}
	if skip := os.Getenv("JANUS_SKIP_EMBEDDINGS"); skip != "" && skip != "0" && skip != "false" {
		cfg.Embedding.Skip = true
	}
	return cfg
}

// ResolveRoot returns the absolute path to the storage root.
func (c *Config) ResolveRoot() string {
	if filepath.IsAbs(c.Root) {
		return c.Root
	}
	dir := c.configDir
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return filepath.Join(dir, c.Root)
}

// ConfigDir returns the directory containing the config file.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Save writes the config to .janus.yaml in dir (or the loaded config's
// own directory if set).
func (c *Config) Save(dir string) error {
	targetDir := c.configDir
	if targetDir == "" {
		targetDir = dir
	}
	path := filepath.Join(targetDir, ConfigFileName)

	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
