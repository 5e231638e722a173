package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Root != DefaultRootDirName {
		t.Errorf("Root = %q, want %q", cfg.Root, DefaultRootDirName)
	}
	if cfg.Hooks.TimeoutSeconds != DefaultHookTimeoutSeconds {
		t.Errorf("Hooks.TimeoutSeconds = %d, want %d", cfg.Hooks.TimeoutSeconds, DefaultHookTimeoutSeconds)
	}
	if cfg.Embedding.BatchSize != DefaultEmbeddingBatchSize {
		t.Errorf("Embedding.BatchSize = %d, want %d", cfg.Embedding.BatchSize, DefaultEmbeddingBatchSize)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true")
	}
}

func TestFindConfig(t *testing.T) {
	t.Run("finds config in current directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte("root: .janus\n"), 0644); err != nil {
			t.Fatal(err)
		}

		found, err := FindConfig(tmpDir)
		if err != nil {
			t.Fatalf("FindConfig() error = %v", err)
		}
		if found != configPath {
			t.Errorf("FindConfig() = %q, want %q", found, configPath)
		}
	})

	t.Run("finds config in parent directory", func(t *testing.T) {
		tmpDir := t.TempDir()
		subDir := filepath.Join(tmpDir, "sub", "dir")
		if err := os.MkdirAll(subDir, 0755); err != nil {
			t.Fatal(err)
		}
		configPath := filepath.Join(tmpDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte("root: .janus\n"), 0644); err != nil {
			t.Fatal(err)
		}

		found, err := FindConfig(subDir)
		if err != nil {
			t.Fatalf("FindConfig() error = %v", err)
		}
		if found != configPath {
			t.Errorf("FindConfig() = %q, want %q", found, configPath)
		}
	})

	t.Run("returns empty string when no config found", func(t *testing.T) {
		tmpDir := t.TempDir()
		found, err := FindConfig(tmpDir)
		if err != nil {
			t.Fatalf("FindConfig() error = %v", err)
		}
		if found != "" {
			t.Errorf("FindConfig() = %q, want empty string", found)
		}
	})
}

func TestLoadNonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/that/does/not/exist/.janus.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.Root != DefaultRootDirName {
		t.Errorf("Root = %q, want %q", cfg.Root, DefaultRootDirName)
	}
}

func TestLoadAndSave(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := &Config{
		Root:  "custom-root",
		Hooks: HooksConfig{TimeoutSeconds: 30},
	}
	cfg.configDir = tmpDir

	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Root != "custom-root" {
		t.Errorf("Root = %q, want \"custom-root\"", loaded.Root)
	}
	if loaded.Hooks.TimeoutSeconds != 30 {
		t.Errorf("Hooks.TimeoutSeconds = %d, want 30", loaded.Hooks.TimeoutSeconds)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	minimal := "root: custom-root\n"
	if err := os.WriteFile(configPath, []byte(minimal), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Root != "custom-root" {
		t.Errorf("Root = %q, want \"custom-root\"", cfg.Root)
	}
	if cfg.Hooks.TimeoutSeconds != DefaultHookTimeoutSeconds {
		t.Errorf("Hooks.TimeoutSeconds not defaulted: got %d, want %d", cfg.Hooks.TimeoutSeconds, DefaultHookTimeoutSeconds)
	}
	if cfg.Embedding.BatchSize != DefaultEmbeddingBatchSize {
		t.Errorf("Embedding.BatchSize not defaulted: got %d, want %d", cfg.Embedding.BatchSize, DefaultEmbeddingBatchSize)
	}
}

func TestLoadFromDirectory(t *testing.T) {
	t.Run("loads config from directory with .janus.yaml", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, ConfigFileName)
		if err := os.WriteFile(configPath, []byte("root: custom-root\n"), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadFromDirectory(tmpDir)
		if err != nil {
			t.Fatalf("LoadFromDirectory() error = %v", err)
		}
		if cfg.Root != "custom-root" {
			t.Errorf("Root = %q, want \"custom-root\"", cfg.Root)
		}
	})

	t.Run("returns default config when no config file exists", func(t *testing.T) {
		tmpDir := t.TempDir()
		cfg, err := LoadFromDirectory(tmpDir)
		if err != nil {
			t.Fatalf("LoadFromDirectory() error = %v", err)
		}
		if cfg.Root != DefaultRootDirName {
			t.Errorf("Root = %q, want %q", cfg.Root, DefaultRootDirName)
		}
		if cfg.ConfigDir() != tmpDir {
			t.Errorf("ConfigDir() = %q, want %q", cfg.ConfigDir(), tmpDir)
		}
	})
}

func TestResolveRoot(t *testing.T) {
	t.Run("resolves relative path from config directory", func(t *testing.T) {
		cfg := &Config{Root: "custom-data"}
		cfg.configDir = "/project/root"

		got := cfg.ResolveRoot()
		want := "/project/root/custom-data"
		if got != want {
			t.Errorf("ResolveRoot() = %q, want %q", got, want)
		}
	})

	t.Run("returns absolute path unchanged", func(t *testing.T) {
		cfg := &Config{Root: "/absolute/path/to/data"}
		cfg.configDir = "/project/root"

		got := cfg.ResolveRoot()
		want := "/absolute/path/to/data"
		if got != want {
			t.Errorf("ResolveRoot() = %q, want %q", got, want)
		}
	})

	t.Run("uses default root dir name", func(t *testing.T) {
		cfg := Default()
		cfg.configDir = "/project/root"

		got := cfg.ResolveRoot()
		want := "/project/root/" + DefaultRootDirName
		if got != want {
			t.Errorf("ResolveRoot() = %q, want %q", got, want)
		}
	})
}

func TestEnvOverridesRoot(t *testing.T) {
	t.Setenv("JANUS_ROOT", "/env/root")
	cfg, err := LoadFromDirectory(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}
	if cfg.Root != "/env/root" {
		t.Errorf("Root = %q, want \"/env/root\"", cfg.Root)
	}
}

func TestEnvSkipEmbeddings(t *testing.T) {
	t.Setenv("JANUS_SKIP_EMBEDDINGS", "1")
	cfg, err := LoadFromDirectory(t.TempDir())
	if err != nil {
		t.Fatalf("LoadFromDirectory() error = %v", err)
	}
	if !cfg.Embedding.Skip {
		t.Error("Embedding.Skip = false, want true")
	}
}

func TestCacheSectionPreservedAlongsideOthers(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)
	configYAML := "root: .janus\ncache:\n    enabled: false\n"
	if err := os.WriteFile(configPath, []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled = true, want false")
	}
}
