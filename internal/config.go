package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends accepted by Config.CacheBackend
const (
	CacheSQLite = "sqlite"
	CacheFile   = "file"
	CacheMemory = "memory"
)

// Record store backends accepted by Config.Store
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds client and server settings. Values come from the YAML file
// first, then the environment; command-line flags are applied last by the
// CLI.
type Config struct {
	ServerURL    string `yaml:"server_url"`
	CacheBackend string `yaml:"cache_backend"`
	CacheDir     string `yaml:"cache_dir"`
	MaxAttempts  int    `yaml:"max_attempts"`
	DebounceMS   int    `yaml:"debounce_ms"`
	LowScore     int    `yaml:"low_score"`
	MaxText      int    `yaml:"max_text"`
	LogLevel     string `yaml:"log_level"`

	// Reference server
	Addr        string `yaml:"addr"`
	Store       string `yaml:"store"`
	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`
	ScorerURL   string `yaml:"scorer_url"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() Config {
	return Config{
		ServerURL:    "http://localhost:8000",
		CacheBackend: CacheSQLite,
		CacheDir:     defaultCacheDir(),
		MaxAttempts:  DefaultMaxAttempts,
		DebounceMS:   int(DefaultDebounce / time.Millisecond),
		LowScore:     int(DefaultLowScore),
		MaxText:      DefaultMaxTextLength,
		Addr:         ":8000",
		Store:        StoreMemory,
	}
}

// DefaultConfigPath is ~/.aeo/config.yaml
func DefaultConfigPath() string {
	return filepath.Join(defaultCacheDir(), "config.yaml")
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aeo"
	}
	return filepath.Join(home, ".aeo")
}

// LoadConfig reads path (a missing file is not an error) and applies
// environment overrides. An empty path uses DefaultConfigPath.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		LogDebug("Loaded config from %s", path)
	case os.IsNotExist(err) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.ServerURL = getenv("AEO_SERVER_URL", c.ServerURL)
	c.CacheBackend = getenv("AEO_CACHE_BACKEND", c.CacheBackend)
	c.CacheDir = getenv("AEO_CACHE_DIR", c.CacheDir)
	c.MaxAttempts = getenvInt("AEO_MAX_ATTEMPTS", c.MaxAttempts)
	c.DebounceMS = getenvInt("AEO_DEBOUNCE_MS", c.DebounceMS)
	c.LowScore = getenvInt("AEO_LOW_SCORE", c.LowScore)
	c.MaxText = getenvInt("AEO_MAX_TEXT", c.MaxText)
	c.LogLevel = getenv("AEO_LOG_LEVEL", c.LogLevel)
	c.Addr = getenv("AEO_ADDR", c.Addr)
	c.Store = getenv("AEO_STORE", c.Store)
	c.RedisURL = getenv("REDIS_URL", c.RedisURL)
	c.DatabaseURL = getenv("DATABASE_URL", c.DatabaseURL)
	c.ScorerURL = getenv("AEO_SCORER_URL", c.ScorerURL)
}

// Orchestrator returns the compute pipeline settings
func (c Config) Orchestrator() OrchestratorConfig {
	return OrchestratorConfig{
		Debounce:      time.Duration(c.DebounceMS) * time.Millisecond,
		LowScore:      float64(c.LowScore),
		MaxTextLength: c.MaxText,
	}
}

// OpenCache opens the configured KVStore backend
func (c Config) OpenCache() (KVStore, error) {
	switch c.CacheBackend {
	case CacheSQLite, "":
		return NewSQLiteStore(filepath.Join(c.CacheDir, "cache.db"))
	case CacheFile:
		return NewFileStore(filepath.Join(c.CacheDir, "cache.yaml")), nil
	case CacheMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want %s, %s or %s)", c.CacheBackend, CacheSQLite, CacheFile, CacheMemory)
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		LogWarn("Ignoring %s=%q: not an integer", key, value)
		return fallback
	}
	return parsed
}
