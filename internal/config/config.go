package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string   `json:"serverAddress"`
	Storage       Storage  `json:"storage"`
	Catalog       Catalog  `json:"catalog"`
	Prefetch      Prefetch `json:"prefetch"`
}

// Storage selects and configures the key-value backend behind the gallery state
type Storage struct {
	Driver        string `json:"driver"`
	DatabasePath  string `json:"databasePath"`
	DatabaseURL   string `json:"databaseUrl"`
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"redisPassword"`
	RedisDB       int    `json:"redisDb"`
	KeyPrefix     string `json:"keyPrefix"`
}

// Catalog configures the upstream artwork sources
type Catalog struct {
	PageSize            int            `json:"pageSize"`
	FetchTimeoutSeconds int            `json:"fetchTimeoutSeconds"`
	Met                 MetCatalog     `json:"met"`
	Harvard             HarvardCatalog `json:"harvard"`
}

// FetchTimeout is the upper bound of one fetch-more cycle
func (c Catalog) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// MetCatalog configures the Metropolitan Museum collection API
type MetCatalog struct {
	Enabled     bool   `json:"enabled"`
	BaseURL     string `json:"baseUrl"`
	Query       string `json:"query"`
	Concurrency int    `json:"concurrency"`
}

// HarvardCatalog toggles the simulated Harvard source
type HarvardCatalog struct {
	Enabled bool `json:"enabled"`
}

// Prefetch schedules background fetch-more cycles. An empty schedule disables it.
type Prefetch struct {
	Schedule string `json:"schedule"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		Storage: Storage{
			DatabasePath: "artgallery.db",
			KeyPrefix:    "art_gallery_",
		},
		Catalog: Catalog{
			PageSize:            10,
			FetchTimeoutSeconds: 30,
			Met: MetCatalog{
				Enabled:     true,
				BaseURL:     "https://collectionapi.metmuseum.org/public/collection/v1",
				Query:       "painting",
				Concurrency: 4,
			},
			Harvard: HarvardCatalog{Enabled: true},
		},
	}
}

// Load reads .env (when present), then the JSON config file, then environment overrides
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}

	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.Storage.Driver = driver
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Storage.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Storage.DatabaseURL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Storage.RedisAddr = addr
	}
	if pw := os.Getenv("REDIS_PASSWORD"); pw != "" {
		cfg.Storage.RedisPassword = pw
	}
	if db, ok := envInt("REDIS_DB"); ok {
		cfg.Storage.RedisDB = db
	}
	if prefix := os.Getenv("STORAGE_KEY_PREFIX"); prefix != "" {
		cfg.Storage.KeyPrefix = prefix
	}

	if size, ok := envInt("CATALOG_PAGE_SIZE"); ok {
		cfg.Catalog.PageSize = size
	}
	if secs, ok := envInt("CATALOG_FETCH_TIMEOUT_SECONDS"); ok {
		cfg.Catalog.FetchTimeoutSeconds = secs
	}
	if enabled, ok := envBool("CATALOG_MET_ENABLED"); ok {
		cfg.Catalog.Met.Enabled = enabled
	}
	if base := os.Getenv("CATALOG_MET_BASE_URL"); base != "" {
		cfg.Catalog.Met.BaseURL = base
	}
	if q := os.Getenv("CATALOG_MET_QUERY"); q != "" {
		cfg.Catalog.Met.Query = q
	}
	if n, ok := envInt("CATALOG_MET_CONCURRENCY"); ok {
		cfg.Catalog.Met.Concurrency = n
	}
	if enabled, ok := envBool("CATALOG_HARVARD_ENABLED"); ok {
		cfg.Catalog.Harvard.Enabled = enabled
	}

	if schedule, ok := os.LookupEnv("PREFETCH_SCHEDULE"); ok {
		cfg.Prefetch.Schedule = schedule
	}
}

func (c *Config) normalize() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverSQLite
		if c.Storage.DatabaseURL != "" {
			c.Storage.Driver = DriverPostgres
		}
	}

	switch c.Storage.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage driver postgres requires databaseUrl")
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			c.Storage.RedisAddr = "localhost:6379"
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Catalog.PageSize <= 0 {
		return fmt.Errorf("catalog pageSize must be positive, got %d", c.Catalog.PageSize)
	}
	if c.Catalog.FetchTimeoutSeconds <= 0 {
		c.Catalog.FetchTimeoutSeconds = 30
	}
	if c.Catalog.Met.Concurrency <= 0 {
		c.Catalog.Met.Concurrency = 1
	}
	c.Catalog.Met.BaseURL = strings.TrimRight(c.Catalog.Met.BaseURL, "/")
	return nil
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(name string) (bool, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return false, false
	}
	return raw == "true" || raw == "1", true
}
