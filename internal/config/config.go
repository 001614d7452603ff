package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	defaultPort              = 2333
	defaultEnv               = "development"
	defaultDBHost            = "127.0.0.1"
	defaultDBPort            = 3306
	defaultDBUser            = "root"
	defaultDBPassword        = "password"
	defaultDBName            = "pagebuilder"
	defaultDBCharset         = "utf8mb4"
	defaultDBLoc             = "Local"
	defaultRedisHost         = "localhost"
	defaultRedisPort         = 6379
	defaultRedisDB           = 0
	defaultCacheTTLSeconds   = 300
	defaultBrokenScanMinutes = 60
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	DSN            string                `yaml:"-"`
	RedisURL       string                `yaml:"-"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Cache          CacheConfig           `yaml:"cache"`
	Jobs           JobsConfig            `yaml:"jobs"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	Paths          RuntimePathsConfig    `yaml:"paths"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	Enable   bool   `yaml:"enable"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

// CacheConfig controls the redis-backed GET response cache.
type CacheConfig struct {
	Disable    bool `yaml:"disable"`
	TTLSeconds int  `yaml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// JobsConfig controls background jobs. A zero interval disables the job.
type JobsConfig struct {
	BrokenReferenceScanMinutes int `yaml:"broken_reference_scan_minutes"`
}

func (c JobsConfig) BrokenReferenceScanInterval() time.Duration {
	return time.Duration(c.BrokenReferenceScanMinutes) * time.Minute
}

type RuntimePathsConfig struct {
	Logs string `yaml:"logs"`
}

type rawAppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"`
	Database       rawDatabaseConfig  `yaml:"database"`
	Redis          rawRedisConfig     `yaml:"redis"`
	Cache          rawCacheConfig     `yaml:"cache"`
	Jobs           rawJobsConfig      `yaml:"jobs"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	Paths          RuntimePathsConfig `yaml:"paths"`
}

type rawDatabaseConfig struct {
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Enable   *bool  `yaml:"enable"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawCacheConfig struct {
	Disable    *bool `yaml:"disable"`
	TTLSeconds *int  `yaml:"ttl_seconds"`
}

type rawJobsConfig struct {
	BrokenReferenceScanMinutes *int `yaml:"broken_reference_scan_minutes"`
}

func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}
	return Parse(content, path)
}

// Parse decodes YAML config content. Unknown keys are rejected.
func Parse(content []byte, source string) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", source, err)
		}
	}

	applyRawAppConfig(&cfg, raw)
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d in %q, expected 1-65535", cfg.Port, source)
	}
	if cfg.Database.Port < 1 || cfg.Database.Port > 65535 {
		return nil, fmt.Errorf("invalid database.port %d in %q, expected 1-65535", cfg.Database.Port, source)
	}
	if cfg.Redis.Port < 1 || cfg.Redis.Port > 65535 {
		return nil, fmt.Errorf("invalid redis.port %d in %q, expected 1-65535", cfg.Redis.Port, source)
	}
	if cfg.Redis.DB < 0 {
		return nil, fmt.Errorf("invalid redis.db %d in %q, expected >= 0", cfg.Redis.DB, source)
	}
	if cfg.Cache.TTLSeconds < 0 {
		return nil, fmt.Errorf("invalid cache.ttl_seconds %d in %q, expected >= 0", cfg.Cache.TTLSeconds, source)
	}
	if cfg.Jobs.BrokenReferenceScanMinutes < 0 {
		return nil, fmt.Errorf("invalid jobs.broken_reference_scan_minutes %d in %q, expected >= 0", cfg.Jobs.BrokenReferenceScanMinutes, source)
	}

	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	cfg := AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		Cache: CacheConfig{TTLSeconds: defaultCacheTTLSeconds},
		Jobs:  JobsConfig{BrokenReferenceScanMinutes: defaultBrokenScanMinutes},
	}
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	return cfg
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	cfg.Env = normalizeEnv(cfg.Env)

	db := raw.Database
	if db.DSN != "" {
		cfg.Database.DSN = db.DSN
	}
	if db.Host != "" {
		cfg.Database.Host = db.Host
	}
	if db.Port != 0 {
		cfg.Database.Port = db.Port
	}
	if db.User != "" {
		cfg.Database.User = db.User
	}
	if db.Password != "" {
		cfg.Database.Password = db.Password
	}
	if db.Name != "" {
		cfg.Database.Name = db.Name
	}
	if db.Charset != "" {
		cfg.Database.Charset = db.Charset
	}
	if db.ParseTime != nil {
		cfg.Database.ParseTime = *db.ParseTime
	}
	if db.Loc != "" {
		cfg.Database.Loc = db.Loc
	}
	if db.Params != nil {
		cfg.Database.Params = db.Params
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)

	rd := raw.Redis
	if rd.Enable != nil {
		cfg.Redis.Enable = *rd.Enable
	}
	if rd.URL != "" {
		cfg.Redis.URL = rd.URL
	}
	if rd.Host != "" {
		cfg.Redis.Host = rd.Host
	}
	if rd.Port != 0 {
		cfg.Redis.Port = rd.Port
	}
	if rd.Username != "" {
		cfg.Redis.Username = rd.Username
	}
	if rd.Password != "" {
		cfg.Redis.Password = rd.Password
	}
	if rd.DB != nil {
		cfg.Redis.DB = *rd.DB
	}
	if rd.TLS != nil {
		cfg.Redis.TLS = *rd.TLS
	}
	cfg.Redis = normalizeRedisConfig(cfg.Redis)

	if raw.Cache.Disable != nil {
		cfg.Cache.Disable = *raw.Cache.Disable
	}
	if raw.Cache.TTLSeconds != nil {
		cfg.Cache.TTLSeconds = *raw.Cache.TTLSeconds
	}
	if raw.Jobs.BrokenReferenceScanMinutes != nil {
		cfg.Jobs.BrokenReferenceScanMinutes = *raw.Jobs.BrokenReferenceScanMinutes
	}

	if raw.AllowedOrigins != nil {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	cfg.Paths = normalizeRuntimePaths(raw.Paths)

	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
}

func (c *AppConfig) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// LogDir returns the resolved log directory.
func (c *AppConfig) LogDir() string {
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}
