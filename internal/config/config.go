package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML config at configPath. A .env file in the working directory, when
// present, is loaded first so SHOWCASE_* secrets can live outside the YAML.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML content, applies defaults and environment overrides, and validates.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	raw := rawAppConfig{}
	if len(bytes.TrimSpace(content)) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(content))
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parse: %w", err)
		}
	}

	if err := applyRawAppConfig(&cfg, raw); err != nil {
		return nil, err
	}
	applyEnvOverrides(&cfg, os.LookupEnv)
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Storage = normalizeStorageConfig(cfg.Storage)
	cfg.AllowedOrigins = normalizeOrigins(cfg.AllowedOrigins)
	cfg.Env = normalizeEnv(cfg.Env)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseConfig{
			Driver:  DriverMySQL,
			Host:    defaultDBHost,
			Port:    defaultDBPort,
			User:    defaultDBUser,
			Name:    defaultDBName,
			Charset: defaultDBCharset,
			Loc:     defaultDBLoc,
			Path:    defaultSQLitePath,
		},
		PINCooldown:  defaultPINCooldown,
		HTTPCacheTTL: defaultHTTPCacheTTL,
		CacheFile:    defaultCacheFile,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
			S3:     S3Config{Region: defaultS3Region},
		},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) error {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = v
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw.Database)
	cfg.Storage = applyRawStorageConfig(cfg.Storage, raw.Storage)
	if v := strings.TrimSpace(raw.RedisURL); v != "" {
		cfg.RedisURL = normalizeRedisRawURL(v)
	}
	if v := strings.TrimSpace(raw.JWTSecret); v != "" {
		cfg.JWTSecret = v
	}
	if v := strings.TrimSpace(raw.AdminEmail); v != "" {
		cfg.AdminEmail = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.AdminPIN); v != "" {
		cfg.AdminPIN = v
	}
	if v := strings.TrimSpace(raw.CacheFile); v != "" {
		cfg.CacheFile = v
	}
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		cfg.Paths.Logs = v
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = raw.AllowedOrigins
	}

	var err error
	if cfg.PINCooldown, err = parseDuration("pin_cooldown", raw.PINCooldown, cfg.PINCooldown); err != nil {
		return err
	}
	if cfg.HTTPCacheTTL, err = parseDuration("http_cache_ttl", raw.HTTPCacheTTL, cfg.HTTPCacheTTL); err != nil {
		return err
	}
	return nil
}

func applyRawDatabaseConfig(current DatabaseConfig, raw rawDatabaseConfig) DatabaseConfig {
	if v := strings.TrimSpace(raw.Driver); v != "" {
		current.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		current.DSN = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		current.Host = v
	}
	if raw.Port != 0 {
		current.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.User); v != "" {
		current.User = v
	}
	if raw.Password != "" {
		current.Password = raw.Password
	}
	if v := strings.TrimSpace(raw.Name); v != "" {
		current.Name = v
	}
	if v := strings.TrimSpace(raw.Charset); v != "" {
		current.Charset = v
	}
	if v := strings.TrimSpace(raw.Loc); v != "" {
		current.Loc = v
	}
	if v := strings.TrimSpace(raw.Path); v != "" {
		current.Path = v
	}
	if raw.Params != nil {
		current.Params = copyStringMap(raw.Params)
	}
	return current
}

func applyRawStorageConfig(current StorageConfig, raw rawStorageConfig) StorageConfig {
	if v := strings.TrimSpace(raw.Driver); v != "" {
		current.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.PublicBaseURL); v != "" {
		current.PublicBaseURL = v
	}
	if v := strings.TrimSpace(raw.LocalDir); v != "" {
		current.LocalDir = v
	}
	if v := strings.TrimSpace(raw.S3.Bucket); v != "" {
		current.S3.Bucket = v
	}
	if v := strings.TrimSpace(raw.S3.Region); v != "" {
		current.S3.Region = v
	}
	if v := strings.TrimSpace(raw.S3.Endpoint); v != "" {
		current.S3.Endpoint = v
	}
	if v := strings.TrimSpace(raw.S3.AccessKeyID); v != "" {
		current.S3.AccessKeyID = v
	}
	if v := strings.TrimSpace(raw.S3.SecretAccessKey); v != "" {
		current.S3.SecretAccessKey = v
	}
	if raw.S3.PathStyle != nil {
		current.S3.PathStyle = *raw.S3.PathStyle
	}
	if v := strings.TrimSpace(raw.S3.Prefix); v != "" {
		current.S3.Prefix = v
	}
	return current
}

func applyEnvOverrides(cfg *AppConfig, lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvJWTSecret, &cfg.JWTSecret)
	set(EnvAdminPIN, &cfg.AdminPIN)
	set(EnvS3AccessKeyID, &cfg.Storage.S3.AccessKeyID)
	set(EnvS3SecretAccessKey, &cfg.Storage.S3.SecretAccessKey)
	set(EnvDSN, &cfg.Database.DSN)
}

func parseDuration(key, raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.DSN == "" && (c.Database.Port < 1 || c.Database.Port > 65535) {
			return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
		}
	case DriverSQLite:
	default:
		return fmt.Errorf("invalid database.driver %q, expected mysql or sqlite", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case StorageS3:
		if c.Storage.S3.Bucket == "" {
			return errors.New("storage.s3.bucket is required for the s3 driver")
		}
	case StorageLocal:
	default:
		return fmt.Errorf("invalid storage.driver %q, expected s3 or local", c.Storage.Driver)
	}
	if c.AdminEmail == "" {
		return errors.New("admin_email is required")
	}
	if !isPIN(c.AdminPIN) {
		return errors.New("admin_pin must be exactly 4 digits")
	}
	if c.PINCooldown <= 0 {
		return fmt.Errorf("invalid pin_cooldown %s, expected > 0", c.PINCooldown)
	}
	if c.HTTPCacheTTL < 0 {
		return fmt.Errorf("invalid http_cache_ttl %s, expected >= 0", c.HTTPCacheTTL)
	}
	return nil
}

func isPIN(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

func (c *AppConfig) LogDir() string {
	if c == nil {
		return ResolveRuntimePath("", "logs")
	}
	return ResolveRuntimePath(c.Paths.Logs, "logs")
}

// StaticDir is where the local object store keeps uploaded files.
func (c *AppConfig) StaticDir() string {
	if c == nil {
		return ResolveRuntimePath("", "static")
	}
	return ResolveRuntimePath(c.Storage.LocalDir, "static")
}

func (c *AppConfig) CacheFilePath() string {
	return ResolveRuntimePath(c.CacheFile, defaultCacheFile)
}
