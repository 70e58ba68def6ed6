package config

import "time"

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int
	Env            string // "development" | "production"
	Database       DatabaseConfig
	RedisURL       string
	JWTSecret      string
	AdminEmail     string
	AdminPIN       string
	PINCooldown    time.Duration
	Storage        StorageConfig
	CacheFile      string
	AllowedOrigins []string
	HTTPCacheTTL   time.Duration
	Paths          RuntimePathsConfig
}

type DatabaseConfig struct {
	Driver   string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Charset  string
	Loc      string
	Params   map[string]string
	// Path is the sqlite database file.
	Path string
}

type StorageConfig struct {
	Driver        string
	PublicBaseURL string
	LocalDir      string
	S3            S3Config
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool
	Prefix          string
}

type RuntimePathsConfig struct {
	Logs string
}

type rawAppConfig struct {
	Port           int               `yaml:"port"`
	Env            string            `yaml:"env"`
	Database       rawDatabaseConfig `yaml:"database"`
	RedisURL       string            `yaml:"redis_url"`
	JWTSecret      string            `yaml:"jwt_secret"`
	AdminEmail     string            `yaml:"admin_email"`
	AdminPIN       string            `yaml:"admin_pin"`
	PINCooldown    string            `yaml:"pin_cooldown"`
	Storage        rawStorageConfig  `yaml:"storage"`
	CacheFile      string            `yaml:"cache_file"`
	AllowedOrigins []string          `yaml:"allowed_origins"`
	HTTPCacheTTL   string            `yaml:"http_cache_ttl"`
	LogDir         string            `yaml:"log_dir"`
}

type rawDatabaseConfig struct {
	Driver   string            `yaml:"driver"`
	DSN      string            `yaml:"dsn"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	User     string            `yaml:"user"`
	Password string            `yaml:"password"`
	Name     string            `yaml:"name"`
	Charset  string            `yaml:"charset"`
	Loc      string            `yaml:"loc"`
	Params   map[string]string `yaml:"params"`
	Path     string            `yaml:"path"`
}

type rawStorageConfig struct {
	Driver        string      `yaml:"driver"`
	PublicBaseURL string      `yaml:"public_base_url"`
	LocalDir      string      `yaml:"local_dir"`
	S3            rawS3Config `yaml:"s3"`
}

type rawS3Config struct {
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       *bool  `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
}
