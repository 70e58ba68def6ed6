package config

import "time"

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"

	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	StorageS3    = "s3"
	StorageLocal = "local"

	defaultPort          = 2333
	defaultEnv           = "development"
	defaultDBHost        = "127.0.0.1"
	defaultDBPort        = 3306
	defaultDBUser        = "root"
	defaultDBName        = "showcase"
	defaultDBCharset     = "utf8mb4"
	defaultDBLoc         = "Local"
	defaultSQLitePath    = "showcase.db"
	defaultPINCooldown   = 30 * time.Second
	defaultHTTPCacheTTL  = 30 * time.Second
	defaultCacheFile     = "data/solutions-cache.json"
	defaultStorageDriver = StorageLocal
	defaultS3Region      = "auto"
)

// Environment overrides for secrets.
const (
	EnvJWTSecret         = "SHOWCASE_JWT_SECRET"
	EnvAdminPIN          = "SHOWCASE_ADMIN_PIN"
	EnvS3AccessKeyID     = "SHOWCASE_S3_ACCESS_KEY_ID"
	EnvS3SecretAccessKey = "SHOWCASE_S3_SECRET_ACCESS_KEY"
	EnvDSN               = "SHOWCASE_DSN"
)
