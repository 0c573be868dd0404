package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	Mongo        MongoConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Storage      StorageConfig
	GCP          GCPConfig
	GCS          GCSConfig
	S3           S3Config
	Media        MediaConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if !cfg.Storage.Provider.IsValid() {
		return nil, fmt.Errorf("%s must be one of %s", EnvStorageProvider, strings.Join(storageProviderNames(), ", "))
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VIDORA_APP_ENV" required:"true"`
	Port         string `envconfig:"VIDORA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VIDORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VIDORA_LOG_WARN_STACK" default:"false"`
	MetricsPort  string `envconfig:"VIDORA_METRICS_PORT" default:"9090"`
	// CORSOrigins is a comma separated list of browser origins.
	CORSOrigins []string `envconfig:"VIDORA_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VIDORA_SERVICE_KIND" default:"api"`
}

type MongoConfig struct {
	URI            string        `envconfig:"VIDORA_MONGO_URI" required:"true"`
	Database       string        `envconfig:"VIDORA_MONGO_DATABASE" default:"vidora"`
	ConnectTimeout time.Duration `envconfig:"VIDORA_MONGO_CONNECT_TIMEOUT" default:"10s"`
	MaxPoolSize    uint64        `envconfig:"VIDORA_MONGO_MAX_POOL_SIZE" default:"50"`
}

// DBConfig points at the Postgres database holding the orphan asset ledger.
type DBConfig struct {
	DSN    string `envconfig:"VIDORA_DB_DSN"`
	Driver string `envconfig:"VIDORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VIDORA_DB_HOST"`
	LegacyPort     int    `envconfig:"VIDORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VIDORA_DB_USER"`
	LegacyPassword string `envconfig:"VIDORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VIDORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VIDORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VIDORA_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"VIDORA_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"VIDORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VIDORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VIDORA_REDIS_URL"`
	Address      string        `envconfig:"VIDORA_REDIS_ADDR"`
	Password     string        `envconfig:"VIDORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VIDORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VIDORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VIDORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VIDORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VIDORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VIDORA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"VIDORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VIDORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VIDORA_JWT_EXPIRATION_MINUTES" default:"1440"`
	CookieName        string `envconfig:"VIDORA_JWT_COOKIE_NAME" default:"accessToken"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VIDORA_AUTO_MIGRATE" default:"false"`
}

// StorageConfig selects and bounds the remote object store.
type StorageConfig struct {
	Provider        StorageProvider `envconfig:"VIDORA_STORAGE_PROVIDER" default:"s3"`
	KeyPrefix       string          `envconfig:"VIDORA_STORAGE_KEY_PREFIX" default:"vidora"`
	UploadTimeout   time.Duration   `envconfig:"VIDORA_STORAGE_UPLOAD_TIMEOUT" default:"3m"`
	MetadataTimeout time.Duration   `envconfig:"VIDORA_STORAGE_METADATA_TIMEOUT" default:"15s"`
	StagingDir      string          `envconfig:"VIDORA_STAGING_DIR" default:"./public/temp"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VIDORA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"VIDORA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VIDORA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"VIDORA_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"VIDORA_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

type S3Config struct {
	Bucket          string `envconfig:"VIDORA_S3_BUCKET"`
	Region          string `envconfig:"VIDORA_S3_REGION" default:"us-east-1"`
	Endpoint        string `envconfig:"VIDORA_S3_ENDPOINT"`
	AccessKeyID     string `envconfig:"VIDORA_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"VIDORA_S3_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `envconfig:"VIDORA_S3_USE_PATH_STYLE" default:"false"`
	PublicBaseURL   string `envconfig:"VIDORA_S3_PUBLIC_BASE_URL"`
	PartSizeMB      int64  `envconfig:"VIDORA_S3_PART_SIZE_MB" default:"16"`
}

// MediaConfig holds the per-role byte ceilings applied by the staging area and
// the per-account upload rate. A zero rate disables limiting.
type MediaConfig struct {
	VideoMaxMB       int64 `envconfig:"VIDORA_MEDIA_VIDEO_MAX_MB" default:"500"`
	ImageMaxMB       int64 `envconfig:"VIDORA_MEDIA_IMAGE_MAX_MB" default:"5"`
	UploadsPerMinute int64 `envconfig:"VIDORA_MEDIA_UPLOADS_PER_MINUTE" default:"20"`
}

func (m MediaConfig) VideoMaxBytes() int64 { return m.VideoMaxMB * 1024 * 1024 }

func (m MediaConfig) ImageMaxBytes() int64 { return m.ImageMaxMB * 1024 * 1024 }

type CronConfig struct {
	Interval          time.Duration `envconfig:"VIDORA_CRON_INTERVAL" default:"15m"`
	LockTTL           time.Duration `envconfig:"VIDORA_CRON_LOCK_TTL" default:"14m"`
	OrphanBatchSize   int           `envconfig:"VIDORA_ORPHAN_BATCH_SIZE" default:"100"`
	OrphanMaxAttempts int           `envconfig:"VIDORA_ORPHAN_MAX_ATTEMPTS" default:"5"`
}

// StorageConfigured reports whether the selected provider has the credentials it
// needs. It is evaluated once at startup and handed to the object storage
// client.
func (c *Config) StorageConfigured() bool {
	switch c.Storage.Provider {
	case StorageProviderS3:
		return strings.TrimSpace(c.S3.Bucket) != "" &&
			strings.TrimSpace(c.S3.AccessKeyID) != "" &&
			strings.TrimSpace(c.S3.SecretAccessKey) != ""
	case StorageProviderGCS:
		return strings.TrimSpace(c.GCS.BucketName) != ""
	}
	return false
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
