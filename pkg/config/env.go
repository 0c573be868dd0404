package config

const (
	EnvPrefix = "VIDORA"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv          = "VIDORA_APP_ENV"
	EnvPort            = "VIDORA_APP_PORT"
	EnvMongoURI        = "VIDORA_MONGO_URI"
	EnvDBDSN           = "VIDORA_DB_DSN"
	EnvDBHost          = "VIDORA_DB_HOST"
	EnvDBUser          = "VIDORA_DB_USER"
	EnvDBName          = "VIDORA_DB_NAME"
	EnvRedisURL        = "VIDORA_REDIS_URL"
	EnvJWTSecret       = "VIDORA_JWT_SECRET"
	EnvJWTIssuer       = "VIDORA_JWT_ISSUER"
	EnvStorageProvider = "VIDORA_STORAGE_PROVIDER"
	EnvS3Bucket        = "VIDORA_S3_BUCKET"
	EnvS3AccessKeyID   = "VIDORA_S3_ACCESS_KEY_ID"
	EnvS3SecretKey     = "VIDORA_S3_SECRET_ACCESS_KEY"
	EnvGCSBucket       = "VIDORA_GCS_BUCKET_NAME"
	EnvUploadTimeout   = "VIDORA_STORAGE_UPLOAD_TIMEOUT"
	EnvVideoMaxMB      = "VIDORA_MEDIA_VIDEO_MAX_MB"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

// StorageProvider names a supported remote object store.
type StorageProvider string

const (
	StorageProviderS3  StorageProvider = "s3"
	StorageProviderGCS StorageProvider = "gcs"
)

var validStorageProviders = []StorageProvider{StorageProviderS3, StorageProviderGCS}

func (p StorageProvider) IsValid() bool {
	for _, candidate := range validStorageProviders {
		if candidate == p {
			return true
		}
	}
	return false
}

func storageProviderNames() []string {
	names := make([]string, 0, len(validStorageProviders))
	for _, p := range validStorageProviders {
		names = append(names, string(p))
	}
	return names
}
