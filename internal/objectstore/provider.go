package objectstore

import (
	"context"
	"fmt"

	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/storage"
	"github.com/vidora/vidora-backend/pkg/storage/gcs"
	"github.com/vidora/vidora-backend/pkg/storage/s3"
)

// NewProvider builds the configured remote store. It returns a nil provider
// when credentials are missing so the client answers UpstreamUnavailable.
func NewProvider(ctx context.Context, cfg *config.Config, logg *logger.Logger) (storage.Provider, error) {
	if !cfg.StorageConfigured() {
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "provider", string(cfg.Storage.Provider)), "object storage not configured; media uploads disabled")
		}
		return nil, nil
	}
	switch cfg.Storage.Provider {
	case config.StorageProviderS3:
		return s3.New(ctx, cfg.S3, logg)
	case config.StorageProviderGCS:
		return gcs.NewClient(ctx, cfg.GCS, cfg.GCP, cfg.Storage.UploadTimeout, logg)
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Storage.Provider)
	}
}

// Bootstrap builds the provider and the client around it.
func Bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Client, error) {
	provider, err := NewProvider(ctx, cfg, logg)
	if err != nil {
		return nil, fmt.Errorf("storage provider: %w", err)
	}
	return New(ConfigFrom(cfg), provider, logg)
}
