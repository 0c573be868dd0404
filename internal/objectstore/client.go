// Package objectstore promotes staged files to the remote object store and
// removes remote assets by storage key.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/vidora/vidora-backend/pkg/config"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/mediaref"
	"github.com/vidora/vidora-backend/pkg/storage"
)

const (
	DefaultUploadTimeout   = 3 * time.Minute
	DefaultMetadataTimeout = 15 * time.Second
)

// Config is resolved once at startup. Configured reports whether provider
// credentials were present; when false every call short-circuits.
type Config struct {
	Configured      bool
	UploadTimeout   time.Duration
	MetadataTimeout time.Duration
	KeyPrefix       string
}

// ConfigFrom derives the client configuration from application config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Configured:      cfg.StorageConfigured(),
		UploadTimeout:   cfg.Storage.UploadTimeout,
		MetadataTimeout: cfg.Storage.MetadataTimeout,
		KeyPrefix:       cfg.Storage.KeyPrefix,
	}
}

// DeleteResult reports whether a remote object was actually removed.
// Deleted is false when the key was already gone.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

type Client struct {
	cfg      Config
	provider storage.Provider
	logg     *logger.Logger
	newKey   func() string
}

func New(cfg Config, provider storage.Provider, logg *logger.Logger) (*Client, error) {
	if cfg.Configured && provider == nil {
		return nil, fmt.Errorf("storage provider required")
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = DefaultUploadTimeout
	}
	if cfg.MetadataTimeout <= 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	cfg.KeyPrefix = strings.Trim(strings.TrimSpace(cfg.KeyPrefix), "/")
	if logg == nil {
		logg = logger.Nop()
	}
	return &Client{
		cfg:      cfg,
		provider: provider,
		logg:     logg,
		newKey:   func() string { return uuid.NewString() },
	}, nil
}

// Configured reports whether storage calls will be attempted.
func (c *Client) Configured() bool {
	return c.cfg.Configured
}

// Upload pushes the file at localPath to remote storage. An empty path yields
// (nil, nil). On success the local file is removed; on failure it is kept.
// An empty kind is detected from the file extension.
func (c *Client) Upload(ctx context.Context, localPath string, kind enums.MediaKind) (*mediaref.MediaAsset, error) {
	if strings.TrimSpace(localPath) == "" {
		return nil, nil
	}
	if !c.cfg.Configured {
		return nil, unavailable()
	}

	if kind == "" {
		kind = mediaref.KindFromPath(localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUploadFailed, err, "open staged file")
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeUploadFailed, err, "stat staged file")
	}

	contentType := "application/octet-stream"
	if detected, detectErr := mimetype.DetectReader(f); detectErr == nil {
		contentType = detected.String()
	}
	if _, err := f.Seek(0, 0); err != nil {
		_ = f.Close()
		return nil, pkgerrors.Wrap(pkgerrors.CodeUploadFailed, err, "rewind staged file")
	}
	if kind == enums.MediaKindAuto {
		kind = enums.MediaKindFromContentType(contentType)
	}

	key := c.storageKey(kind, localPath)
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"storage_key": key,
		"kind":        string(kind),
		"provider":    c.provider.Name(),
		"size_bytes":  info.Size(),
	})

	uploadCtx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	started := time.Now()
	url, putErr := c.provider.Put(uploadCtx, storage.Object{
		Key:         key,
		Body:        f,
		Size:        info.Size(),
		ContentType: contentType,
	})
	if closeErr := f.Close(); closeErr != nil {
		c.logg.Warn(logCtx, "objectstore.close_staged_failed")
	}
	if putErr != nil {
		c.logg.Error(logCtx, "objectstore.upload_failed", putErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUploadFailed, putErr, "upload to remote storage").
			WithDetails(map[string]any{"kind": string(kind)})
	}

	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		c.logg.Error(c.logg.WithField(logCtx, "local_path", localPath), "objectstore.remove_local_failed", err)
	}

	c.logg.Info(c.logg.WithField(logCtx, "duration_ms", time.Since(started).Milliseconds()), "objectstore.uploaded")
	return &mediaref.MediaAsset{URL: url, StorageKey: key, Kind: kind}, nil
}

// Delete removes the remote object for storageKey. Empty and missing keys
// are successful no-ops.
func (c *Client) Delete(ctx context.Context, storageKey string, kind enums.MediaKind) (DeleteResult, error) {
	storageKey = strings.TrimSpace(storageKey)
	if storageKey == "" {
		return DeleteResult{}, nil
	}
	if !c.cfg.Configured {
		return DeleteResult{}, unavailable()
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"storage_key": storageKey,
		"kind":        string(kind),
	})

	deleteCtx, cancel := context.WithTimeout(ctx, c.cfg.MetadataTimeout)
	defer cancel()

	err := c.provider.Delete(deleteCtx, storageKey)
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		c.logg.Info(logCtx, "objectstore.delete_noop")
		return DeleteResult{Deleted: false}, nil
	case err != nil:
		return DeleteResult{}, pkgerrors.Wrap(pkgerrors.CodeUpstreamUnavailable, err, "delete remote asset")
	}
	c.logg.Info(logCtx, "objectstore.deleted")
	return DeleteResult{Deleted: true}, nil
}

// Ping verifies the provider is reachable.
func (c *Client) Ping(ctx context.Context) error {
	if !c.cfg.Configured {
		return unavailable()
	}
	pingCtx, cancel := context.WithTimeout(ctx, c.cfg.MetadataTimeout)
	defer cancel()
	return c.provider.Ping(pingCtx)
}

func (c *Client) storageKey(kind enums.MediaKind, localPath string) string {
	name := c.newKey() + strings.ToLower(filepath.Ext(localPath))
	folder := kind.Folder()
	if c.cfg.KeyPrefix == "" {
		return folder + "/" + name
	}
	return c.cfg.KeyPrefix + "/" + folder + "/" + name
}

func unavailable() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeUpstreamUnavailable, "storage credentials are not configured")
}
