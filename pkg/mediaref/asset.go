// Package mediaref holds the canonical media reference written to every
// document media field and the decoder that repairs historical shapes.
package mediaref

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vidora/vidora-backend/pkg/enums"
)

var (
	ErrMissingURL        = errors.New("media asset url is empty")
	ErrMissingStorageKey = errors.New("media asset storage key is empty")
	ErrPaddedField       = errors.New("media asset url or storage key has surrounding whitespace")
)

// MediaAsset is the canonical media reference.
type MediaAsset struct {
	URL        string          `json:"url" bson:"url"`
	StorageKey string          `json:"storageKey" bson:"storageKey"`
	Kind       enums.MediaKind `json:"kind,omitempty" bson:"kind,omitempty"`
}

// IsAttached reports whether the asset can be resolved and later deleted.
func (m MediaAsset) IsAttached() bool {
	return strings.TrimSpace(m.URL) != "" && strings.TrimSpace(m.StorageKey) != ""
}

// OrKind returns the asset with fallback filled in when its kind is unknown.
// Legacy records often lack a kind that the owning field implies.
func (m MediaAsset) OrKind(fallback enums.MediaKind) MediaAsset {
	if m.Kind == "" || m.Kind == enums.MediaKindAuto {
		m.Kind = fallback
	}
	return m
}

// Validate rejects assets that must not be persisted: a url without a storage
// key could never be removed from remote storage.
func (m MediaAsset) Validate() error {
	if strings.TrimSpace(m.URL) == "" {
		return ErrMissingURL
	}
	if strings.TrimSpace(m.StorageKey) == "" {
		return ErrMissingStorageKey
	}
	// Normalize trims, so a padded asset would not survive a round trip.
	if m.URL != strings.TrimSpace(m.URL) || m.StorageKey != strings.TrimSpace(m.StorageKey) {
		return ErrPaddedField
	}
	if m.Kind != enums.MediaKindImage && m.Kind != enums.MediaKindVideo {
		return fmt.Errorf("media asset kind %q is not persistable", m.Kind)
	}
	return nil
}

// ToRaw renders the asset in the generic map shape stored documents use.
func ToRaw(m MediaAsset) map[string]any {
	raw := map[string]any{
		"url":        m.URL,
		"storageKey": m.StorageKey,
	}
	if m.Kind != "" {
		raw["kind"] = string(m.Kind)
	}
	return raw
}
