package staging

import (
	"fmt"
	"mime"
	"sort"
	"strings"

	"github.com/vidora/vidora-backend/pkg/enums"
)

const (
	DefaultVideoMaxBytes int64 = 500 * 1024 * 1024
	DefaultImageMaxBytes int64 = 5 * 1024 * 1024
)

type mimeGroup string

const (
	mimeGroupVideos mimeGroup = "videos"
	mimeGroupImages mimeGroup = "images"
)

var mimeGroupTypes = map[mimeGroup][]string{
	// application/octet-stream: some browsers send it for .mkv and .avi.
	mimeGroupVideos: {"video/mp4", "video/webm", "video/quicktime", "video/x-msvideo", "video/x-matroska", "application/octet-stream"},
	mimeGroupImages: {"image/jpeg", "image/png", "image/webp", "image/gif"},
}

// Policy bounds what a single field role may stage.
type Policy struct {
	AllowedMimeTypes []string
	MaxBytes         int64
	description      string
}

func (p Policy) allows(mimeType string) bool {
	for _, candidate := range p.AllowedMimeTypes {
		if candidate == mimeType {
			return true
		}
	}
	return false
}

// Describe returns a human readable summary of the allowed types.
func (p Policy) Describe() string {
	if p.description != "" {
		return p.description
	}
	return humanReadableList(p.AllowedMimeTypes)
}

func newPolicy(group mimeGroup, maxBytes int64) Policy {
	list := append([]string(nil), mimeGroupTypes[group]...)
	sort.Strings(list)
	return Policy{AllowedMimeTypes: list, MaxBytes: maxBytes, description: string(group)}
}

// DefaultPolicies builds the video-like and image-like policies for every
// known field role. Non-positive ceilings fall back to the defaults.
func DefaultPolicies(videoMaxBytes, imageMaxBytes int64) map[enums.FileRole]Policy {
	if videoMaxBytes <= 0 {
		videoMaxBytes = DefaultVideoMaxBytes
	}
	if imageMaxBytes <= 0 {
		imageMaxBytes = DefaultImageMaxBytes
	}
	policies := make(map[enums.FileRole]Policy, len(enums.FileRoles()))
	for _, role := range enums.FileRoles() {
		if role.MediaKind() == enums.MediaKindVideo {
			policies[role] = newPolicy(mimeGroupVideos, videoMaxBytes)
			continue
		}
		policies[role] = newPolicy(mimeGroupImages, imageMaxBytes)
	}
	return policies
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

func baseMimeType(value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return strings.ToLower(clean)
	}
	return strings.ToLower(mediaType)
}
