package enums

import "strings"

// MediaKind selects storage and deletion semantics for a remote asset.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
	// MediaKindAuto lets the storage client infer the kind from content.
	MediaKindAuto MediaKind = "auto"
)

func (m MediaKind) String() string {
	return string(m)
}

func (m MediaKind) IsValid() bool {
	switch m {
	case MediaKindImage, MediaKindVideo, MediaKindAuto:
		return true
	}
	return false
}

// Folder is the storage key segment grouping assets of this kind.
func (m MediaKind) Folder() string {
	if m == MediaKindVideo {
		return "videos"
	}
	return "images"
}

// MediaKindFromContentType resolves MediaKindAuto once the content type is
// sniffed. Anything that is not video/* is stored as an image.
func MediaKindFromContentType(contentType string) MediaKind {
	if strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return MediaKindVideo
	}
	return MediaKindImage
}
