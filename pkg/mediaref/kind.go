package mediaref

import (
	"net/url"
	"path"
	"strings"

	"github.com/vidora/vidora-backend/pkg/enums"
)

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".avi": {}, ".wmv": {}, ".flv": {}, ".mkv": {}, ".webm": {},
}

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".bmp": {}, ".webp": {}, ".svg": {}, ".tiff": {},
}

// KindFromExtension maps a file extension (with or without the dot) to a
// media kind. Unknown extensions yield MediaKindAuto.
func KindFromExtension(ext string) enums.MediaKind {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return enums.MediaKindAuto
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if _, ok := videoExtensions[ext]; ok {
		return enums.MediaKindVideo
	}
	if _, ok := imageExtensions[ext]; ok {
		return enums.MediaKindImage
	}
	return enums.MediaKindAuto
}

// KindFromPath detects the kind of a local path or URL by its extension.
func KindFromPath(p string) enums.MediaKind {
	p = strings.TrimSpace(p)
	if u, err := url.Parse(p); err == nil && u.Scheme != "" {
		p = u.Path
	}
	return KindFromExtension(path.Ext(p))
}

func kindFromRaw(value string) enums.MediaKind {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(enums.MediaKindImage):
		return enums.MediaKindImage
	case string(enums.MediaKindVideo):
		return enums.MediaKindVideo
	}
	return ""
}

func inferKind(rawURL string) enums.MediaKind {
	if kind := KindFromPath(rawURL); kind != enums.MediaKindAuto {
		return kind
	}
	return ""
}
