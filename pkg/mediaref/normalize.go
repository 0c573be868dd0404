package mediaref

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Key names scanned, in priority order, when the stored value is an object.
var (
	urlKeys        = []string{"url", "secure_url", "src", "path"}
	storageKeyKeys = []string{"storageKey", "storage_key", "public_id", "publicId", "key"}
	kindKeys       = []string{"kind", "resource_type"}
)

// Normalize decodes any known stored media shape into a MediaAsset. It returns
// nil when no usable url is present and never panics.
//
// Recognized shapes:
//   - nil
//   - MediaAsset, *MediaAsset, Ref, *Ref
//   - a bare url string (legacy; storage key left empty)
//   - an object (map[string]any, map[string]string, bson.M, bson.D)
//     carrying the url and storage key under one of the known key names
func Normalize(raw any) *MediaAsset {
	switch v := raw.(type) {
	case nil:
		return nil
	case MediaAsset:
		return fromAsset(v)
	case *MediaAsset:
		if v == nil {
			return nil
		}
		return fromAsset(*v)
	case Ref:
		return Normalize(v.Asset)
	case *Ref:
		if v == nil {
			return nil
		}
		return Normalize(v.Asset)
	case string:
		return fromString(v)
	case *string:
		if v == nil {
			return nil
		}
		return fromString(*v)
	case map[string]any:
		return fromObject(func(key string) (any, bool) {
			val, ok := v[key]
			return val, ok
		})
	case primitive.M:
		return fromObject(func(key string) (any, bool) {
			val, ok := v[key]
			return val, ok
		})
	case map[string]string:
		return fromObject(func(key string) (any, bool) {
			val, ok := v[key]
			return val, ok
		})
	case primitive.D:
		return fromObject(lookupD(v))
	}
	return nil
}

func fromAsset(m MediaAsset) *MediaAsset {
	u := strings.TrimSpace(m.URL)
	if u == "" {
		return nil
	}
	kind := m.Kind
	if kind == "" {
		kind = inferKind(u)
	}
	return &MediaAsset{URL: u, StorageKey: strings.TrimSpace(m.StorageKey), Kind: kind}
}

func fromString(s string) *MediaAsset {
	u := strings.TrimSpace(s)
	if u == "" {
		return nil
	}
	return &MediaAsset{URL: u, Kind: inferKind(u)}
}

func fromObject(lookup func(string) (any, bool)) *MediaAsset {
	u := firstString(lookup, urlKeys)
	if u == "" {
		return nil
	}
	kind := kindFromRaw(firstString(lookup, kindKeys))
	if kind == "" {
		kind = inferKind(u)
	}
	return &MediaAsset{
		URL:        u,
		StorageKey: firstString(lookup, storageKeyKeys),
		Kind:       kind,
	}
}

func firstString(lookup func(string) (any, bool), keys []string) string {
	for _, key := range keys {
		val, ok := lookup(key)
		if !ok {
			continue
		}
		s, ok := val.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func lookupD(d bson.D) func(string) (any, bool) {
	return func(key string) (any, bool) {
		for _, elem := range d {
			if elem.Key == key {
				return elem.Value, true
			}
		}
		return nil, false
	}
}
