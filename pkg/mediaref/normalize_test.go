package mediaref

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vidora/vidora-backend/pkg/enums"
)

func TestNormalizeBareString(t *testing.T) {
	t.Parallel()

	got := Normalize("https://cdn.example/x.png")
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn.example/x.png", got.URL)
	assert.Equal(t, "", got.StorageKey)
	assert.Equal(t, enums.MediaKindImage, got.Kind)
	assert.False(t, got.IsAttached())
}

func TestNormalizeSecureURLOnly(t *testing.T) {
	t.Parallel()

	got := Normalize(map[string]any{"secure_url": "https://cdn.example/y.mp4"})
	require.NotNil(t, got)
	assert.Equal(t, "https://cdn.example/y.mp4", got.URL)
	assert.Equal(t, "", got.StorageKey)
	assert.Equal(t, enums.MediaKindVideo, got.Kind)
}

func TestNormalizeLegacyShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     any
		wantURL string
		wantKey string
	}{
		{name: "nil", raw: nil},
		{name: "empty string", raw: "   "},
		{name: "number", raw: 42},
		{name: "slice", raw: []string{"https://cdn.example/a.png"}},
		{name: "object without url", raw: map[string]any{"public_id": "abc"}},
		{name: "url with public id", raw: map[string]any{"url": "https://cdn.example/a.png", "public_id": "abc"}, wantURL: "https://cdn.example/a.png", wantKey: "abc"},
		{name: "secure url", raw: map[string]any{"secure_url": "https://cdn.example/b.png", "publicId": "b"}, wantURL: "https://cdn.example/b.png", wantKey: "b"},
		{name: "src", raw: map[string]any{"src": "https://cdn.example/c.png"}, wantURL: "https://cdn.example/c.png"},
		{name: "path", raw: map[string]any{"path": "https://cdn.example/d.png", "key": "d"}, wantURL: "https://cdn.example/d.png", wantKey: "d"},
		{name: "url wins over secure_url", raw: map[string]any{"secure_url": "https://s/e.png", "url": "https://u/e.png"}, wantURL: "https://u/e.png"},
		{name: "non string url skipped", raw: map[string]any{"url": 7, "src": "https://cdn.example/f.png"}, wantURL: "https://cdn.example/f.png"},
		{name: "bson.M", raw: bson.M{"url": "https://cdn.example/g.png", "storageKey": "g"}, wantURL: "https://cdn.example/g.png", wantKey: "g"},
		{name: "bson.D", raw: bson.D{{Key: "secure_url", Value: "https://cdn.example/h.png"}, {Key: "public_id", Value: "h"}}, wantURL: "https://cdn.example/h.png", wantKey: "h"},
		{name: "string map", raw: map[string]string{"url": "https://cdn.example/i.png", "storage_key": "i"}, wantURL: "https://cdn.example/i.png", wantKey: "i"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got *MediaAsset
			require.NotPanics(t, func() { got = Normalize(tt.raw) })
			if tt.wantURL == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantURL, got.URL)
			assert.Equal(t, tt.wantKey, got.StorageKey)
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	assets := []MediaAsset{
		{URL: "https://cdn.example/v.mp4", StorageKey: "vidora/videos/1.mp4", Kind: enums.MediaKindVideo},
		{URL: "https://cdn.example/t.jpg", StorageKey: "vidora/images/2.jpg", Kind: enums.MediaKindImage},
		{URL: "https://cdn.example/blob", StorageKey: "vidora/images/3", Kind: enums.MediaKindImage},
	}
	for _, m := range assets {
		fromRaw := Normalize(ToRaw(m))
		require.NotNil(t, fromRaw)
		assert.Equal(t, m, *fromRaw)

		again := Normalize(*fromRaw)
		require.NotNil(t, again)
		assert.Equal(t, m, *again)

		ptr := Normalize(&m)
		require.NotNil(t, ptr)
		assert.Equal(t, m, *ptr)
	}
}

func TestNormalizeKindFromResourceType(t *testing.T) {
	t.Parallel()

	got := Normalize(map[string]any{"url": "https://res.example/upload/abc", "public_id": "abc", "resource_type": "video"})
	require.NotNil(t, got)
	assert.Equal(t, enums.MediaKindVideo, got.Kind)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, MediaAsset{StorageKey: "k", Kind: enums.MediaKindImage}.Validate(), ErrMissingURL)
	assert.ErrorIs(t, MediaAsset{URL: "https://x/y.png", Kind: enums.MediaKindImage}.Validate(), ErrMissingStorageKey)
	assert.Error(t, MediaAsset{URL: "https://x/y.png", StorageKey: "k", Kind: enums.MediaKindAuto}.Validate())
	assert.NoError(t, MediaAsset{URL: "https://x/y.png", StorageKey: "k", Kind: enums.MediaKindImage}.Validate())
	assert.ErrorIs(t, MediaAsset{URL: " https://x/a.png", StorageKey: "k", Kind: enums.MediaKindImage}.Validate(), ErrPaddedField)
	assert.ErrorIs(t, MediaAsset{URL: "https://x/a.png", StorageKey: "k\n", Kind: enums.MediaKindImage}.Validate(), ErrPaddedField)
}

func TestValidAssetsRoundTrip(t *testing.T) {
	t.Parallel()

	candidates := []MediaAsset{
		{URL: "https://x/a.png", StorageKey: "vidora/images/a.png", Kind: enums.MediaKindImage},
		{URL: " https://x/a.png", StorageKey: "vidora/images/a.png", Kind: enums.MediaKindImage},
		{URL: "https://x/a.mp4\t", StorageKey: "vidora/videos/a.mp4", Kind: enums.MediaKindVideo},
		{URL: "https://x/a.png", StorageKey: " vidora/images/a.png ", Kind: enums.MediaKindImage},
		{URL: "https://x/blob", StorageKey: "blob", Kind: enums.MediaKindVideo},
	}
	for _, m := range candidates {
		if m.Validate() != nil {
			continue
		}
		got := Normalize(ToRaw(m))
		require.NotNil(t, got)
		assert.Equal(t, m, *got, "valid asset %+v must survive a round trip", m)
	}
}

func TestKindFromPath(t *testing.T) {
	t.Parallel()

	assert.Equal(t, enums.MediaKindVideo, KindFromPath("/tmp/staging/123-456.MOV"))
	assert.Equal(t, enums.MediaKindImage, KindFromPath("https://cdn.example/a/b.webp?v=2"))
	assert.Equal(t, enums.MediaKindAuto, KindFromPath("/tmp/staging/notes.txt"))
	assert.Equal(t, enums.MediaKindAuto, KindFromPath(""))
}

func TestRefBSONAcceptsLegacyShapes(t *testing.T) {
	t.Parallel()

	type doc struct {
		Avatar Ref `bson:"avatar"`
	}

	legacy, err := bson.Marshal(bson.M{"avatar": "https://cdn.example/avatar.png"})
	require.NoError(t, err)
	var fromString doc
	require.NoError(t, bson.Unmarshal(legacy, &fromString))
	require.NotNil(t, fromString.Avatar.Asset)
	assert.Equal(t, "https://cdn.example/avatar.png", fromString.Avatar.Asset.URL)

	nested, err := bson.Marshal(bson.M{"avatar": bson.M{"secure_url": "https://cdn.example/b.png", "public_id": "b"}})
	require.NoError(t, err)
	var fromObject doc
	require.NoError(t, bson.Unmarshal(nested, &fromObject))
	require.NotNil(t, fromObject.Avatar.Asset)
	assert.Equal(t, "b", fromObject.Avatar.Asset.StorageKey)

	canonical := doc{Avatar: NewRef(&MediaAsset{URL: "https://cdn.example/c.png", StorageKey: "c", Kind: enums.MediaKindImage})}
	encoded, err := bson.Marshal(canonical)
	require.NoError(t, err)
	var raw bson.M
	require.NoError(t, bson.Unmarshal(encoded, &raw))
	_, isString := raw["avatar"].(string)
	require.False(t, isString, "canonical ref must be stored as an object")
	stored := Normalize(raw["avatar"])
	require.NotNil(t, stored)
	assert.Equal(t, *canonical.Avatar.Asset, *stored)
}

func TestRefJSON(t *testing.T) {
	t.Parallel()

	var ref Ref
	require.NoError(t, json.Unmarshal([]byte(`{"src":"https://cdn.example/j.png"}`), &ref))
	require.NotNil(t, ref.Asset)
	assert.Equal(t, "https://cdn.example/j.png", ref.Asset.URL)

	require.NoError(t, json.Unmarshal([]byte(`null`), &ref))
	assert.Nil(t, ref.Asset)

	out, err := json.Marshal(NewRef(&MediaAsset{URL: "https://cdn.example/k.png", StorageKey: "k", Kind: enums.MediaKindImage}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"url":"https://cdn.example/k.png","storageKey":"k","kind":"image"}`, string(out))
}
