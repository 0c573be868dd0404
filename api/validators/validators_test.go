package validators

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
)

type normalizeBody struct {
	Raw  any    `json:"raw" validate:"required"`
	Note string `json:"note" validate:"max=4"`
}

func TestDecodeJSONBody(t *testing.T) {
	var dest normalizeBody
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"raw":"https://cdn/x.png"}`))
	require.NoError(t, DecodeJSONBody(httptest.NewRecorder(), req, &dest))
	assert.Equal(t, "https://cdn/x.png", dest.Raw)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"raw":"x","extra":1}`))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &normalizeBody{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"raw":"x","note":"too long"}`))
	err = DecodeJSONBody(httptest.NewRecorder(), req, &normalizeBody{})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at most 4", details["note"])

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	err = DecodeJSONBody(httptest.NewRecorder(), req, &normalizeBody{})
	details, _ = pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["raw"])
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	payload := `{"raw":"` + strings.Repeat("a", maxJSONBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	err := DecodeJSONBody(httptest.NewRecorder(), req, &normalizeBody{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePayloadTooLarge), "got %v", err)
}

func TestObjectIDParam(t *testing.T) {
	id := primitive.NewObjectID()
	withParam := func(value string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("videoId", value)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	got, err := ObjectIDParam(withParam(id.Hex()), "videoId")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ObjectIDParam(withParam("nope"), "videoId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = ObjectIDParam(withParam(""), "videoId")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func multipartRequest(t *testing.T, fields map[string]string, files map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for field, name := range files {
		part, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("payload"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestParseMultipart(t *testing.T) {
	req := multipartRequest(t,
		map[string]string{"title": "  clip  ", "duration": "12.5", "isPublished": "false"},
		map[string]string{"thumbnail": "thumb.png"},
	)
	form, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = req.MultipartForm.RemoveAll() })

	assert.Equal(t, "clip", form.Value("title"))
	assert.Nil(t, form.OptionalValue("description"))
	require.NotNil(t, form.OptionalValue("title"))

	duration, err := form.Float("duration")
	require.NoError(t, err)
	assert.Equal(t, 12.5, duration)

	published, err := form.Bool("isPublished")
	require.NoError(t, err)
	require.NotNil(t, published)
	assert.False(t, *published)

	missing, err := form.Bool("other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NotNil(t, form.File("thumbnail"))
	assert.Equal(t, "thumb.png", form.File("thumbnail").Filename)
	assert.Nil(t, form.File("videoFile"))
}

func TestParseMultipartRejects(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	_, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnsupportedMediaType), "got %v", err)

	req = multipartRequest(t, map[string]string{"duration": "long"}, nil)
	form, err := ParseMultipart(httptest.NewRecorder(), req, 1<<20)
	require.NoError(t, err)
	_, err = form.Float("duration")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	for _, raw := range []string{"NaN", "nan", "Inf", "-Infinity", "1e400"} {
		req = multipartRequest(t, map[string]string{"duration": raw}, nil)
		form, err = ParseMultipart(httptest.NewRecorder(), req, 1<<20)
		require.NoError(t, err)
		_, err = form.Float("duration")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "duration %q", raw)
	}
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "héllo", SanitizeString("  héllo  ", 0))
	assert.Equal(t, "hé", SanitizeString("héllo", 2))
}
