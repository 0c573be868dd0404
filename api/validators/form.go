package validators

import (
	"errors"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
)

const multipartMemory = 32 << 20

// Form is a parsed multipart request.
type Form struct {
	values map[string][]string
	files  map[string][]*multipart.FileHeader
}

// ParseMultipart bounds the body at maxBytes and parses it. The caller must
// call RemoveAll on the request's MultipartForm once it is done with the
// file headers.
func ParseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) (*Form, error) {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return nil, pkgerrors.New(pkgerrors.CodePayloadTooLarge, "request body too large").
				WithDetails(map[string]any{"max_bytes": maxErr.Limit})
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnsupportedMediaType, err, "expected multipart/form-data")
		default:
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body")
		}
	}
	return &Form{values: r.MultipartForm.Value, files: r.MultipartForm.File}, nil
}

// Value returns the first value of a text field.
func (f *Form) Value(name string) string {
	if vals := f.values[name]; len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

// OptionalValue returns nil when the field is absent.
func (f *Form) OptionalValue(name string) *string {
	vals, ok := f.values[name]
	if !ok || len(vals) == 0 {
		return nil
	}
	v := strings.TrimSpace(vals[0])
	return &v
}

// Float parses a finite numeric field. An absent field yields zero.
func (f *Form) Float(name string) (float64, error) {
	raw := f.Value(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, name+" must be numeric").
			WithDetails(map[string]any{"field": name})
	}
	return v, nil
}

// Bool parses a boolean field. An absent field yields nil.
func (f *Form) Bool(name string) (*bool, error) {
	raw := f.Value(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a boolean").
			WithDetails(map[string]any{"field": name})
	}
	return &v, nil
}

// File returns the first file uploaded under name.
func (f *Form) File(name string) *multipart.FileHeader {
	if headers := f.files[name]; len(headers) > 0 {
		return headers[0]
	}
	return nil
}
