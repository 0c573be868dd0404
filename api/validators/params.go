package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
)

// ObjectIDParam parses a hex ObjectID route parameter.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return primitive.NilObjectID, pkgerrors.New(pkgerrors.CodeValidation, name+" is required").
			WithDetails(map[string]any{"field": name})
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, pkgerrors.Wrap(pkgerrors.CodeValidation, err, name+" is not a valid id").
			WithDetails(map[string]any{"field": name})
	}
	return id, nil
}
