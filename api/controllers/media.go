package controllers

import (
	"net/http"

	"github.com/vidora/vidora-backend/api/responses"
	"github.com/vidora/vidora-backend/api/validators"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

type normalizeRequest struct {
	Raw any `json:"raw"`
}

type normalizeResponse struct {
	Asset *mediaref.MediaAsset `json:"asset"`
}

// MediaNormalize repairs a stored media reference of any historical shape.
// Unrecognized input yields a null asset, not an error.
func MediaNormalize(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body normalizeRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, normalizeResponse{Asset: mediaref.Normalize(body.Raw)})
	}
}
