package controllers

import (
	"context"
	"net/http"

	"github.com/vidora/vidora-backend/api/middleware"
	"github.com/vidora/vidora-backend/api/responses"
	"github.com/vidora/vidora-backend/api/validators"
	"github.com/vidora/vidora-backend/internal/upload"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
)

type avatarReplacer interface {
	ReplaceAvatar(ctx context.Context, in upload.ReplaceAvatarInput) (*models.Account, error)
}

// AccountAvatarUpdate swaps the authenticated account's avatar.
func AccountAvatarUpdate(svc avatarReplacer, area stager, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}

		form, err := validators.ParseMultipart(w, r, maxBytes)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer cleanupMultipart(r.MultipartForm)

		files, err := stageForm(ctx, area, form, logg, enums.FileRoleAvatar)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		account, err := svc.ReplaceAvatar(ctx, upload.ReplaceAvatarInput{
			AccountID: accountID,
			Files:     files,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, account)
	}
}
