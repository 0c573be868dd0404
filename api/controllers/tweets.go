package controllers

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/api/middleware"
	"github.com/vidora/vidora-backend/api/responses"
	"github.com/vidora/vidora-backend/api/validators"
	"github.com/vidora/vidora-backend/internal/deletion"
	"github.com/vidora/vidora-backend/internal/upload"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
)

const tweetContentMaxLen = 500

type tweetCreator interface {
	CreateTweet(ctx context.Context, in upload.CreateTweetInput) (*models.Tweet, error)
}

type tweetDeleter interface {
	DeleteTweet(ctx context.Context, tweetID, actorID primitive.ObjectID) (*deletion.Report, error)
}

func TweetCreate(svc tweetCreator, area stager, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ownerID, ok := middleware.AccountIDFromContext(ctx)
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

		files, err := stageForm(ctx, area, form, logg, enums.FileRoleImage)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		tweet, err := svc.CreateTweet(ctx, upload.CreateTweetInput{
			OwnerID: ownerID,
			Content: validators.SanitizeString(form.Value("content"), tweetContentMaxLen),
			Files:   files,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, tweet)
	}
}

func TweetDelete(svc tweetDeleter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}
		tweetID, err := validators.ObjectIDParam(r, "tweetId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.DeleteTweet(ctx, tweetID, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}
