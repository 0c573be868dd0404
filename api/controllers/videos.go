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

const (
	titleMaxLen       = 200
	descriptionMaxLen = 5000
	categoryMaxLen    = 64
)

type videoPublisher interface {
	PublishVideo(ctx context.Context, in upload.PublishVideoInput) (*models.Video, error)
}

type videoEditor interface {
	ReplaceVideoThumbnail(ctx context.Context, in upload.ReplaceThumbnailInput) (*models.Video, error)
}

type videoDeleter interface {
	DeleteVideo(ctx context.Context, videoID, actorID primitive.ObjectID) (*deletion.Report, error)
}

// VideoPublish accepts the video file, thumbnail and metadata as one
// multipart form and answers 201 with the stored video.
func VideoPublish(svc videoPublisher, area stager, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
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

		duration, err := form.Float("duration")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		isPublished, err := form.Bool("isPublished")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		files, err := stageForm(ctx, area, form, logg, enums.FileRoleVideo, enums.FileRoleThumbnail)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		video, err := svc.PublishVideo(ctx, upload.PublishVideoInput{
			OwnerID:     ownerID,
			Title:       validators.SanitizeString(form.Value("title"), titleMaxLen),
			Description: validators.SanitizeString(form.Value("description"), descriptionMaxLen),
			Category:    validators.SanitizeString(form.Value("category"), categoryMaxLen),
			Duration:    duration,
			IsPublished: isPublished,
			Files:       files,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, video)
	}
}

// VideoUpdate edits the title and description and optionally swaps the
// thumbnail.
func VideoUpdate(svc videoEditor, area stager, maxBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}
		videoID, err := validators.ObjectIDParam(r, "videoId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		form, err := validators.ParseMultipart(w, r, maxBytes)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer cleanupMultipart(r.MultipartForm)

		files, err := stageForm(ctx, area, form, logg, enums.FileRoleThumbnail)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		video, err := svc.ReplaceVideoThumbnail(ctx, upload.ReplaceThumbnailInput{
			VideoID:     videoID,
			ActorID:     actorID,
			Title:       capped(form.OptionalValue("title"), titleMaxLen),
			Description: capped(form.OptionalValue("description"), descriptionMaxLen),
			Files:       files,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, video)
	}
}

// VideoDelete removes the video and its assets and answers with the
// per-step report.
func VideoDelete(svc videoDeleter, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actorID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "account context missing"))
			return
		}
		videoID, err := validators.ObjectIDParam(r, "videoId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := svc.DeleteVideo(ctx, videoID, actorID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func capped(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	v := validators.SanitizeString(*value, maxLen)
	return &v
}
