package upload

import (
	"context"
	"math"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/internal/saga"
	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

type PublishVideoInput struct {
	OwnerID     primitive.ObjectID
	Title       string
	Description string
	Category    string
	Duration    float64
	IsPublished *bool
	Files       []staging.File
}

// PublishVideo uploads the video file then the thumbnail, and persists the
// record only once both are stored. The owner index is updated best effort.
func (c *Coordinator) PublishVideo(ctx context.Context, in PublishVideoInput) (*models.Video, error) {
	ctx, job := c.begin(ctx, OpPublishVideo, in.Files)
	defer c.finish(ctx, job)

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	switch {
	case in.OwnerID.IsZero():
		return nil, c.reject(ctx, job, validationError("owner", "owner is required"))
	case title == "":
		return nil, c.reject(ctx, job, validationError("title", "title is required"))
	case description == "":
		return nil, c.reject(ctx, job, validationError("description", "description is required"))
	case in.Duration < 0, math.IsNaN(in.Duration), math.IsInf(in.Duration, 0):
		return nil, c.reject(ctx, job, validationError("duration", "duration must be a finite non-negative number"))
	}
	videoFile, ok := job.file(enums.FileRoleVideo)
	if !ok {
		return nil, c.reject(ctx, job, validationError(string(enums.FileRoleVideo), "videoFile is required"))
	}
	thumbFile, ok := job.file(enums.FileRoleThumbnail)
	if !ok {
		return nil, c.reject(ctx, job, validationError(string(enums.FileRoleThumbnail), "thumbnail is required"))
	}

	sg := saga.New()
	if err := c.step(ctx, job, enums.UploadStateUploading); err != nil {
		return nil, err
	}
	videoAsset, err := c.uploadFile(ctx, job, sg, videoFile)
	if err != nil {
		return nil, c.rollback(ctx, job, sg, err)
	}
	thumbAsset, err := c.uploadFile(ctx, job, sg, thumbFile)
	if err != nil {
		return nil, c.rollback(ctx, job, sg, err)
	}

	if err := c.step(ctx, job, enums.UploadStatePersisting); err != nil {
		return nil, c.rollback(ctx, job, sg, err)
	}
	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = models.DefaultVideoCategory
	}
	isPublished := true
	if in.IsPublished != nil {
		isPublished = *in.IsPublished
	}
	persistCtx, cancel := c.metadataCtx(ctx)
	video, err := c.videos.Create(persistCtx, &models.Video{
		VideoFile:   mediaref.NewRef(&videoAsset),
		Thumbnail:   mediaref.NewRef(&thumbAsset),
		Title:       title,
		Description: description,
		Duration:    in.Duration,
		Category:    category,
		IsPublished: isPublished,
		Owner:       in.OwnerID,
	})
	cancel()
	if err != nil {
		return nil, c.rollback(ctx, job, sg, persistError(err, "video"))
	}

	if err := c.step(ctx, job, enums.UploadStateCommitted); err != nil {
		return nil, err
	}
	sg.Forget()

	c.link(ctx, "videos", func(ctx context.Context) error {
		return c.accounts.AddVideo(ctx, in.OwnerID, video.ID)
	})
	return video, nil
}
