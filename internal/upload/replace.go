package upload

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/internal/saga"
	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/internal/videos"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

type ReplaceThumbnailInput struct {
	VideoID     primitive.ObjectID
	ActorID     primitive.ObjectID
	Title       *string
	Description *string
	Files       []staging.File
}

// ReplaceVideoThumbnail edits a video's scalar fields and, when a thumbnail
// is staged, swaps it. The old thumbnail is deleted only after the update is
// stored, so the record never points at a deleted asset.
func (c *Coordinator) ReplaceVideoThumbnail(ctx context.Context, in ReplaceThumbnailInput) (*models.Video, error) {
	ctx, job := c.begin(ctx, OpReplaceThumbnail, in.Files)
	defer c.finish(ctx, job)

	if in.VideoID.IsZero() {
		return nil, c.reject(ctx, job, validationError("videoId", "videoId is required"))
	}
	update := videos.Update{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, c.reject(ctx, job, validationError("title", "title must not be empty"))
		}
		update.Title = &title
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		if description == "" {
			return nil, c.reject(ctx, job, validationError("description", "description must not be empty"))
		}
		update.Description = &description
	}
	thumbFile, hasThumb := job.file(enums.FileRoleThumbnail)
	if !hasThumb && update.Title == nil && update.Description == nil {
		return nil, c.reject(ctx, job, validationError("thumbnail", "nothing to update"))
	}

	loadCtx, cancel := c.metadataCtx(ctx)
	current, err := c.videos.FindByID(loadCtx, in.VideoID)
	cancel()
	if err != nil {
		return nil, c.reject(ctx, job, loadError(err, "video"))
	}
	if current.Owner != in.ActorID {
		return nil, c.reject(ctx, job, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can edit this video"))
	}

	sg := saga.New()
	if err := c.step(ctx, job, enums.UploadStateUploading); err != nil {
		return nil, err
	}
	var replacement mediaref.MediaAsset
	if hasThumb {
		replacement, err = c.uploadFile(ctx, job, sg, thumbFile)
		if err != nil {
			return nil, c.rollback(ctx, job, sg, err)
		}
		update.Thumbnail = &replacement
	}

	if err := c.step(ctx, job, enums.UploadStatePersisting); err != nil {
		return nil, c.rollback(ctx, job, sg, err)
	}
	persistCtx, cancel := c.metadataCtx(ctx)
	updated, err := c.videos.Update(persistCtx, in.VideoID, update)
	cancel()
	if err != nil {
		return nil, c.rollback(ctx, job, sg, persistError(err, "video"))
	}

	if err := c.step(ctx, job, enums.UploadStateCommitted); err != nil {
		return nil, err
	}
	sg.Forget()

	if hasThumb {
		c.retire(ctx, current.Thumbnail.Asset, replacement)
	}
	return updated, nil
}

type ReplaceAvatarInput struct {
	AccountID primitive.ObjectID
	Files     []staging.File
}

// ReplaceAvatar swaps the account avatar with the same ordering as
// ReplaceVideoThumbnail.
func (c *Coordinator) ReplaceAvatar(ctx context.Context, in ReplaceAvatarInput) (*models.Account, error) {
	ctx, job := c.begin(ctx, OpReplaceAvatar, in.Files)
	defer c.finish(ctx, job)

	if in.AccountID.IsZero() {
		return nil, c.reject(ctx, job, validationError("account", "account is required"))
	}
	avatarFile, ok := job.file(enums.FileRoleAvatar)
	if !ok {
		return nil, c.reject(ctx, job, validationError(string(enums.FileRoleAvatar), "avatar is required"))
	}

	loadCtx, cancel := c.metadataCtx(ctx)
	current, err := c.accounts.FindByID(loadCtx, in.AccountID)
	cancel()
	if err != nil {
		return nil, c.reject(ctx, job, loadError(err, "account"))
	}

	sg := saga.New()
	if err := c.step(ctx, job, enums.UploadStateUploading); err != nil {
		return nil, err
	}
	avatar, err := c.uploadFile(ctx, job, sg, avatarFile)
	if err != nil {
		return nil, c.rollback(ctx, job, sg, err)
	}

	if err := c.step(ctx, job, enums.UploadStatePersisting); err != nil {
		return nil, c.rollback(ctx, job, sg, err)
	}
	persistCtx, cancel := c.metadataCtx(ctx)
	updated, err := c.accounts.UpdateAvatar(persistCtx, in.AccountID, avatar)
	cancel()
	if err != nil {
		return nil, c.rollback(ctx, job, sg, persistError(err, "account"))
	}

	if err := c.step(ctx, job, enums.UploadStateCommitted); err != nil {
		return nil, err
	}
	sg.Forget()

	c.retire(ctx, current.Avatar.Asset, avatar)
	return updated, nil
}
