package upload

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/internal/saga"
	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

type CreateTweetInput struct {
	OwnerID primitive.ObjectID
	Content string
	Files   []staging.File
}

// CreateTweet persists a tweet with an optional image.
func (c *Coordinator) CreateTweet(ctx context.Context, in CreateTweetInput) (*models.Tweet, error) {
	ctx, job := c.begin(ctx, OpCreateTweet, in.Files)
	defer c.finish(ctx, job)

	content := strings.TrimSpace(in.Content)
	switch {
	case in.OwnerID.IsZero():
		return nil, c.reject(ctx, job, validationError("owner", "owner is required"))
	case content == "":
		return nil, c.reject(ctx, job, validationError("content", "content is required"))
	}

	sg := saga.New()
	if err := c.step(ctx, job, enums.UploadStateUploading); err != nil {
		return nil, err
	}
	tweet := &models.Tweet{Content: content, Owner: in.OwnerID}
	if imageFile, ok := job.file(enums.FileRoleImage); ok {
		image, err := c.uploadFile(ctx, job, sg, imageFile)
		if err != nil {
			return nil, c.rollback(ctx, job, sg, err)
		}
		tweet.Image = mediaref.NewRef(&image)
	}

	if err := c.step(ctx, job, enums.UploadStatePersisting); err != nil {
		return nil, c.rollback(ctx, job, sg, err)
	}
	persistCtx, cancel := c.metadataCtx(ctx)
	created, err := c.tweets.Create(persistCtx, tweet)
	cancel()
	if err != nil {
		return nil, c.rollback(ctx, job, sg, persistError(err, "tweet"))
	}

	if err := c.step(ctx, job, enums.UploadStateCommitted); err != nil {
		return nil, err
	}
	sg.Forget()

	c.link(ctx, "tweets", func(ctx context.Context) error {
		return c.accounts.AddTweet(ctx, in.OwnerID, created.ID)
	})
	return created, nil
}
