package videos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

func newRepo(mt *mtest.T) *Repository {
	repo := NewRepository(mt.DB)
	repo.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return repo
}

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create fills id timestamps and default category", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := newRepo(mt)

		video := &models.Video{
			ID:        primitive.NewObjectID(),
			Title:     "t",
			VideoFile: mediaref.NewRef(&mediaref.MediaAsset{URL: "https://cdn/v.mp4", StorageKey: "v", Kind: enums.MediaKindVideo}),
			Thumbnail: mediaref.NewRef(&mediaref.MediaAsset{URL: "https://cdn/t.png", StorageKey: "t", Kind: enums.MediaKindImage}),
		}
		created, err := repo.Create(context.Background(), video)
		require.NoError(mt, err)
		assert.Equal(mt, models.DefaultVideoCategory, created.Category)
		assert.Equal(mt, repo.now().UTC(), created.CreatedAt)
		assert.False(mt, created.ID.IsZero())
	})

	mt.Run("create surfaces validation error", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))
		repo := newRepo(mt)

		_, err := repo.Create(context.Background(), &models.Video{Title: "t"})
		var we mongo.WriteException
		require.True(mt, errors.As(err, &we))
		assert.Equal(mt, 121, we.WriteErrors[0].Code)
	})

	mt.Run("find decodes legacy media shapes", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "vidora.videos", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "title", Value: "legacy"},
			{Key: "videoFile", Value: "https://cdn.example/x.mp4"},
			{Key: "thumbnail", Value: bson.D{{Key: "secure_url", Value: "https://cdn.example/y.png"}, {Key: "public_id", Value: "y"}}},
		}))
		repo := newRepo(mt)

		video, err := repo.FindByID(context.Background(), id)
		require.NoError(mt, err)
		require.NotNil(mt, video.VideoFile.Asset)
		assert.Equal(mt, "https://cdn.example/x.mp4", video.VideoFile.Asset.URL)
		assert.Empty(mt, video.VideoFile.Asset.StorageKey)
		require.NotNil(mt, video.Thumbnail.Asset)
		assert.Equal(mt, "y", video.Thumbnail.Asset.StorageKey)
	})

	mt.Run("find missing returns ErrNoDocuments", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "vidora.videos", mtest.FirstBatch))
		repo := newRepo(mt)

		_, err := repo.FindByID(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, mongo.ErrNoDocuments)
	})

	mt.Run("update returns document after write", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "title", Value: "new title"},
				{Key: "thumbnail", Value: bson.D{{Key: "url", Value: "https://cdn/n.png"}, {Key: "storageKey", Value: "n"}, {Key: "kind", Value: "image"}}},
			}},
		})
		repo := newRepo(mt)

		title := "new title"
		video, err := repo.Update(context.Background(), id, Update{
			Title:     &title,
			Thumbnail: &mediaref.MediaAsset{URL: "https://cdn/n.png", StorageKey: "n", Kind: enums.MediaKindImage},
		})
		require.NoError(mt, err)
		assert.Equal(mt, "new title", video.Title)
		assert.Equal(mt, "n", video.Thumbnail.Asset.StorageKey)
	})

	mt.Run("delete without match returns ErrNoDocuments", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := newRepo(mt)

		err := repo.Delete(context.Background(), primitive.NewObjectID())
		assert.ErrorIs(mt, err, mongo.ErrNoDocuments)
	})

	mt.Run("delete removes document", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := newRepo(mt)

		require.NoError(mt, repo.Delete(context.Background(), primitive.NewObjectID()))
	})
}
