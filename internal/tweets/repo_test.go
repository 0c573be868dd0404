package tweets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/vidora/vidora-backend/pkg/db/models"
)

func TestRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	fixed := time.Date(2024, 6, 2, 8, 0, 0, 0, time.UTC)

	mt.Run("create stamps timestamps and id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewRepository(mt.DB)
		repo.now = func() time.Time { return fixed }

		tweet, err := repo.Create(context.Background(), &models.Tweet{Content: "hello", Owner: primitive.NewObjectID()})
		require.NoError(mt, err)
		assert.False(mt, tweet.ID.IsZero())
		assert.Equal(mt, fixed, tweet.CreatedAt)
		assert.Equal(mt, fixed, tweet.UpdatedAt)
	})

	mt.Run("find tolerates a bare url image", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "vidora.tweets", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "content", Value: "legacy"},
			{Key: "image", Value: "https://cdn.example/pic.jpg"},
		}))
		repo := NewRepository(mt.DB)

		tweet, err := repo.FindByID(context.Background(), id)
		require.NoError(mt, err)
		require.NotNil(mt, tweet.Image.Asset)
		assert.Equal(mt, "https://cdn.example/pic.jpg", tweet.Image.Asset.URL)
		assert.Empty(mt, tweet.MediaAssets()[0].StorageKey)
	})

	mt.Run("delete without match returns ErrNoDocuments", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))
		repo := NewRepository(mt.DB)

		assert.ErrorIs(mt, repo.Delete(context.Background(), primitive.NewObjectID()), mongo.ErrNoDocuments)
	})
}
