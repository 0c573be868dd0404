// Package tweets persists tweet records in MongoDB.
package tweets

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidora/vidora-backend/pkg/db/models"
)

type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{coll: db.Collection(models.TweetsCollection), now: time.Now}
}

func (r *Repository) Create(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error) {
	now := r.now().UTC()
	tweet.CreatedAt = now
	tweet.UpdatedAt = now
	res, err := r.coll.InsertOne(ctx, tweet)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		tweet.ID = oid
	}
	return tweet, nil
}

func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error) {
	var tweet models.Tweet
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&tweet); err != nil {
		return nil, err
	}
	return &tweet, nil
}

func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
