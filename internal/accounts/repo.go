// Package accounts persists account profile media and the owned-content
// index.
package accounts

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

const (
	videosField = "videos"
	tweetsField = "tweets"
)

type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{coll: db.Collection(models.AccountsCollection), now: time.Now}
}

// FindByID returns mongo.ErrNoDocuments when the account does not exist.
func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	var account models.Account
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&account); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAvatar stores avatar in the canonical shape and returns the account
// after the write.
func (r *Repository) UpdateAvatar(ctx context.Context, id primitive.ObjectID, avatar mediaref.MediaAsset) (*models.Account, error) {
	var account models.Account
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"avatar": mediaref.NewRef(&avatar), "updatedAt": r.now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) AddVideo(ctx context.Context, accountID, videoID primitive.ObjectID) error {
	return r.addToIndex(ctx, accountID, videosField, videoID)
}

func (r *Repository) RemoveVideo(ctx context.Context, accountID, videoID primitive.ObjectID) error {
	return r.pullFromIndex(ctx, accountID, videosField, videoID)
}

func (r *Repository) AddTweet(ctx context.Context, accountID, tweetID primitive.ObjectID) error {
	return r.addToIndex(ctx, accountID, tweetsField, tweetID)
}

func (r *Repository) RemoveTweet(ctx context.Context, accountID, tweetID primitive.ObjectID) error {
	return r.pullFromIndex(ctx, accountID, tweetsField, tweetID)
}

func (r *Repository) addToIndex(ctx context.Context, accountID primitive.ObjectID, field string, id primitive.ObjectID) error {
	return r.updateIndex(ctx, accountID, bson.M{"$addToSet": bson.M{field: id}})
}

func (r *Repository) pullFromIndex(ctx context.Context, accountID primitive.ObjectID, field string, id primitive.ObjectID) error {
	return r.updateIndex(ctx, accountID, bson.M{"$pull": bson.M{field: id}})
}

func (r *Repository) updateIndex(ctx context.Context, accountID primitive.ObjectID, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": accountID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
