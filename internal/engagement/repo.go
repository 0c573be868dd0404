// Package engagement removes likes and comments that reference deleted
// content.
package engagement

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidora/vidora-backend/pkg/db/models"
)

// Cleanup summarises removed dependent records.
type Cleanup struct {
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
}

type Repository struct {
	likes    *mongo.Collection
	comments *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{
		likes:    db.Collection(models.LikesCollection),
		comments: db.Collection(models.CommentsCollection),
	}
}

// DeleteForVideo removes comments on the video, likes on those comments and
// likes on the video itself.
func (r *Repository) DeleteForVideo(ctx context.Context, videoID primitive.ObjectID) (Cleanup, error) {
	var out Cleanup

	commentIDs, err := r.commentIDs(ctx, videoID)
	if err != nil {
		return out, err
	}
	if len(commentIDs) > 0 {
		res, err := r.likes.DeleteMany(ctx, bson.M{"comment": bson.M{"$in": commentIDs}})
		if err != nil {
			return out, fmt.Errorf("delete comment likes: %w", err)
		}
		out.Likes += res.DeletedCount
	}

	res, err := r.comments.DeleteMany(ctx, bson.M{"video": videoID})
	if err != nil {
		return out, fmt.Errorf("delete comments: %w", err)
	}
	out.Comments = res.DeletedCount

	res, err = r.likes.DeleteMany(ctx, bson.M{"video": videoID})
	if err != nil {
		return out, fmt.Errorf("delete video likes: %w", err)
	}
	out.Likes += res.DeletedCount
	return out, nil
}

// DeleteForTweet removes likes on the tweet.
func (r *Repository) DeleteForTweet(ctx context.Context, tweetID primitive.ObjectID) (Cleanup, error) {
	res, err := r.likes.DeleteMany(ctx, bson.M{"tweet": tweetID})
	if err != nil {
		return Cleanup{}, fmt.Errorf("delete tweet likes: %w", err)
	}
	return Cleanup{Likes: res.DeletedCount}, nil
}

func (r *Repository) commentIDs(ctx context.Context, videoID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := r.comments.Find(ctx, bson.M{"video": videoID}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode comment id: %w", err)
		}
		ids = append(ids, row.ID)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return ids, nil
}
