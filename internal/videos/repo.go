// Package videos persists video records in MongoDB.
package videos

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

// Update carries the optional fields of a video edit. Nil fields are left
// untouched.
type Update struct {
	Title       *string
	Description *string
	Thumbnail   *mediaref.MediaAsset
}

func (u Update) empty() bool {
	return u.Title == nil && u.Description == nil && u.Thumbnail == nil
}

// Repository exposes video persistence operations.
type Repository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewRepository binds the repository to the videos collection of db.
func NewRepository(db *mongo.Database) *Repository {
	return &Repository{coll: db.Collection(models.VideosCollection), now: time.Now}
}

// Create inserts the video in a single write and fills its ID and timestamps.
func (r *Repository) Create(ctx context.Context, video *models.Video) (*models.Video, error) {
	now := r.now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now
	if video.Category == "" {
		video.Category = models.DefaultVideoCategory
	}
	res, err := r.coll.InsertOne(ctx, video)
	if err != nil {
		return nil, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		video.ID = oid
	}
	return video, nil
}

// FindByID returns mongo.ErrNoDocuments when the video does not exist.
func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error) {
	var video models.Video
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&video); err != nil {
		return nil, err
	}
	return &video, nil
}

// Update applies u and returns the stored document after the write.
func (r *Repository) Update(ctx context.Context, id primitive.ObjectID, u Update) (*models.Video, error) {
	if u.empty() {
		return r.FindByID(ctx, id)
	}
	set := bson.M{"updatedAt": r.now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.Thumbnail != nil {
		set["thumbnail"] = mediaref.NewRef(u.Thumbnail)
	}

	var video models.Video
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&video)
	if err != nil {
		return nil, err
	}
	return &video, nil
}

// Delete removes the video, returning mongo.ErrNoDocuments when nothing
// matched.
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
