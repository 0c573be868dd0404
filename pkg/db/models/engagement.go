package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	LikesCollection    = "likes"
	CommentsCollection = "comments"
)

// Like targets exactly one of Video, Tweet or Comment.
type Like struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Video     *primitive.ObjectID `bson:"video,omitempty" json:"video,omitempty"`
	Tweet     *primitive.ObjectID `bson:"tweet,omitempty" json:"tweet,omitempty"`
	Comment   *primitive.ObjectID `bson:"comment,omitempty" json:"comment,omitempty"`
	LikedBy   primitive.ObjectID  `bson:"likedBy" json:"likedBy"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Content   string             `bson:"content" json:"content"`
	Video     primitive.ObjectID `bson:"video" json:"video"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
