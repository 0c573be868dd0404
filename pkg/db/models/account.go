package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/pkg/mediaref"
)

const AccountsCollection = "users"

// Account holds the profile media and the denormalized owned-content index.
// Avatar and CoverImage tolerate every legacy stored shape on read.
type Account struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username   string               `bson:"username" json:"username"`
	Email      string               `bson:"email" json:"email"`
	FullName   string               `bson:"fullName" json:"fullName"`
	Avatar     mediaref.Ref         `bson:"avatar" json:"avatar"`
	CoverImage mediaref.Ref         `bson:"coverImage,omitempty" json:"coverImage"`
	Videos     []primitive.ObjectID `bson:"videos,omitempty" json:"videos"`
	Tweets     []primitive.ObjectID `bson:"tweets,omitempty" json:"tweets"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`
}
