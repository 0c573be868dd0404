package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/pkg/enums"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

const TweetsCollection = "tweets"

type Tweet struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Content   string             `bson:"content" json:"content"`
	Image     mediaref.Ref       `bson:"image,omitempty" json:"image"`
	Owner     primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t Tweet) MediaAssets() []mediaref.MediaAsset {
	return collect(slot{t.Image, enums.MediaKindImage})
}
