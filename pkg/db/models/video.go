package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidora/vidora-backend/pkg/enums"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

const (
	VideosCollection = "videos"

	DefaultVideoCategory = "Other"
)

// Video is a published clip. VideoFile and Thumbnail are required and are
// always written in the canonical media shape.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	VideoFile   mediaref.Ref       `bson:"videoFile" json:"videoFile"`
	Thumbnail   mediaref.Ref       `bson:"thumbnail" json:"thumbnail"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Duration    float64            `bson:"duration" json:"duration"`
	Views       int64              `bson:"views" json:"views"`
	Category    string             `bson:"category" json:"category"`
	IsPublished bool               `bson:"isPublished" json:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// MediaAssets returns the attached assets in upload order. An asset without
// a stored kind takes the kind its field implies.
func (v Video) MediaAssets() []mediaref.MediaAsset {
	return collect(
		slot{v.VideoFile, enums.MediaKindVideo},
		slot{v.Thumbnail, enums.MediaKindImage},
	)
}

type slot struct {
	ref  mediaref.Ref
	kind enums.MediaKind
}

func collect(slots ...slot) []mediaref.MediaAsset {
	out := make([]mediaref.MediaAsset, 0, len(slots))
	for _, s := range slots {
		if s.ref.Asset != nil {
			out = append(out, s.ref.Asset.OrKind(s.kind))
		}
	}
	return out
}
