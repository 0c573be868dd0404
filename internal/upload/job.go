package upload

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/mediaref"
)

// Operation names a coordinator entry point for logs and metrics.
type Operation string

const (
	OpPublishVideo     Operation = "publish_video"
	OpCreateTweet      Operation = "create_tweet"
	OpReplaceThumbnail Operation = "replace_thumbnail"
	OpReplaceAvatar    Operation = "replace_avatar"
)

// Job is the request-scoped state of one upload. It is never persisted.
type Job struct {
	ID             string
	Operation      Operation
	StagedFiles    []staging.File
	UploadedAssets []mediaref.MediaAsset
	State          enums.UploadState
	StartedAt      time.Time
}

func newJob(op Operation, files []staging.File, now time.Time) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Operation:   op,
		StagedFiles: append([]staging.File(nil), files...),
		State:       enums.UploadStateStaged,
		StartedAt:   now,
	}
}

// transition moves the job to next. An illegal move is a programming error.
func (j *Job) transition(next enums.UploadState) error {
	if !j.State.CanTransitionTo(next) {
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("illegal upload transition %s -> %s", j.State, next))
	}
	j.State = next
	return nil
}

// file returns the first staged file for role.
func (j *Job) file(role enums.FileRole) (staging.File, bool) {
	for _, f := range j.StagedFiles {
		if f.Role == role {
			return f, true
		}
	}
	return staging.File{}, false
}
