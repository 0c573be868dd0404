// Package upload coordinates promoting staged files to remote storage and
// persisting the records that reference them. Each operation runs as a
// single-pass saga: every successful upload registers a compensating remote
// delete that is unwound if a later step fails.
package upload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidora/vidora-backend/internal/objectstore"
	"github.com/vidora/vidora-backend/internal/saga"
	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/internal/videos"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/mediaref"
	"github.com/vidora/vidora-backend/pkg/metrics"
)

const defaultMetadataTimeout = 15 * time.Second

type assetStore interface {
	Upload(ctx context.Context, localPath string, kind enums.MediaKind) (*mediaref.MediaAsset, error)
	Delete(ctx context.Context, storageKey string, kind enums.MediaKind) (objectstore.DeleteResult, error)
}

type stagingArea interface {
	Remove(ctx context.Context, path string) error
}

type videoStore interface {
	Create(ctx context.Context, video *models.Video) (*models.Video, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	Update(ctx context.Context, id primitive.ObjectID, u videos.Update) (*models.Video, error)
}

type tweetStore interface {
	Create(ctx context.Context, tweet *models.Tweet) (*models.Tweet, error)
}

type accountStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	UpdateAvatar(ctx context.Context, id primitive.ObjectID, avatar mediaref.MediaAsset) (*models.Account, error)
	AddVideo(ctx context.Context, accountID, videoID primitive.ObjectID) error
	AddTweet(ctx context.Context, accountID, tweetID primitive.ObjectID) error
}

type orphanRecorder interface {
	RecordOrphan(ctx context.Context, asset mediaref.MediaAsset, reason enums.OrphanReason, cause error)
}

// Params bundles the coordinator collaborators.
type Params struct {
	Store           assetStore
	Staging         stagingArea
	Videos          videoStore
	Tweets          tweetStore
	Accounts        accountStore
	Orphans         orphanRecorder
	Metrics         *metrics.MediaMetrics
	Logger          *logger.Logger
	MetadataTimeout time.Duration
}

// Coordinator runs upload jobs. It holds no per-request state.
type Coordinator struct {
	store           assetStore
	staging         stagingArea
	videos          videoStore
	tweets          tweetStore
	accounts        accountStore
	orphans         orphanRecorder
	metrics         *metrics.MediaMetrics
	logg            *logger.Logger
	metadataTimeout time.Duration
	now             func() time.Time
}

func NewCoordinator(p Params) (*Coordinator, error) {
	switch {
	case p.Store == nil:
		return nil, fmt.Errorf("asset store required")
	case p.Staging == nil:
		return nil, fmt.Errorf("staging area required")
	case p.Videos == nil:
		return nil, fmt.Errorf("video store required")
	case p.Tweets == nil:
		return nil, fmt.Errorf("tweet store required")
	case p.Accounts == nil:
		return nil, fmt.Errorf("account store required")
	case p.Orphans == nil:
		return nil, fmt.Errorf("orphan recorder required")
	}
	logg := p.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	timeout := p.MetadataTimeout
	if timeout <= 0 {
		timeout = defaultMetadataTimeout
	}
	return &Coordinator{
		store:           p.Store,
		staging:         p.Staging,
		videos:          p.Videos,
		tweets:          p.Tweets,
		accounts:        p.Accounts,
		orphans:         p.Orphans,
		metrics:         p.Metrics,
		logg:            logg,
		metadataTimeout: timeout,
		now:             time.Now,
	}, nil
}

// begin creates the job and moves it into validation. The caller must defer
// finish on the returned job.
func (c *Coordinator) begin(ctx context.Context, op Operation, files []staging.File) (context.Context, *Job) {
	job := newJob(op, files, c.now())
	ctx = c.logg.WithFields(ctx, map[string]any{
		"job_id":       job.ID,
		"operation":    string(op),
		"staged_files": len(job.StagedFiles),
	})
	_ = c.step(ctx, job, enums.UploadStateValidating)
	return ctx, job
}

// finish removes every staged file exactly once, whatever the outcome.
func (c *Coordinator) finish(ctx context.Context, job *Job) {
	cleanupCtx := context.WithoutCancel(ctx)
	for _, f := range job.StagedFiles {
		if err := c.staging.Remove(cleanupCtx, f.LocalPath); err != nil {
			c.logg.Error(c.logg.WithField(cleanupCtx, "local_path", f.LocalPath), "upload.staged_cleanup_failed", err)
		}
	}
	elapsed := c.now().Sub(job.StartedAt)
	c.metrics.ObserveJob(string(job.Operation), string(job.State), elapsed)
	c.logg.Info(c.logg.WithFields(c.logg.WithJobState(cleanupCtx, job.ID, string(job.State)), map[string]any{
		"uploaded_assets": len(job.UploadedAssets),
		"duration_ms":     elapsed.Milliseconds(),
	}), "upload.finished")
}

func (c *Coordinator) step(ctx context.Context, job *Job, next enums.UploadState) error {
	if err := job.transition(next); err != nil {
		c.logg.Error(ctx, "upload.illegal_transition", err)
		return err
	}
	c.logg.Debug(c.logg.WithJobState(ctx, job.ID, string(next)), "upload.transition")
	return nil
}

// reject ends a job that failed before any remote side effect.
func (c *Coordinator) reject(ctx context.Context, job *Job, cause error) error {
	if err := c.step(ctx, job, enums.UploadStateFailed); err != nil {
		return err
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", cause.Error()), "upload.rejected")
	return cause
}

// rollback unwinds the saga and returns the original cause. Compensation
// failures are logged and ledgered, never returned.
func (c *Coordinator) rollback(ctx context.Context, job *Job, sg *saga.Saga, cause error) error {
	if err := c.step(ctx, job, enums.UploadStateRollingBack); err != nil {
		return err
	}
	undoCtx := context.WithoutCancel(ctx)
	if err := sg.Compensate(undoCtx); err != nil {
		for _, compErr := range saga.Errors(err) {
			c.logg.Error(ctx, "upload.compensation_failed", compErr)
		}
	}
	_ = c.step(ctx, job, enums.UploadStateFailed)
	c.logg.Error(ctx, "upload.rolled_back", cause)
	return cause
}

// uploadFile promotes one staged file and registers its compensation.
func (c *Coordinator) uploadFile(ctx context.Context, job *Job, sg *saga.Saga, f staging.File) (mediaref.MediaAsset, error) {
	asset, err := c.store.Upload(ctx, f.LocalPath, f.Role.MediaKind())
	if err != nil {
		return mediaref.MediaAsset{}, err
	}
	if asset == nil {
		return mediaref.MediaAsset{}, pkgerrors.New(pkgerrors.CodeUploadFailed, fmt.Sprintf("%s upload returned no asset", f.Role))
	}
	uploaded := *asset
	if uploaded.StorageKey != "" {
		sg.Push("delete "+uploaded.StorageKey, func(ctx context.Context) error {
			return c.compensate(ctx, uploaded)
		})
	}
	if err := uploaded.Validate(); err != nil {
		return mediaref.MediaAsset{}, pkgerrors.Wrap(pkgerrors.CodeUploadFailed, err, fmt.Sprintf("%s upload returned an invalid asset", f.Role))
	}
	job.UploadedAssets = append(job.UploadedAssets, uploaded)
	return uploaded, nil
}

func (c *Coordinator) compensate(ctx context.Context, asset mediaref.MediaAsset) error {
	res, err := c.store.Delete(ctx, asset.StorageKey, asset.Kind)
	if err != nil {
		c.metrics.IncCompensation("failed")
		c.orphans.RecordOrphan(ctx, asset, enums.OrphanReasonCompensation, err)
		return err
	}
	if res.Deleted {
		c.metrics.IncCompensation("deleted")
	} else {
		c.metrics.IncCompensation("noop")
	}
	return nil
}

// retire deletes an asset superseded by a committed update. Failures are
// ledgered, never surfaced.
func (c *Coordinator) retire(ctx context.Context, old *mediaref.MediaAsset, replacement mediaref.MediaAsset) {
	if old == nil || old.URL == "" {
		return
	}
	ctx = c.logg.WithField(context.WithoutCancel(ctx), "old_url", old.URL)
	if old.StorageKey == "" {
		c.logg.Warn(ctx, "upload.legacy_asset_not_deletable")
		return
	}
	if old.StorageKey == replacement.StorageKey {
		return
	}
	stale := old.OrKind(replacement.Kind)
	if _, err := c.store.Delete(ctx, stale.StorageKey, stale.Kind); err != nil {
		c.orphans.RecordOrphan(ctx, stale, enums.OrphanReasonReplace, err)
	}
}

// link appends to the owner index after commit. Failure is logged only.
func (c *Coordinator) link(ctx context.Context, index string, fn func(context.Context) error) {
	linkCtx, cancel := c.metadataCtx(ctx)
	defer cancel()
	if err := fn(linkCtx); err != nil {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"index": index, "error": err.Error()}), "upload.owner_index_update_failed")
	}
}

func (c *Coordinator) metadataCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.metadataTimeout)
}

func persistError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistenceFailed, err, "persist "+what)
}

func loadError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistenceFailed, err, "load "+what)
}

func validationError(field, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}
