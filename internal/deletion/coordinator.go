// Package deletion removes content records together with their remote media
// and dependent engagement. Steps run in a fixed order and only the record
// removal itself can fail the request; every other failure is logged, and
// remote assets that could not be deleted are handed to the orphan recorder.
package deletion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/vidora/vidora-backend/internal/engagement"
	"github.com/vidora/vidora-backend/internal/objectstore"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/mediaref"
	"github.com/vidora/vidora-backend/pkg/metrics"
)

const defaultMetadataTimeout = 15 * time.Second

type assetStore interface {
	Delete(ctx context.Context, storageKey string, kind enums.MediaKind) (objectstore.DeleteResult, error)
}

type videoStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Video, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type tweetStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Tweet, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type dependentStore interface {
	DeleteForVideo(ctx context.Context, videoID primitive.ObjectID) (engagement.Cleanup, error)
	DeleteForTweet(ctx context.Context, tweetID primitive.ObjectID) (engagement.Cleanup, error)
}

type ownerIndex interface {
	RemoveVideo(ctx context.Context, accountID, videoID primitive.ObjectID) error
	RemoveTweet(ctx context.Context, accountID, tweetID primitive.ObjectID) error
}

type orphanRecorder interface {
	RecordOrphan(ctx context.Context, asset mediaref.MediaAsset, reason enums.OrphanReason, cause error)
}

type Params struct {
	Store           assetStore
	Videos          videoStore
	Tweets          tweetStore
	Dependents      dependentStore
	Accounts        ownerIndex
	Orphans         orphanRecorder
	Metrics         *metrics.MediaMetrics
	Logger          *logger.Logger
	MetadataTimeout time.Duration
}

type Coordinator struct {
	store           assetStore
	videos          videoStore
	tweets          tweetStore
	dependents      dependentStore
	accounts        ownerIndex
	orphans         orphanRecorder
	metrics         *metrics.MediaMetrics
	logg            *logger.Logger
	metadataTimeout time.Duration
}

func NewCoordinator(p Params) (*Coordinator, error) {
	switch {
	case p.Store == nil:
		return nil, fmt.Errorf("asset store required")
	case p.Videos == nil:
		return nil, fmt.Errorf("video store required")
	case p.Tweets == nil:
		return nil, fmt.Errorf("tweet store required")
	case p.Dependents == nil:
		return nil, fmt.Errorf("dependent store required")
	case p.Accounts == nil:
		return nil, fmt.Errorf("account index required")
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
		videos:          p.Videos,
		tweets:          p.Tweets,
		dependents:      p.Dependents,
		accounts:        p.Accounts,
		orphans:         p.Orphans,
		metrics:         p.Metrics,
		logg:            logg,
		metadataTimeout: timeout,
	}, nil
}

// DeleteVideo removes a video owned by actorID.
func (c *Coordinator) DeleteVideo(ctx context.Context, videoID, actorID primitive.ObjectID) (*Report, error) {
	ctx = c.logg.WithFields(ctx, map[string]any{"video_id": videoID.Hex(), "actor_id": actorID.Hex()})
	report := newReport("video", videoID)

	loadCtx, cancel := c.metadataCtx(ctx)
	video, err := c.videos.FindByID(loadCtx, videoID)
	cancel()
	if err != nil {
		return nil, c.fail(ctx, report, StepLoad, loadError(err, "video"))
	}
	c.ok(report, StepLoad, "")
	if video.Owner != actorID {
		return nil, c.fail(ctx, report, StepAuthorize, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can delete this video"))
	}
	c.ok(report, StepAuthorize, "")

	c.deleteAssets(ctx, report, video.MediaAssets())

	c.deleteDependents(ctx, report, func(ctx context.Context) (engagement.Cleanup, error) {
		return c.dependents.DeleteForVideo(ctx, videoID)
	})

	if err := c.removeRecord(ctx, report, func(ctx context.Context) error {
		return c.videos.Delete(ctx, videoID)
	}, "video"); err != nil {
		return nil, err
	}

	c.unlink(ctx, report, func(ctx context.Context) error {
		return c.accounts.RemoveVideo(ctx, video.Owner, videoID)
	})
	c.logg.Info(c.logg.WithField(ctx, "report", report.summary()), "deletion.video_deleted")
	return report, nil
}

// DeleteTweet removes a tweet owned by actorID.
func (c *Coordinator) DeleteTweet(ctx context.Context, tweetID, actorID primitive.ObjectID) (*Report, error) {
	ctx = c.logg.WithFields(ctx, map[string]any{"tweet_id": tweetID.Hex(), "actor_id": actorID.Hex()})
	report := newReport("tweet", tweetID)

	loadCtx, cancel := c.metadataCtx(ctx)
	tweet, err := c.tweets.FindByID(loadCtx, tweetID)
	cancel()
	if err != nil {
		return nil, c.fail(ctx, report, StepLoad, loadError(err, "tweet"))
	}
	c.ok(report, StepLoad, "")
	if tweet.Owner != actorID {
		return nil, c.fail(ctx, report, StepAuthorize, pkgerrors.New(pkgerrors.CodeForbidden, "only the owner can delete this tweet"))
	}
	c.ok(report, StepAuthorize, "")

	c.deleteAssets(ctx, report, tweet.MediaAssets())

	c.deleteDependents(ctx, report, func(ctx context.Context) (engagement.Cleanup, error) {
		return c.dependents.DeleteForTweet(ctx, tweetID)
	})

	if err := c.removeRecord(ctx, report, func(ctx context.Context) error {
		return c.tweets.Delete(ctx, tweetID)
	}, "tweet"); err != nil {
		return nil, err
	}

	c.unlink(ctx, report, func(ctx context.Context) error {
		return c.accounts.RemoveTweet(ctx, tweet.Owner, tweetID)
	})
	c.logg.Info(c.logg.WithField(ctx, "report", report.summary()), "deletion.tweet_deleted")
	return report, nil
}

// deleteAssets removes every remote object of the record. Missing objects
// count as removed; failures are recorded as orphans. A client disconnect
// must not abandon a delete halfway or lose its ledger row.
func (c *Coordinator) deleteAssets(ctx context.Context, report *Report, assets []mediaref.MediaAsset) {
	ctx = context.WithoutCancel(ctx)
	for _, asset := range assets {
		assetCtx := c.logg.WithFields(ctx, map[string]any{"url": asset.URL, "storage_key": asset.StorageKey})
		if asset.StorageKey == "" {
			c.logg.Warn(assetCtx, "deletion.legacy_asset_skipped")
			c.record(report, StepDeleteAsset, ResultSkipped, asset.URL)
			continue
		}
		res, err := c.store.Delete(assetCtx, asset.StorageKey, asset.Kind)
		switch {
		case err != nil:
			c.logg.Error(assetCtx, "deletion.asset_delete_failed", err)
			c.orphans.RecordOrphan(assetCtx, asset, enums.OrphanReasonRecordDelete, err)
			c.record(report, StepDeleteAsset, ResultFailed, asset.StorageKey)
		case !res.Deleted:
			c.record(report, StepDeleteAsset, ResultMissing, asset.StorageKey)
		default:
			c.record(report, StepDeleteAsset, ResultOK, asset.StorageKey)
		}
	}
}

func (c *Coordinator) deleteDependents(ctx context.Context, report *Report, fn func(context.Context) (engagement.Cleanup, error)) {
	depCtx, cancel := c.metadataCtx(ctx)
	defer cancel()
	cleanup, err := fn(depCtx)
	report.Dependents = cleanup
	if err != nil {
		c.logg.Error(ctx, "deletion.dependents_failed", err)
		c.record(report, StepDeleteDependents, ResultFailed, err.Error())
		return
	}
	c.ok(report, StepDeleteDependents, fmt.Sprintf("comments=%d likes=%d", cleanup.Comments, cleanup.Likes))
}

func (c *Coordinator) removeRecord(ctx context.Context, report *Report, fn func(context.Context) error, what string) error {
	rmCtx, cancel := c.metadataCtx(ctx)
	defer cancel()
	if err := fn(rmCtx); err != nil {
		return c.fail(ctx, report, StepRemoveRecord, persistError(err, what))
	}
	c.ok(report, StepRemoveRecord, "")
	return nil
}

func (c *Coordinator) unlink(ctx context.Context, report *Report, fn func(context.Context) error) {
	linkCtx, cancel := c.metadataCtx(ctx)
	defer cancel()
	if err := fn(linkCtx); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "deletion.owner_index_update_failed")
		c.record(report, StepUnlinkOwner, ResultFailed, err.Error())
		return
	}
	c.ok(report, StepUnlinkOwner, "")
}

func (c *Coordinator) ok(report *Report, step Step, detail string) {
	c.record(report, step, ResultOK, detail)
}

func (c *Coordinator) record(report *Report, step Step, result Result, detail string) {
	report.add(step, result, detail)
	c.metrics.IncDeletionStep(string(step), string(result))
}

func (c *Coordinator) fail(ctx context.Context, report *Report, step Step, err error) error {
	c.record(report, step, ResultFailed, "")
	if pkgerrors.IsCode(err, pkgerrors.CodePersistenceFailed) {
		c.logg.Error(ctx, "deletion.failed", err)
	} else {
		c.logg.Warn(c.logg.WithFields(ctx, map[string]any{"step": string(step), "error": err.Error()}), "deletion.rejected")
	}
	return err
}

func (c *Coordinator) metadataCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.metadataTimeout)
}

func loadError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistenceFailed, err, "load "+what)
}

func persistError(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, what+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodePersistenceFailed, err, "delete "+what)
}
