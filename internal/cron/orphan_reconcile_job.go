package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vidora/vidora-backend/internal/objectstore"
	"github.com/vidora/vidora-backend/pkg/db"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/metrics"
)

const (
	OrphanReconcileJobName   = "orphan-reconcile"
	defaultOrphanBatchSize   = 100
	defaultOrphanMaxAttempts = 5
)

type orphanLedger interface {
	ListPending(ctx context.Context, limit int) ([]models.OrphanAsset, error)
	MarkResolved(ctx context.Context, id uuid.UUID) error
	MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string) error
	MarkAbandoned(ctx context.Context, id uuid.UUID, lastErr string) error
	CountByStatus(ctx context.Context) (map[enums.OrphanStatus]int64, error)
}

type remoteDeleter interface {
	Delete(ctx context.Context, storageKey string, kind enums.MediaKind) (objectstore.DeleteResult, error)
}

type OrphanReconcileJobParams struct {
	Logger      *logger.Logger
	Ledger      orphanLedger
	Store       remoteDeleter
	Metrics     *metrics.CronJobMetrics
	BatchSize   int
	MaxAttempts int
}

// NewOrphanReconcileJob retries remote deletes recorded in the orphan ledger.
func NewOrphanReconcileJob(params OrphanReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("orphan ledger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultOrphanBatchSize
	}
	maxAttempts := params.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultOrphanMaxAttempts
	}
	return &orphanReconcileJob{
		logg:        params.Logger,
		ledger:      params.Ledger,
		store:       params.Store,
		metrics:     params.Metrics,
		batchSize:   batch,
		maxAttempts: maxAttempts,
	}, nil
}

type orphanReconcileJob struct {
	logg        *logger.Logger
	ledger      orphanLedger
	store       remoteDeleter
	metrics     *metrics.CronJobMetrics
	batchSize   int
	maxAttempts int
}

type reconcileTally struct {
	resolved  int
	retried   int
	abandoned int
}

func (j *orphanReconcileJob) Name() string { return OrphanReconcileJobName }

func (j *orphanReconcileJob) Run(ctx context.Context) error {
	rows, err := j.ledger.ListPending(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("list pending orphans: %w", err)
	}

	var tally reconcileTally
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		if err := j.reconcile(ctx, row, &tally); err != nil {
			return err
		}
	}

	j.metrics.AddProcessed(j.Name(), "resolved", tally.resolved)
	j.metrics.AddProcessed(j.Name(), "retried", tally.retried)
	j.metrics.AddProcessed(j.Name(), "abandoned", tally.abandoned)
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"candidates": len(rows),
		"resolved":   tally.resolved,
		"retried":    tally.retried,
		"abandoned":  tally.abandoned,
	}), "orphan reconcile complete")
	if ctx.Err() != nil {
		return ctx.Err()
	}
	j.reportBacklog(ctx)
	return nil
}

// reportBacklog exports ledger counts. A failed count does not fail the run.
func (j *orphanReconcileJob) reportBacklog(ctx context.Context) {
	counts, err := j.ledger.CountByStatus(ctx)
	if err != nil {
		j.logg.Warn(j.logg.WithField(ctx, "error", err.Error()), "orphan backlog count failed")
		return
	}
	for _, status := range []enums.OrphanStatus{enums.OrphanStatusPending, enums.OrphanStatusResolved, enums.OrphanStatusAbandoned} {
		j.metrics.SetOrphanBacklog(string(status), counts[status])
	}
}

// reconcile retries one row. Only ledger write failures are returned; a
// failed remote delete is recorded on the row.
func (j *orphanReconcileJob) reconcile(ctx context.Context, row models.OrphanAsset, tally *reconcileTally) error {
	rowCtx := j.logg.WithFields(ctx, map[string]any{
		"orphan_id":   row.ID.String(),
		"storage_key": row.StorageKey,
		"attempts":    row.Attempts,
	})

	res, err := j.store.Delete(rowCtx, row.StorageKey, row.Kind)
	if err == nil {
		if markErr := j.ledger.MarkResolved(rowCtx, row.ID); markErr != nil {
			if db.IsNotFound(markErr) {
				j.logg.Warn(rowCtx, "orphan row gone before resolve")
				return nil
			}
			return fmt.Errorf("mark orphan %s resolved: %w", row.ID, markErr)
		}
		tally.resolved++
		j.logg.Debug(j.logg.WithField(rowCtx, "remote_deleted", res.Deleted), "orphan resolved")
		return nil
	}

	if j.exhausted(row) {
		if markErr := j.ledger.MarkAbandoned(rowCtx, row.ID, err.Error()); markErr != nil {
			if db.IsNotFound(markErr) {
				j.logg.Warn(rowCtx, "orphan row gone before abandon")
				return nil
			}
			return fmt.Errorf("mark orphan %s abandoned: %w", row.ID, markErr)
		}
		tally.abandoned++
		j.logg.Error(rowCtx, "orphan abandoned after max attempts", err)
		return nil
	}
	if markErr := j.ledger.MarkAttempt(rowCtx, row.ID, err.Error()); markErr != nil {
		if db.IsNotFound(markErr) {
			j.logg.Warn(rowCtx, "orphan row gone before retry")
			return nil
		}
		return fmt.Errorf("mark orphan %s attempt: %w", row.ID, markErr)
	}
	j.logg.Warn(j.logg.WithFields(rowCtx, map[string]any{
		"error": err.Error(),
		"code":  string(pkgerrors.CodeOf(err)),
	}), "orphan delete failed; will retry")
	tally.retried++
	return nil
}

// exhausted reports whether the attempt in flight is the last one allowed.
func (j *orphanReconcileJob) exhausted(row models.OrphanAsset) bool {
	return row.Attempts+1 >= j.maxAttempts
}
