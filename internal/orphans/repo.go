// Package orphans keeps the ledger of remote assets whose delete failed so
// they can be reconciled out of band.
package orphans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vidora/vidora-backend/pkg/db"
	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
)

// Repository exposes orphan ledger persistence.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Record inserts a pending ledger row. A key that already has a pending row
// is not duplicated: the existing row takes the newer error and its id is
// returned on orphan.
func (r *Repository) Record(ctx context.Context, orphan *models.OrphanAsset) (*models.OrphanAsset, error) {
	if orphan.ID == uuid.Nil {
		orphan.ID = uuid.New()
	}
	orphan.Status = enums.OrphanStatusPending
	err := r.db.WithContext(ctx).Create(orphan).Error
	if err == nil {
		return orphan, nil
	}
	if !db.IsUniqueViolation(err, "") {
		return nil, err
	}
	if err := r.refreshPending(ctx, orphan); err != nil {
		return nil, err
	}
	return orphan, nil
}

func (r *Repository) refreshPending(ctx context.Context, orphan *models.OrphanAsset) error {
	return db.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		pending := tx.Model(&models.OrphanAsset{}).
			Where("storage_key = ? AND status = ?", orphan.StorageKey, enums.OrphanStatusPending)
		fields := map[string]any{"updated_at": r.now().UTC()}
		if orphan.LastError != nil {
			fields["last_error"] = *orphan.LastError
		}
		if err := pending.Updates(fields).Error; err != nil {
			return err
		}
		var ids []uuid.UUID
		if err := tx.Model(&models.OrphanAsset{}).
			Where("storage_key = ? AND status = ?", orphan.StorageKey, enums.OrphanStatusPending).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return gorm.ErrRecordNotFound
		}
		orphan.ID = ids[0]
		return nil
	})
}

// ListPending returns up to limit pending rows, oldest first.
func (r *Repository) ListPending(ctx context.Context, limit int) ([]models.OrphanAsset, error) {
	var rows []models.OrphanAsset
	q := r.db.WithContext(ctx).
		Where("status = ?", enums.OrphanStatusPending).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) MarkResolved(ctx context.Context, id uuid.UUID) error {
	now := r.now().UTC()
	return r.update(ctx, id, map[string]any{
		"status":      enums.OrphanStatusResolved,
		"resolved_at": now,
		"updated_at":  now,
	})
}

// MarkAttempt increments the attempt counter and stores the last failure.
func (r *Repository) MarkAttempt(ctx context.Context, id uuid.UUID, lastErr string) error {
	return r.update(ctx, id, map[string]any{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastErr,
		"updated_at": r.now().UTC(),
	})
}

func (r *Repository) MarkAbandoned(ctx context.Context, id uuid.UUID, lastErr string) error {
	return r.update(ctx, id, map[string]any{
		"status":     enums.OrphanStatusAbandoned,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastErr,
		"updated_at": r.now().UTC(),
	})
}

// CountByStatus reports ledger size per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[enums.OrphanStatus]int64, error) {
	var rows []struct {
		Status enums.OrphanStatus
		Total  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.OrphanAsset{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[enums.OrphanStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}

func (r *Repository) update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).
		Model(&models.OrphanAsset{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
