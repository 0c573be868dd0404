package orphans

import (
	"context"

	"github.com/vidora/vidora-backend/pkg/db/models"
	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
	"github.com/vidora/vidora-backend/pkg/mediaref"
	"github.com/vidora/vidora-backend/pkg/metrics"
)

type ledger interface {
	Record(ctx context.Context, orphan *models.OrphanAsset) (*models.OrphanAsset, error)
}

// Recorder logs and ledgers remote assets left behind by a failed delete.
// It never returns an error; a ledger failure is logged only.
type Recorder struct {
	ledger  ledger
	logg    *logger.Logger
	metrics *metrics.MediaMetrics
}

// NewRecorder accepts a nil ledger, in which case orphans are only logged.
func NewRecorder(ledger ledger, logg *logger.Logger, m *metrics.MediaMetrics) *Recorder {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Recorder{ledger: ledger, logg: logg, metrics: m}
}

// RecordOrphan notes that asset could not be deleted because of cause.
func (r *Recorder) RecordOrphan(ctx context.Context, asset mediaref.MediaAsset, reason enums.OrphanReason, cause error) {
	ctx = r.logg.WithFields(ctx, map[string]any{
		"storage_key":   asset.StorageKey,
		"url":           asset.URL,
		"kind":          string(asset.Kind),
		"orphan_reason": string(reason),
	})
	r.logg.Error(ctx, "orphan.recorded", pkgerrors.Wrap(pkgerrors.CodeOrphanCleanupFailed, cause, "remote asset left without a record"))
	r.metrics.IncOrphan(string(reason))

	if r.ledger == nil || asset.StorageKey == "" {
		return
	}
	row := &models.OrphanAsset{
		StorageKey: asset.StorageKey,
		Kind:       ledgerKind(asset),
		URL:        asset.URL,
		Reason:     reason,
	}
	if cause != nil {
		msg := cause.Error()
		row.LastError = &msg
	}
	if _, err := r.ledger.Record(ctx, row); err != nil {
		r.logg.Error(ctx, "orphan.ledger_write_failed", err)
	}
}

// ledgerKind falls back to the url or key extension, then to auto, so a
// kindless legacy asset still lands in the ledger.
func ledgerKind(asset mediaref.MediaAsset) enums.MediaKind {
	if asset.Kind == enums.MediaKindImage || asset.Kind == enums.MediaKindVideo {
		return asset.Kind
	}
	for _, p := range []string{asset.URL, asset.StorageKey} {
		if kind := mediaref.KindFromPath(p); kind != enums.MediaKindAuto {
			return kind
		}
	}
	return enums.MediaKindAuto
}
