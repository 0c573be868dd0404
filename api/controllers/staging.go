package controllers

import (
	"context"
	"mime/multipart"

	"github.com/vidora/vidora-backend/api/validators"
	"github.com/vidora/vidora-backend/internal/staging"
	"github.com/vidora/vidora-backend/pkg/enums"
	"github.com/vidora/vidora-backend/pkg/logger"
)

// stager is satisfied by *staging.Area.
type stager interface {
	StageFileHeader(ctx context.Context, role enums.FileRole, fh *multipart.FileHeader) (staging.File, error)
	Remove(ctx context.Context, path string) error
}

// stageForm stages every present file part for roles. When one part fails,
// the parts already staged are removed before the error is returned; on
// success the coordinator owns their cleanup.
func stageForm(ctx context.Context, area stager, form *validators.Form, logg *logger.Logger, roles ...enums.FileRole) ([]staging.File, error) {
	files := make([]staging.File, 0, len(roles))
	for _, role := range roles {
		fh := form.File(string(role))
		if fh == nil {
			continue
		}
		file, err := area.StageFileHeader(ctx, role, fh)
		if err != nil {
			discardStaged(ctx, area, files, logg)
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

func discardStaged(ctx context.Context, area stager, files []staging.File, logg *logger.Logger) {
	for _, f := range files {
		if err := area.Remove(ctx, f.LocalPath); err != nil && logg != nil {
			logg.Error(logg.WithField(ctx, "local_path", f.LocalPath), "staging.cleanup_failed", err)
		}
	}
}

func cleanupMultipart(form *multipart.Form) {
	if form != nil {
		_ = form.RemoveAll()
	}
}
