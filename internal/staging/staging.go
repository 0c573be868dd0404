// Package staging writes incoming multipart parts to a local staging
// directory before they are promoted to remote storage. It never removes
// files on its own; callers own cleanup through Remove.
package staging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/vidora/vidora-backend/pkg/enums"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
)

const sniffLen = 3072

// Part is one incoming file part.
type Part struct {
	Role             enums.FileRole
	FileName         string
	DeclaredMimeType string
	Size             int64
	Body             io.Reader
}

// File describes a part written to the staging root.
type File struct {
	Role             enums.FileRole `json:"role"`
	LocalPath        string         `json:"local_path"`
	OriginalName     string         `json:"original_name"`
	DeclaredMimeType string         `json:"declared_mime_type"`
	SizeBytes        int64          `json:"size_bytes"`
}

// Area is a filesystem-backed staging directory shared by all requests.
type Area struct {
	root     string
	policies map[enums.FileRole]Policy
	logg     *logger.Logger
	now      func() time.Time
	suffix   func() int64
}

// NewArea builds a staging area rooted at root. The directory is created
// lazily on first Stage.
func NewArea(root string, policies map[enums.FileRole]Policy, logg *logger.Logger) (*Area, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("staging root required")
	}
	if len(policies) == 0 {
		return nil, fmt.Errorf("staging policies required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Area{
		root:     filepath.Clean(root),
		policies: policies,
		logg:     logg,
		now:      time.Now,
		suffix:   func() int64 { return rand.Int63n(1_000_000_000) },
	}, nil
}

// Root returns the staging directory.
func (a *Area) Root() string {
	return a.root
}

// Stage validates the part against its role policy and writes it under the
// staging root. A rejected part leaves nothing on disk.
func (a *Area) Stage(ctx context.Context, part Part) (File, error) {
	policy, ok := a.policies[part.Role]
	if !ok {
		return File{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unexpected file field %q", part.Role))
	}
	if part.Body == nil {
		return File{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s file is empty", part.Role))
	}

	if part.Size > policy.MaxBytes {
		return File{}, tooLarge(part.Role, policy)
	}

	body := part.Body
	mimeType := baseMimeType(part.DeclaredMimeType)
	if mimeType == "" {
		header := make([]byte, sniffLen)
		n, err := io.ReadFull(body, header)
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return File{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read file header")
		}
		header = header[:n]
		mimeType = baseMimeType(mimetype.Detect(header).String())
		body = io.MultiReader(bytes.NewReader(header), body)
	}
	if !policy.allows(mimeType) {
		return File{}, pkgerrors.New(
			pkgerrors.CodeUnsupportedMediaType,
			fmt.Sprintf("%s must be one of %s", part.Role, policy.Describe()),
		).WithDetails(map[string]any{
			"field":     string(part.Role),
			"mime_type": mimeType,
			"allowed":   policy.AllowedMimeTypes,
		})
	}

	if err := os.MkdirAll(a.root, 0o755); err != nil {
		return File{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create staging directory")
	}

	name := a.fileName(part.FileName)
	path := filepath.Join(a.root, name)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return File{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create staged file")
	}

	written, copyErr := io.Copy(out, io.LimitReader(body, policy.MaxBytes+1))
	closeErr := out.Close()
	switch {
	case copyErr != nil:
		a.discard(ctx, path)
		return File{}, pkgerrors.Wrap(pkgerrors.CodeInternal, copyErr, "write staged file")
	case closeErr != nil:
		a.discard(ctx, path)
		return File{}, pkgerrors.Wrap(pkgerrors.CodeInternal, closeErr, "close staged file")
	case written > policy.MaxBytes:
		a.discard(ctx, path)
		return File{}, tooLarge(part.Role, policy)
	case written == 0:
		a.discard(ctx, path)
		return File{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s file is empty", part.Role))
	}

	file := File{
		Role:             part.Role,
		LocalPath:        path,
		OriginalName:     part.FileName,
		DeclaredMimeType: mimeType,
		SizeBytes:        written,
	}
	logCtx := a.logg.WithFields(ctx, map[string]any{
		"role":       string(part.Role),
		"local_path": path,
		"size_bytes": written,
		"mime_type":  mimeType,
	})
	a.logg.Debug(logCtx, "staging.file_staged")
	return file, nil
}

// StageFileHeader opens a parsed multipart file header and stages it.
func (a *Area) StageFileHeader(ctx context.Context, role enums.FileRole, fh *multipart.FileHeader) (File, error) {
	if fh == nil {
		return File{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s file is required", role))
	}
	src, err := fh.Open()
	if err != nil {
		return File{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "open uploaded file")
	}
	defer func() { _ = src.Close() }()

	return a.Stage(ctx, Part{
		Role:             role,
		FileName:         fh.Filename,
		DeclaredMimeType: fh.Header.Get("Content-Type"),
		Size:             fh.Size,
		Body:             src,
	})
}

// Remove deletes a staged file. A file that is already gone is not an error.
func (a *Area) Remove(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged file %s: %w", path, err)
	}
	return nil
}

func (a *Area) fileName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return fmt.Sprintf("%d-%d%s", a.now().UnixMilli(), a.suffix(), ext)
}

func (a *Area) discard(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		a.logg.Error(a.logg.WithField(ctx, "local_path", path), "staging.discard_failed", err)
	}
}

func tooLarge(role enums.FileRole, policy Policy) *pkgerrors.Error {
	return pkgerrors.New(
		pkgerrors.CodePayloadTooLarge,
		fmt.Sprintf("%s exceeds the %d byte limit", role, policy.MaxBytes),
	).WithDetails(map[string]any{
		"field":     string(role),
		"max_bytes": policy.MaxBytes,
	})
}
