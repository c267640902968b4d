package service_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/service"
	"github.com/spec-kit/complaint-portal/internal/storage"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUploadService(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/uploads")
	require.NoError(t, err)
	svc := service.NewUploadService(store, 1024, nil)
	actor := &domain.Actor{ID: 1, Role: domain.RoleUser}
	ctx := context.Background()

	blob, err := svc.Upload(ctx, actor, int64(len(pngHeader)), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", blob.ContentType)
	assert.Contains(t, blob.URL, ".png")

	_, err = svc.Upload(ctx, actor, 11, bytes.NewReader([]byte("plain text!")))
	requireCode(t, err, apperrors.CodeValidation)

	_, err = svc.Upload(ctx, actor, 4096, bytes.NewReader(pngHeader))
	requireCode(t, err, apperrors.CodeValidation)

	_, err = svc.Upload(ctx, nil, int64(len(pngHeader)), bytes.NewReader(pngHeader))
	requireCode(t, err, apperrors.CodeUnauthorized)
}

func TestUploadService_Delete(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir, "/uploads")
	require.NoError(t, err)
	svc := service.NewUploadService(store, 1024, nil)
	owner := &domain.Actor{ID: 1, Role: domain.RoleUser}
	neighbour := &domain.Actor{ID: 10, Role: domain.RoleUser}
	admin := &domain.Actor{ID: 3, Role: domain.RoleAdmin}
	ctx := context.Background()

	blob, err := svc.Upload(ctx, owner, int64(len(pngHeader)), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	path := filepath.Join(dir, blob.Key)

	requireCode(t, svc.Delete(ctx, neighbour, blob.Key), apperrors.CodeForbidden)
	assert.FileExists(t, path)

	requireCode(t, svc.Delete(ctx, owner, "../secret.png"), apperrors.CodeValidation)
	requireCode(t, svc.Delete(ctx, owner, ".."), apperrors.CodeValidation)
	requireCode(t, svc.Delete(ctx, nil, blob.Key), apperrors.CodeUnauthorized)

	require.NoError(t, svc.Delete(ctx, owner, blob.Key))
	assert.NoFileExists(t, path)
	assert.NoError(t, svc.Delete(ctx, admin, blob.Key))
}
