package service

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/storage"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// allowedUploadTypes maps accepted content types to the extension stored on disk.
var allowedUploadTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// UploadService validates attachment uploads and hands them to the blob store.
type UploadService struct {
	store    storage.BlobStore
	maxBytes int64
	logger   *zap.Logger
}

// NewUploadService builds the service.
func NewUploadService(store storage.BlobStore, maxBytes int64, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{store: store, maxBytes: maxBytes, logger: logger}
}

// Upload stores one attachment. The type is sniffed from content; the client's claim is ignored.
func (s *UploadService) Upload(ctx context.Context, actor *domain.Actor, size int64, r io.Reader) (*storage.Blob, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if size <= 0 {
		return nil, apperrors.NewFieldError("file", "no file uploaded")
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		return nil, apperrors.NewFieldError("file", "file is too large")
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperrors.NewInternalError(err)
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	ext, ok := allowedUploadTypes[contentType]
	if !ok {
		return nil, apperrors.NewFieldError("file", "invalid file type, only images and PDFs are allowed")
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	if s.maxBytes > 0 {
		body = io.LimitReader(body, s.maxBytes)
	}
	blob, err := s.store.Put(ctx, ownerPrefix(actor.ID), ext, contentType, body)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("attachment uploaded",
		zap.Int64("user_id", actor.ID),
		zap.String("key", blob.Key),
		zap.String("content_type", contentType),
		zap.Int64("size", blob.Size),
	)
	return blob, nil
}

// Delete removes an attachment. Users may delete only their own uploads; Admin may delete any.
// Deleting a key that is already gone succeeds.
func (s *UploadService) Delete(ctx context.Context, actor *domain.Actor, key string) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !storage.ValidKey(key) {
		return apperrors.NewFieldError("key", "invalid file key")
	}
	if actor.Role != domain.RoleAdmin && !strings.HasPrefix(key, ownerPrefix(actor.ID)+"-") {
		return apperrors.NewForbidden("you can only delete your own uploads")
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("attachment deleted", zap.Int64("user_id", actor.ID), zap.String("key", key))
	return nil
}

func ownerPrefix(userID int64) string {
	return "u" + strconv.FormatInt(userID, 10)
}
