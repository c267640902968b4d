package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/service"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// UploadsHandler accepts complaint attachments.
type UploadsHandler struct {
	uploads *service.UploadService
}

// NewUploadsHandler constructs handler.
func NewUploadsHandler(uploads *service.UploadService) *UploadsHandler {
	return &UploadsHandler{uploads: uploads}
}

// Upload handles POST /uploads with a single multipart field named "file".
func (h *UploadsHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewFieldError("file", "no file uploaded")
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close()

	actor, _ := auth.ActorFromContext(c)
	blob, err := h.uploads.Upload(c.UserContext(), actor, header.Size, file)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "File uploaded successfully",
		"url":     blob.URL,
		"size":    blob.Size,
		"type":    blob.ContentType,
	})
}

// Delete handles DELETE /uploads/:key.
func (h *UploadsHandler) Delete(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	if err := h.uploads.Delete(c.UserContext(), actor, c.Params("key")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "File deleted successfully"})
}
