package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/complaint-portal/internal/api/dto"
	"github.com/spec-kit/complaint-portal/internal/auth"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/query"
	"github.com/spec-kit/complaint-portal/internal/service"
	apperrors "github.com/spec-kit/complaint-portal/pkg/util/errorutil"
)

// ComplaintsHandler exposes complaint endpoints to every role; the service decides access.
type ComplaintsHandler struct {
	service *service.ComplaintService
	now     func() time.Time
}

// NewComplaintsHandler constructs handler. now drives the is_overdue flag.
func NewComplaintsHandler(complaintService *service.ComplaintService, now func() time.Time) *ComplaintsHandler {
	if now == nil {
		now = time.Now
	}
	return &ComplaintsHandler{service: complaintService, now: now}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	actor, _ := auth.ActorFromContext(c)
	complaint, err := h.service.Create(c.UserContext(), actor, service.ComplaintCreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Priority:      req.Priority,
		Location:      req.Location,
		AttachmentURL: req.Attachments,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(h.envelope("Complaint submitted successfully", complaint))
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	page, err := h.service.List(c.UserContext(), actor, query.Filter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page"),
		Limit:    queryInt(c, "limit"),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewComplaintPage(page, h.now()))
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	id, err := complaintID(c)
	if err != nil {
		return err
	}
	actor, _ := auth.ActorFromContext(c)
	complaint, err := h.service.GetByID(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(h.envelope("", complaint))
}

// History GET /complaints/:id/history.
func (h *ComplaintsHandler) History(c *fiber.Ctx) error {
	id, err := complaintID(c)
	if err != nil {
		return err
	}
	actor, _ := auth.ActorFromContext(c)
	entries, err := h.service.History(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "history": dto.NewHistoryResponses(entries)})
}

// UpdateStatus PATCH /complaints/:id/status.
func (h *ComplaintsHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := complaintID(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	actor, _ := auth.ActorFromContext(c)
	complaint, err := h.service.UpdateStatus(c.UserContext(), actor, id, domain.ComplaintStatus(req.Status), req.ResolutionNotes)
	if err != nil {
		return err
	}
	return c.JSON(h.envelope("Complaint updated successfully", complaint))
}

// Assign PATCH /complaints/:id/assign.
func (h *ComplaintsHandler) Assign(c *fiber.Ctx) error {
	id, err := complaintID(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewFieldError("staff_id", "invalid staff ID")
	}
	actor, _ := auth.ActorFromContext(c)
	complaint, err := h.service.Assign(c.UserContext(), actor, id, req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(h.envelope("Complaint assigned successfully", complaint))
}

// Feedback PATCH /complaints/:id/feedback.
func (h *ComplaintsHandler) Feedback(c *fiber.Ctx) error {
	id, err := complaintID(c)
	if err != nil {
		return err
	}
	var req dto.FeedbackRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.FeedbackRating == nil {
		return apperrors.NewFieldError("feedback_rating", "rating is required")
	}
	actor, _ := auth.ActorFromContext(c)
	complaint, err := h.service.SubmitFeedback(c.UserContext(), actor, id, req.Feedback, *req.FeedbackRating)
	if err != nil {
		return err
	}
	return c.JSON(h.envelope("Feedback submitted successfully", complaint))
}

// Stats GET /complaints/stats/overview.
func (h *ComplaintsHandler) Stats(c *fiber.Ctx) error {
	actor, _ := auth.ActorFromContext(c)
	stats, err := h.service.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewStatsResponse(stats))
}

func (h *ComplaintsHandler) envelope(message string, complaint *domain.Complaint) dto.ComplaintEnvelope {
	resp := dto.NewComplaintResponse(complaint, h.now())
	return dto.ComplaintEnvelope{Success: true, Message: message, Complaint: &resp}
}

func complaintID(c *fiber.Ctx) (int64, error) {
	return pathID(c, "id", "invalid complaint ID")
}

func pathID(c *fiber.Ctx, param, message string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(param), 10, 64)
	if err != nil || id < 1 {
		return 0, apperrors.NewFieldError(param, message)
	}
	return id, nil
}

// queryInt returns 0 for absent or non-numeric values; the query builder applies defaults.
func queryInt(c *fiber.Ctx, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
