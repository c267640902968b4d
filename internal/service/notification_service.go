package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/complaint-portal/internal/config"
	"github.com/spec-kit/complaint-portal/internal/domain"
	"github.com/spec-kit/complaint-portal/internal/events"
	"github.com/spec-kit/complaint-portal/internal/repository"
)

// Notification is one message produced for a complaint event.
type Notification struct {
	Event     events.EventType
	Complaint int64
	Recipient string
	Subject   string
}

// Sender delivers notifications. The default sender only logs.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// NotificationService turns complaint events into notifications for the people involved.
type NotificationService struct {
	users  repository.UserRepository
	sender Sender
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service. A nil sender logs email and webhook stubs.
func NewNotificationService(users repository.UserRepository, sender Sender, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &NotificationService{users: users, sender: sender, logger: logger, cfg: cfg}
	if n.sender == nil {
		n.sender = stubSender{logger: logger, cfg: cfg}
	}
	return n
}

// EventTypes lists the events the service reacts to.
func (n *NotificationService) EventTypes() []events.EventType {
	return []events.EventType{
		events.EventComplaintCreated,
		events.EventComplaintStatusChanged,
		events.EventComplaintAssigned,
		events.EventComplaintFeedbackSubmitted,
	}
}

// RegisterHandlers subscribes Handle synchronously for every supported event.
func (n *NotificationService) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	for _, et := range n.EventTypes() {
		dispatcher.Subscribe(et, n.Handle)
	}
}

// Handle builds and sends the notifications for one event.
func (n *NotificationService) Handle(ctx context.Context, event events.Event) error {
	n.logger.Info("complaint event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("complaint_id", event.ComplaintID),
		zap.Int64("actor_id", event.Actor.ID),
		zap.Any("payload", event.Payload),
	)

	var firstErr error
	for _, note := range n.build(ctx, event) {
		if err := n.sender.Send(ctx, note); err != nil {
			n.logger.Warn("notification delivery failed",
				zap.String("type", string(note.Event)),
				zap.String("recipient", note.Recipient),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (n *NotificationService) build(ctx context.Context, event events.Event) []Notification {
	switch event.Type {
	case events.EventComplaintCreated:
		return n.toRole(ctx, event, domain.RoleAdmin, "New complaint filed")
	case events.EventComplaintAssigned:
		payload, ok := event.Payload.(events.ComplaintAssignedPayload)
		if !ok {
			return nil
		}
		return n.toUser(ctx, event, payload.AssigneeID, "A complaint was assigned to you")
	case events.EventComplaintStatusChanged:
		payload, ok := event.Payload.(events.ComplaintStatusChangedPayload)
		if !ok || payload.SubmitterID == 0 {
			return nil
		}
		return n.toUser(ctx, event, payload.SubmitterID, "Your complaint is now "+string(payload.NewStatus))
	case events.EventComplaintFeedbackSubmitted:
		return n.toRole(ctx, event, domain.RoleAdmin, "Feedback received")
	default:
		return nil
	}
}

func (n *NotificationService) toUser(ctx context.Context, event events.Event, userID int64, subject string) []Notification {
	if n.users == nil {
		return nil
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	return []Notification{{Event: event.Type, Complaint: event.ComplaintID, Recipient: user.Email, Subject: subject}}
}

func (n *NotificationService) toRole(ctx context.Context, event events.Event, role domain.Role, subject string) []Notification {
	if n.users == nil {
		return nil
	}
	users, err := n.users.List(ctx, repository.UserFilter{Role: &role})
	if err != nil {
		n.logger.Warn("notification recipient lookup failed", zap.String("role", string(role)), zap.Error(err))
		return nil
	}
	out := make([]Notification, 0, len(users))
	for _, u := range users {
		out = append(out, Notification{Event: event.Type, Complaint: event.ComplaintID, Recipient: u.Email, Subject: subject})
	}
	return out
}

type stubSender struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

func (s stubSender) Send(_ context.Context, note Notification) error {
	if from := strings.TrimSpace(s.cfg.EmailFrom); from != "" {
		s.logger.Debug("email notification stub",
			zap.String("from", from),
			zap.String("to", note.Recipient),
			zap.String("subject", note.Subject),
			zap.Int64("complaint_id", note.Complaint),
		)
	}
	if url := strings.TrimSpace(s.cfg.WebhookURL); url != "" {
		s.logger.Debug("webhook notification stub",
			zap.String("url", url),
			zap.String("event_type", string(note.Event)),
			zap.Int64("complaint_id", note.Complaint),
		)
	}
	return nil
}
