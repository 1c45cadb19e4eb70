package messages

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/accounts-backend/internal/repo"
	"github.com/angelmondragon/accounts-backend/pkg/db"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/metrics"
	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"github.com/google/uuid"
)

const (
	// ReplySubjectPrefix is prepended to the subject of admin replies.
	ReplySubjectPrefix = "پاسخ به: "
	maxSubjectLength   = 200
)

// Service is the message thread store.
type Service interface {
	SendPrivate(ctx context.Context, params SendPrivateParams) (*models.UserMessage, error)
	ReplyPrivate(ctx context.Context, params ReplyParams) (*models.UserMessage, error)
	MarkRead(ctx context.Context, params MarkReadParams) (bool, error)
	Get(ctx context.Context, id uuid.UUID) (*models.UserMessage, error)
	ListForUser(ctx context.Context, params ListParams) (*ListResult, error)
	ListPrivateInbox(ctx context.Context, params InboxParams) (*ListResult, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SendPrivateParams describes a free-standing private message. A nil
// RecipientID addresses the admin pool; otherwise the sender must be staff.
type SendPrivateParams struct {
	SenderID    uuid.UUID
	RecipientID *uuid.UUID
	Kind        enums.MessageKind
	Subject     string
	Content     string
}

// ReplyParams answers a user-originated message. A nil Subject defaults to
// the reply prefix plus the original subject.
type ReplyParams struct {
	AdminID   uuid.UUID
	MessageID uuid.UUID
	Subject   *string
	Content   string
}

// MarkReadParams identifies the message and who is reading it.
type MarkReadParams struct {
	MessageID uuid.UUID
	ReaderID  uuid.UUID
}

// ListParams pages through one user's messages.
type ListParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// InboxParams pages through the admin private inbox.
type InboxParams struct {
	UnreadOnly bool
	Limit      int
	Cursor     string
}

// ListResult wraps returned messages and the cursor for the next page.
type ListResult struct {
	Items  []models.UserMessage
	Cursor string
}

// ServiceParams bundles the dependencies required to build a messages service.
type ServiceParams struct {
	Repo    *Repository
	Users   userLookup
	Metrics *metrics.MessagingMetrics
	Logger  *logger.Logger
	Clock   func() time.Time
}

type service struct {
	repo    *Repository
	users   userLookup
	metrics *metrics.MessagingMetrics
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires message store dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messages repository required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user lookup required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		repo:    params.Repo,
		users:   params.Users,
		metrics: params.Metrics,
		logg:    logg,
		now:     func() time.Time { return clock().UTC() },
	}, nil
}

func (s *service) SendPrivate(ctx context.Context, params SendPrivateParams) (*models.UserMessage, error) {
	if params.SenderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender is required")
	}
	subject, content, err := validateText(params.Subject, params.Content)
	if err != nil {
		return nil, err
	}
	sender, err := s.loadUser(ctx, params.SenderID, "sender")
	if err != nil {
		return nil, err
	}

	now := s.now()
	msg := &models.UserMessage{
		SenderID:  &sender.ID,
		Subject:   subject,
		Content:   content,
		CreatedAt: now,
	}
	direction := metrics.DirectionToAdmin

	if params.RecipientID == nil {
		if sender.IsStaff {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff accounts must address a user")
		}
		if params.Kind != "" && params.Kind != enums.MessageKindPrivate {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "users may only send private messages")
		}
		msg.UserID = sender.ID
		msg.Kind = enums.MessageKindPrivate
		msg.IsRead = true
		msg.ReadAt = &now
	} else {
		if !sender.IsStaff {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only staff can message a user directly")
		}
		recipient, err := s.loadUser(ctx, *params.RecipientID, "recipient")
		if err != nil {
			return nil, err
		}
		if recipient.IsStaff {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient must be a non-staff user")
		}
		kind := params.Kind
		if kind == "" {
			kind = enums.MessageKindPrivate
		}
		if kind != enums.MessageKindPrivate && kind != enums.MessageKindResponse {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "message kind must be private or response")
		}
		msg.UserID = recipient.ID
		msg.Kind = kind
		msg.IsFromAdmin = true
		direction = metrics.DirectionToUser
	}

	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create message")
	}
	msg.Sender = sender

	s.metrics.IncPrivateSent(direction)
	s.logSent(ctx, msg, direction)
	return msg, nil
}

func (s *service) ReplyPrivate(ctx context.Context, params ReplyParams) (*models.UserMessage, error) {
	content := strings.TrimSpace(params.Content)
	if content == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reply content is required").
			WithDetails(map[string]string{"content": "is required"})
	}
	if params.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender is required")
	}
	admin, err := s.loadUser(ctx, params.AdminID, "sender")
	if err != nil {
		return nil, err
	}
	if !admin.IsStaff {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
	}

	target, err := s.repo.FindByID(ctx, params.MessageID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load message")
	}
	if target.IsFromAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
	}

	subject := ReplySubject(target.Subject)
	if params.Subject != nil && strings.TrimSpace(*params.Subject) != "" {
		subject = clipSubject(strings.TrimSpace(*params.Subject))
	}

	msg := &models.UserMessage{
		UserID:      target.UserID,
		SenderID:    &admin.ID,
		IsFromAdmin: true,
		Kind:        enums.MessageKindPrivate,
		Subject:     subject,
		Content:     content,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create reply")
	}
	msg.Sender = admin

	s.metrics.IncPrivateSent(metrics.DirectionToUser)
	s.logSent(ctx, msg, metrics.DirectionToUser)
	return msg, nil
}

// ReplySubject is the default subject of an admin reply to original, clipped
// to the subject column width.
func ReplySubject(original string) string {
	return clipSubject(ReplySubjectPrefix + original)
}

func clipSubject(subject string) string {
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		return string([]rune(subject)[:maxSubjectLength])
	}
	return subject
}

// MarkRead is idempotent: the second call on the same message reports false.
// Owners may mark their own messages; staff may mark any message.
func (s *service) MarkRead(ctx context.Context, params MarkReadParams) (bool, error) {
	msg, err := s.repo.FindByID(ctx, params.MessageID)
	if err != nil {
		if db.IsNotFound(err) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load message")
	}

	role := enums.ActorRoleUser
	if msg.UserID != params.ReaderID {
		reader, err := s.users.FindByID(ctx, params.ReaderID)
		if err != nil && !db.IsNotFound(err) {
			return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load reader")
		}
		if reader == nil || !reader.IsStaff {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		role = enums.ActorRoleStaff
	}

	changed, err := s.repo.MarkRead(ctx, msg.ID, s.now())
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark message read")
	}
	if changed {
		s.metrics.IncMessageRead(role.String())
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"message_id": msg.ID.String(),
			"user_id":    msg.UserID.String(),
			"actor_role": role.String(),
		})
		s.logg.Info(logCtx, "message.read")
	}
	return changed, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.UserMessage, error) {
	msg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load message")
	}
	return msg, nil
}

func (s *service) ListForUser(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListForUser(ctx, params.UserID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}
	return page(rows, limit), nil
}

func (s *service) ListPrivateInbox(ctx context.Context, params InboxParams) (*ListResult, error) {
	cursor, err := parseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(params.Limit)
	rows, err := s.repo.ListPrivateInbox(ctx, params.UnreadOnly, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list private inbox")
	}
	return page(rows, limit), nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID, role string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", role)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+role)
	}
	return user, nil
}

func (s *service) logSent(ctx context.Context, msg *models.UserMessage, direction string) {
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID.String(),
		"user_id":    msg.UserID.String(),
		"kind":       msg.Kind.String(),
		"direction":  direction,
	})
	s.logg.Info(logCtx, "message.sent")
}

func validateText(subject, content string) (string, string, error) {
	subject = strings.TrimSpace(subject)
	content = strings.TrimSpace(content)
	details := map[string]string{}
	if subject == "" {
		details["subject"] = "is required"
	} else if utf8.RuneCountInString(subject) > maxSubjectLength {
		details["subject"] = "must be at most 200 characters"
	}
	if content == "" {
		details["content"] = "is required"
	}
	if len(details) > 0 {
		return "", "", pkgerrors.New(pkgerrors.CodeValidation, "invalid message").WithDetails(details)
	}
	return subject, content, nil
}

func parseCursor(raw string) (*pagination.Cursor, error) {
	cursor, err := pagination.ParseCursor(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	return cursor, nil
}

func page(rows []models.UserMessage, limit int) *ListResult {
	items, next := repo.NextCursor(rows, limit, func(m models.UserMessage) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	if items == nil {
		items = []models.UserMessage{}
	}
	return &ListResult{Items: items, Cursor: next}
}
