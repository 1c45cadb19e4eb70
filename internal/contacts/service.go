package contacts

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/repo"
	"github.com/angelmondragon/accounts-backend/pkg/db"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/metrics"
	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxSubjectLength = 200

// Service is the contact channel: user inquiries and their single admin response.
type Service interface {
	Submit(ctx context.Context, params SubmitParams) (*models.ContactMessage, error)
	Respond(ctx context.Context, params RespondParams) (*models.ContactMessage, error)
	MarkViewed(ctx context.Context, contactID uuid.UUID) (bool, error)
	Get(ctx context.Context, contactID uuid.UUID) (*models.ContactMessage, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ContactMessage, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	CountPending(ctx context.Context) (int64, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type SubmitParams struct {
	UserID  uuid.UUID
	Subject string
	Message string
}

type RespondParams struct {
	ContactID   uuid.UUID
	ResponderID uuid.UUID
	Response    string
}

// ListParams filters and pages the admin contact listing.
type ListParams struct {
	Status string
	Limit  int
	Cursor string
}

// ListResult wraps returned contacts and the cursor for the next page.
type ListResult struct {
	Items  []models.ContactMessage
	Cursor string
}

// ServiceParams bundles the dependencies required to build a contacts service.
type ServiceParams struct {
	DB       txRunner
	Repo     *Repository
	Messages *messages.Repository
	Users    userLookup
	Metrics  *metrics.MessagingMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	db       txRunner
	repo     *Repository
	messages *messages.Repository
	users    userLookup
	metrics  *metrics.MessagingMetrics
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires contact channel dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "database client required")
	}
	if params.Repo == nil || params.Messages == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "contacts and messages repositories required")
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
		db:       params.DB,
		repo:     params.Repo,
		messages: params.Messages,
		users:    params.Users,
		metrics:  params.Metrics,
		logg:     logg,
		now:      func() time.Time { return clock().UTC() },
	}, nil
}

// Submit stores the inquiry and its read copy in the user's own thread in one transaction.
func (s *service) Submit(ctx context.Context, params SubmitParams) (*models.ContactMessage, error) {
	subject := strings.TrimSpace(params.Subject)
	body := strings.TrimSpace(params.Message)
	details := map[string]string{}
	if subject == "" {
		details["subject"] = "is required"
	} else if utf8.RuneCountInString(subject) > maxSubjectLength {
		details["subject"] = "must be at most 200 characters"
	}
	if body == "" {
		details["message"] = "is required"
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid contact message").WithDetails(details)
	}

	user, err := s.loadUser(ctx, params.UserID, "user")
	if err != nil {
		return nil, err
	}
	if user.IsStaff {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "staff accounts cannot submit contact messages")
	}

	now := s.now()
	contact := &models.ContactMessage{
		UserID:    user.ID,
		Subject:   subject,
		Message:   body,
		Status:    enums.ContactStatusPending,
		CreatedAt: now,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, contact); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create contact message")
		}
		copyMsg := &models.UserMessage{
			UserID:           user.ID,
			ContactMessageID: &contact.ID,
			SenderID:         &user.ID,
			Kind:             enums.MessageKindContact,
			Subject:          subject,
			Content:          body,
			IsRead:           true,
			ReadAt:           &now,
			CreatedAt:        now,
		}
		if err := s.messages.WithTx(tx).Create(ctx, copyMsg); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create contact thread message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	contact.User = user

	s.metrics.IncContactSubmitted()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"contact_id": contact.ID.String(),
		"user_id":    user.ID.String(),
	})
	s.logg.Info(logCtx, "contact.submitted")
	return contact, nil
}

// Respond records the single admin response. The status flip, the response
// stamp and the reply message commit together; a contact that is already
// replied yields CONFLICT and is left untouched.
func (s *service) Respond(ctx context.Context, params RespondParams) (*models.ContactMessage, error) {
	response := strings.TrimSpace(params.Response)
	if response == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response is required").
			WithDetails(map[string]string{"admin_response": "is required"})
	}
	if params.ResponderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "responder is required")
	}
	responder, err := s.loadUser(ctx, params.ResponderID, "responder")
	if err != nil {
		return nil, err
	}
	if !responder.IsStaff {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
	}

	var contact *models.ContactMessage
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		contacts := s.repo.WithTx(tx)
		msgs := s.messages.WithTx(tx)

		current, err := contacts.FindByID(ctx, params.ContactID)
		if err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "contact message not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact message")
		}

		now := s.now()
		affected, err := contacts.MarkReplied(ctx, current.ID, response, now, responder.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record response")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "contact message already replied")
		}

		exists, err := msgs.ExistsAdminReply(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check existing reply")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "contact message already replied")
		}

		reply := &models.UserMessage{
			UserID:           current.UserID,
			ContactMessageID: &current.ID,
			SenderID:         &responder.ID,
			IsFromAdmin:      true,
			Kind:             enums.MessageKindResponse,
			Subject:          messages.ReplySubject(current.Subject),
			Content:          response,
			CreatedAt:        now,
		}
		if err := msgs.Create(ctx, reply); err != nil {
			if db.IsUniqueViolation(err, "idx_user_messages_contact_reply") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "contact message already replied")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create response message")
		}

		contact, err = contacts.FindByID(ctx, current.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload contact message")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncContactResponded()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"contact_id":   contact.ID.String(),
		"user_id":      contact.UserID.String(),
		"responder_id": responder.ID.String(),
	})
	s.logg.Info(logCtx, "contact.responded")
	return contact, nil
}

func (s *service) MarkViewed(ctx context.Context, contactID uuid.UUID) (bool, error) {
	changed, err := s.repo.MarkViewed(ctx, contactID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark contact viewed")
	}
	return changed, nil
}

func (s *service) Get(ctx context.Context, contactID uuid.UUID) (*models.ContactMessage, error) {
	contact, err := s.repo.FindByID(ctx, contactID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact message")
	}
	return contact, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ContactMessage, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contact messages")
	}
	if rows == nil {
		rows = []models.ContactMessage{}
	}
	return rows, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	var status *enums.ContactStatus
	if raw := strings.TrimSpace(params.Status); raw != "" {
		parsed, err := enums.ParseContactStatus(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		status = &parsed
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, status, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contact messages")
	}
	items, next := repo.NextCursor(rows, limit, func(c models.ContactMessage) pagination.Cursor {
		return pagination.Cursor{CreatedAt: c.CreatedAt, ID: c.ID}
	})
	if items == nil {
		items = []models.ContactMessage{}
	}
	return &ListResult{Items: items, Cursor: next}, nil
}

func (s *service) CountPending(ctx context.Context) (int64, error) {
	count, err := s.repo.CountByStatus(ctx, enums.ContactStatusPending)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count pending contacts")
	}
	return count, nil
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
