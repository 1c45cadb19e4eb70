package users

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"github.com/google/uuid"
)

// RecentActivityLimit caps the messages and contacts shown on a user's admin page.
const RecentActivityLimit = 10

const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// Service covers profile management and the admin user directory.
type Service interface {
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Stats(ctx context.Context) (Stats, error)
	Detail(ctx context.Context, userID uuid.UUID) (*Detail, error)
	UpdateUserType(ctx context.Context, actorID, userID uuid.UUID, userType string) (*UserDTO, error)
	ToggleActive(ctx context.Context, actorID, userID uuid.UUID) (*UserDTO, error)
	JobDocument(ctx context.Context, userID uuid.UUID, download bool) (*JobDocument, error)
	Delete(ctx context.Context, actorID, userID uuid.UUID) error
}

// MessageActivity lists the newest messages owned by a user.
type MessageActivity interface {
	RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserMessage, error)
}

// ContactActivity lists the newest contact messages submitted by a user.
type ContactActivity interface {
	RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ContactMessage, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveProfile(ctx context.Context, user *models.User) error
	UpdateUserType(ctx context.Context, id uuid.UUID, userType enums.UserType, at time.Time) (int64, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) (int64, error)
	List(ctx context.Context, filter ListFilter, page pagination.Page) ([]models.User, int64, error)
	Stats(ctx context.Context) (Stats, error)
}

// ListParams configures the admin user listing.
type ListParams struct {
	Search   string
	UserType string
	Page     int
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo     userRepository
	Messages MessageActivity
	Contacts ContactActivity
	Media    config.MediaConfig
	Calendar jalali.Calendar
	Logger   *logger.Logger
	Clock    func() time.Time
}

type service struct {
	repo      userRepository
	messages  MessageActivity
	contacts  ContactActivity
	media     config.MediaConfig
	presenter Presenter
	logg      *logger.Logger
	now       func() time.Time
}

// NewService wires users dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "users repository required")
	}
	if params.Messages == nil || params.Contacts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity readers required")
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
		repo:      params.Repo,
		messages:  params.Messages,
		contacts:  params.Contacts,
		media:     params.Media,
		presenter: Presenter{Calendar: params.Calendar, Media: params.Media},
		logg:      logg,
		now:       func() time.Time { return clock().UTC() },
	}, nil
}

func (s *service) Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := s.presenter.User(user)
	return &dto, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*UserDTO, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := NormalizeProfile(input, s.now(), s.media)
	if err != nil {
		return nil, err
	}
	profile.Apply(user)
	user.UpdatedAt = s.now()
	if err := s.repo.SaveProfile(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update profile")
	}
	dto := s.presenter.User(user)
	return &dto, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	filter := ListFilter{Search: params.Search}
	if raw := strings.TrimSpace(params.UserType); raw != "" {
		userType, err := enums.ParseUserType(raw)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user type")
		}
		filter.UserType = &userType
	}
	page := pagination.NormalizePage(params.Page, pagination.DefaultPageSize)

	rows, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]SummaryDTO, 0, len(rows))
	for i := range rows {
		items = append(items, s.presenter.Summary(&rows[i]))
	}
	return &ListResult{
		Users: items,
		Page:  page.Info(total),
		Stats: stats,
		Types: userTypeOptions(),
	}, nil
}

func (s *service) Stats(ctx context.Context) (Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return Stats{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "user stats")
	}
	return stats, nil
}

func (s *service) Detail(ctx context.Context, userID uuid.UUID) (*Detail, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messages.RecentForUser(ctx, userID, RecentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent messages")
	}
	contacts, err := s.contacts.RecentForUser(ctx, userID, RecentActivityLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load recent contacts")
	}
	return &Detail{
		User:           s.presenter.User(user),
		RecentMessages: messages,
		RecentContacts: contacts,
	}, nil
}

func (s *service) UpdateUserType(ctx context.Context, actorID, userID uuid.UUID, raw string) (*UserDTO, error) {
	if _, err := s.requireStaff(ctx, actorID); err != nil {
		return nil, err
	}
	userType, err := enums.ParseUserType(strings.TrimSpace(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user type").
			WithDetails(map[string]string{"user_type": "is invalid"})
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := user.UserType
	at := s.now()
	if _, err := s.repo.UpdateUserType(ctx, userID, userType, at); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update user type")
	}
	user.UserType = userType
	user.UpdatedAt = at

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"actor_id": actorID.String(),
		"user_id":  userID.String(),
		"from":     previous.String(),
		"to":       userType.String(),
	})
	s.logg.Info(logCtx, "user.type_changed")

	dto := s.presenter.User(user)
	return &dto, nil
}

func (s *service) ToggleActive(ctx context.Context, actorID, userID uuid.UUID) (*UserDTO, error) {
	if _, err := s.requireStaff(ctx, actorID); err != nil {
		return nil, err
	}
	if actorID == userID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you cannot change your own account status")
	}
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	at := s.now()
	if _, err := s.repo.SetActive(ctx, userID, !user.IsActive, at); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "toggle user status")
	}
	user.IsActive = !user.IsActive
	user.UpdatedAt = at

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"actor_id":  actorID.String(),
		"user_id":   userID.String(),
		"is_active": user.IsActive,
	})
	s.logg.Info(logCtx, "user.status_toggled")

	dto := s.presenter.User(user)
	return &dto, nil
}

func (s *service) JobDocument(ctx context.Context, userID uuid.UUID, download bool) (*JobDocument, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.JobDocument == nil || strings.TrimSpace(*user.JobDocument) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user has no job document")
	}
	ref := strings.TrimSpace(*user.JobDocument)
	doc := &JobDocument{
		Reference:   ref,
		URL:         s.media.URLFor(ref),
		FileName:    path.Base(ref),
		ContentType: "application/octet-stream",
		Disposition: DispositionAttachment,
	}
	if !download {
		doc.Disposition = DispositionInline
		if ct := mime.TypeByExtension(strings.ToLower(path.Ext(ref))); ct != "" {
			doc.ContentType = ct
		}
	}
	return doc, nil
}

func (s *service) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	if _, err := s.requireStaff(ctx, actorID); err != nil {
		return err
	}
	if actorID == userID {
		return pkgerrors.New(pkgerrors.CodeValidation, "you cannot delete your own account")
	}
	affected, err := s.repo.Delete(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete user")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"actor_id": actorID.String(),
		"user_id":  userID.String(),
	})
	s.logg.Info(logCtx, "user.deleted")
	return nil
}

func (s *service) requireStaff(ctx context.Context, actorID uuid.UUID) (*models.User, error) {
	actor, err := s.repo.FindByID(ctx, actorID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load actor")
	}
	if !actor.IsStaff {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
	}
	return actor, nil
}

func (s *service) load(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("load user %s", userID))
	}
	return user, nil
}
