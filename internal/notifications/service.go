// Package notifications derives unread counters and dashboard summaries from
// the message tables.
package notifications

import (
	"context"

	"github.com/angelmondragon/accounts-backend/internal/users"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/google/uuid"
)

const (
	// SummaryRecentLimit is how many messages a user summary carries.
	SummaryRecentLimit = 5
	// OverviewListLimit is the size of each list on the admin dashboard.
	OverviewListLimit = 10
)

// Service computes notification counters.
type Service interface {
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
	AdminOverview(ctx context.Context) (*Overview, error)
}

type statsSource interface {
	Stats(ctx context.Context) (users.Stats, error)
}

// Summary is the badge payload for a user.
type Summary struct {
	Unread int64                `json:"unread_count"`
	Total  int64                `json:"total_count"`
	Recent []models.UserMessage `json:"recent"`
}

// Overview is the admin dashboard payload.
type Overview struct {
	Users           users.Stats             `json:"users"`
	PendingCount    int64                   `json:"pending_contacts"`
	UnreadPrivate   int64                   `json:"unread_private"`
	Contacts        []models.ContactMessage `json:"contacts"`
	PrivateMessages []models.UserMessage    `json:"private_messages"`
}

type service struct {
	repo  Repository
	stats statsSource
}

// NewService wires notifications dependencies.
func NewService(repo Repository, stats statsSource) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if stats == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user stats source required")
	}
	return &service{repo: repo, stats: stats}, nil
}

// UnreadCount counts admin-authored messages the user has not read.
func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread messages")
	}
	return count, nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	unread, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.TotalCount(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count messages")
	}
	recent, err := s.repo.Recent(ctx, userID, SummaryRecentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list recent messages")
	}
	if recent == nil {
		recent = []models.UserMessage{}
	}
	return &Summary{Unread: unread, Total: total, Recent: recent}, nil
}

func (s *service) AdminOverview(ctx context.Context) (*Overview, error) {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user stats")
	}
	pending, err := s.repo.PendingContacts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count pending contacts")
	}
	unread, err := s.repo.UnreadPrivateInbox(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread private messages")
	}
	contacts, err := s.repo.LatestContacts(ctx, OverviewListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list contacts")
	}
	private, err := s.repo.LatestPrivate(ctx, OverviewListLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list private messages")
	}
	if contacts == nil {
		contacts = []models.ContactMessage{}
	}
	if private == nil {
		private = []models.UserMessage{}
	}
	return &Overview{
		Users:           stats,
		PendingCount:    pending,
		UnreadPrivate:   unread,
		Contacts:        contacts,
		PrivateMessages: private,
	}, nil
}
