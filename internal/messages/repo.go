package messages

import (
	"context"
	"time"

	"github.com/angelmondragon/accounts-backend/internal/repo"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const table = "user_messages"

// Repository persists user messages.
type Repository struct {
	repo.Base
}

// NewRepository constructs a messages repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, msg *models.UserMessage) error {
	return r.DB(ctx).Create(msg).Error
}

// FindByID loads a message with its sender.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.UserMessage, error) {
	var msg models.UserMessage
	if err := r.DB(ctx).Preload("Sender").Preload("User").First(&msg, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindOwned loads a message only when userID owns it.
func (r *Repository) FindOwned(ctx context.Context, userID, id uuid.UUID) (*models.UserMessage, error) {
	var msg models.UserMessage
	err := r.DB(ctx).
		Preload("Sender").
		Where("id = ? AND user_id = ?", id, userID).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListForUser returns the user's messages newest first. A limit of zero or
// less returns every row after cursor.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.UserMessage, error) {
	q := r.DB(ctx).
		Preload("Sender").
		Where("user_id = ?", userID).
		Scopes(repo.NewestFirst(table, cursor))
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.UserMessage
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// RecentForUser returns the newest limit messages owned by userID.
func (r *Repository) RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserMessage, error) {
	return r.ListForUser(ctx, userID, nil, limit)
}

// ListByContact returns every message anchored on contactID, oldest first.
func (r *Repository) ListByContact(ctx context.Context, contactID uuid.UUID) ([]models.UserMessage, error) {
	var rows []models.UserMessage
	err := r.DB(ctx).
		Preload("Sender").
		Where("contact_message_id = ?", contactID).
		Scopes(repo.OldestFirst(table)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPrivateThread returns the user's private messages in both directions, oldest first.
func (r *Repository) ListPrivateThread(ctx context.Context, userID uuid.UUID) ([]models.UserMessage, error) {
	var rows []models.UserMessage
	err := r.DB(ctx).
		Preload("Sender").
		Where("user_id = ? AND message_type = ?", userID, enums.MessageKindPrivate).
		Scopes(repo.OldestFirst(table)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPrivateInbox returns user-to-admin private messages newest first.
func (r *Repository) ListPrivateInbox(ctx context.Context, unreadOnly bool, cursor *pagination.Cursor, limit int) ([]models.UserMessage, error) {
	q := r.DB(ctx).
		Preload("User").
		Preload("Sender").
		Where("is_from_admin = ? AND message_type = ?", false, enums.MessageKindPrivate)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	q = q.Scopes(repo.NewestFirst(table, cursor))
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.UserMessage
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkRead flips an unread message to read and reports whether it changed.
func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.DB(ctx).
		Model(&models.UserMessage{}).
		Where("id = ? AND is_read = ?", id, false).
		Updates(map[string]any{"is_read": true, "read_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Counts summarises a user's mailbox.
type Counts struct {
	Total    int64
	Received int64
	Sent     int64
	Unread   int64
}

// CountsForUser aggregates the owned messages of userID in a single pass.
func (r *Repository) CountsForUser(ctx context.Context, userID uuid.UUID) (Counts, error) {
	var counts Counts
	err := r.DB(ctx).Model(&models.UserMessage{}).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN is_from_admin THEN 1 ELSE 0 END), 0) AS received, "+
				"COALESCE(SUM(CASE WHEN is_from_admin THEN 0 ELSE 1 END), 0) AS sent, "+
				"COALESCE(SUM(CASE WHEN is_from_admin AND NOT is_read THEN 1 ELSE 0 END), 0) AS unread",
		).
		Where("user_id = ?", userID).
		Scan(&counts).Error
	return counts, err
}

// ExistsAdminReply reports whether an admin response already references contactID.
func (r *Repository) ExistsAdminReply(ctx context.Context, contactID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.UserMessage{}).
		Where("contact_message_id = ? AND is_from_admin = ? AND message_type = ?", contactID, true, enums.MessageKindResponse).
		Count(&count).Error
	return count > 0, err
}

// OriginalForContact returns the user's submission that opened contactID.
func (r *Repository) OriginalForContact(ctx context.Context, contactID uuid.UUID) (*models.UserMessage, error) {
	var msg models.UserMessage
	err := r.DB(ctx).
		Preload("Sender").
		Where("contact_message_id = ? AND is_from_admin = ?", contactID, false).
		Scopes(repo.OldestFirst(table)).
		First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
