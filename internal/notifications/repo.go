package notifications

import (
	"context"

	"github.com/angelmondragon/accounts-backend/internal/repo"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes the counters notifications are derived from. Nothing is
// cached; every call reads the current rows.
type Repository interface {
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	TotalCount(ctx context.Context, userID uuid.UUID) (int64, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserMessage, error)
	PendingContacts(ctx context.Context) (int64, error)
	UnreadPrivateInbox(ctx context.Context) (int64, error)
	LatestContacts(ctx context.Context, limit int) ([]models.ContactMessage, error)
	LatestPrivate(ctx context.Context, limit int) ([]models.UserMessage, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a notifications repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserMessage{}).
		Where("user_id = ? AND is_from_admin = ? AND is_read = ?", userID, true, false).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) TotalCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserMessage{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserMessage, error) {
	var rows []models.UserMessage
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("user_id = ?", userID).
		Scopes(repo.NewestFirst("user_messages", nil)).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) PendingContacts(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ContactMessage{}).
		Where("status = ?", enums.ContactStatusPending).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) UnreadPrivateInbox(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UserMessage{}).
		Where("is_from_admin = ? AND message_type = ? AND is_read = ?", false, enums.MessageKindPrivate, false).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) LatestContacts(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	var rows []models.ContactMessage
	err := r.db.WithContext(ctx).
		Preload("User").
		Scopes(repo.NewestFirst("contact_messages", nil)).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) LatestPrivate(ctx context.Context, limit int) ([]models.UserMessage, error) {
	var rows []models.UserMessage
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("is_from_admin = ? AND message_type = ?", false, enums.MessageKindPrivate).
		Scopes(repo.NewestFirst("user_messages", nil)).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
