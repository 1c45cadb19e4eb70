package contacts

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

const table = "contact_messages"

// Repository persists contact messages.
type Repository struct {
	repo.Base
}

// NewRepository constructs a contacts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

func (r *Repository) Create(ctx context.Context, contact *models.ContactMessage) error {
	return r.DB(ctx).Create(contact).Error
}

// FindByID loads a contact with its author and responder.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ContactMessage, error) {
	var contact models.ContactMessage
	err := r.DB(ctx).
		Preload("User").
		Preload("Responder").
		First(&contact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// ListForUser returns every contact submitted by userID, newest first.
func (r *Repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ContactMessage, error) {
	return r.RecentForUser(ctx, userID, 0)
}

// RecentForUser returns the newest limit contacts of userID; zero means all.
func (r *Repository) RecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ContactMessage, error) {
	q := r.DB(ctx).
		Where("user_id = ?", userID).
		Scopes(repo.NewestFirst(table, nil))
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.ContactMessage
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// List pages through all contacts newest first, optionally by status.
func (r *Repository) List(ctx context.Context, status *enums.ContactStatus, cursor *pagination.Cursor, limit int) ([]models.ContactMessage, error) {
	q := r.DB(ctx).Preload("User")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	q = q.Scopes(repo.NewestFirst(table, cursor))
	if limit > 0 {
		q = q.Limit(limit)
	}
	var rows []models.ContactMessage
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) CountByStatus(ctx context.Context, status enums.ContactStatus) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.ContactMessage{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

// MarkViewed moves a pending contact to read. Other statuses are untouched.
func (r *Repository) MarkViewed(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.DB(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ? AND status = ?", id, enums.ContactStatusPending).
		Update("status", enums.ContactStatusRead)
	return res.RowsAffected > 0, res.Error
}

// MarkReplied records the first admin response. It matches only contacts
// that have not been replied to, so a second call affects zero rows.
func (r *Repository) MarkReplied(ctx context.Context, id uuid.UUID, response string, at time.Time, by uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.ContactMessage{}).
		Where("id = ? AND status <> ?", id, enums.ContactStatusReplied).
		Updates(map[string]any{
			"status":         enums.ContactStatusReplied,
			"admin_response": response,
			"responded_at":   at,
			"responded_by":   by,
		})
	return res.RowsAffected, res.Error
}
