package users

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/accounts-backend/internal/repo"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var searchColumns = []string{"username", "email", "first_name", "last_name", "national_code", "phone_number"}

// profileColumns are the columns written by a profile update.
var profileColumns = []string{
	"first_name", "last_name", "email", "phone_number", "birth_date", "age_group",
	"address", "bio", "website", "profile_image", "job_document", "updated_at",
}

// Repository exposes user-related persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// Create inserts a new user.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Create(user).Error
}

// FindByID loads a user by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername retrieves the user matching username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *Repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *Repository) ExistsByNationalCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, "national_code = ?", code)
}

func (r *Repository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.DB(ctx).Model(&models.User{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateLastLogin refreshes the user's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// SaveProfile writes the profile columns of user, including cleared ones.
func (r *Repository) SaveProfile(ctx context.Context, user *models.User) error {
	return r.DB(ctx).Model(user).Select(profileColumns).Updates(user).Error
}

// UpdateUserType sets the business role and reports the affected rows.
func (r *Repository) UpdateUserType(ctx context.Context, id uuid.UUID, userType enums.UserType, at time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"user_type": userType, "updated_at": at})
	return res.RowsAffected, res.Error
}

func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool, at time.Time) (int64, error) {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": at})
	return res.RowsAffected, res.Error
}

// IsActive reports whether id names an existing, active account.
func (r *Repository) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.exists(ctx, "id = ? AND is_active = ?", id, true)
}

// Delete removes the user; contact and user messages cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).Delete(&models.User{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// List returns one page of users newest first together with the filtered total.
func (r *Repository) List(ctx context.Context, filter ListFilter, page pagination.Page) ([]models.User, int64, error) {
	q := r.DB(ctx).Model(&models.User{})
	if term := strings.ToLower(strings.TrimSpace(filter.Search)); term != "" {
		like := "%" + escapeLike(term) + "%"
		clauses := make([]string, 0, len(searchColumns))
		args := make([]any, 0, len(searchColumns))
		for _, col := range searchColumns {
			clauses = append(clauses, "LOWER(COALESCE("+col+", '')) LIKE ? ESCAPE '\\'")
			args = append(args, like)
		}
		q = q.Where("("+strings.Join(clauses, " OR ")+")", args...)
	}
	if filter.UserType != nil {
		q = q.Where("user_type = ?", *filter.UserType)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err := q.Scopes(repo.NewestFirst("users", nil)).
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Stats aggregates account counts in a single pass.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := r.DB(ctx).Model(&models.User{}).Select(
		"COUNT(*) AS total, " +
			"COALESCE(SUM(CASE WHEN user_type = 'normal' THEN 1 ELSE 0 END), 0) AS normal, " +
			"COALESCE(SUM(CASE WHEN user_type = 'worker' THEN 1 ELSE 0 END), 0) AS worker, " +
			"COALESCE(SUM(CASE WHEN user_type = 'employee' THEN 1 ELSE 0 END), 0) AS employee, " +
			"COALESCE(SUM(CASE WHEN is_staff THEN 1 ELSE 0 END), 0) AS staff, " +
			"COALESCE(SUM(CASE WHEN is_active THEN 1 ELSE 0 END), 0) AS active",
	).Scan(&stats).Error
	return stats, err
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(term)
}
