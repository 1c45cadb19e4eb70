package users

import (
	"path"
	"strings"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"github.com/google/uuid"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	FullName         string     `json:"full_name"`
	NationalCode     string     `json:"national_code"`
	PhoneNumber      *string    `json:"phone_number,omitempty"`
	BirthDate        string     `json:"birth_date,omitempty"`
	AgeGroup         *string    `json:"age_group,omitempty"`
	AgeGroupLabel    string     `json:"age_group_label"`
	UserType         string     `json:"user_type"`
	UserTypeLabel    string     `json:"user_type_label"`
	IsStaff          bool       `json:"is_staff"`
	IsActive         bool       `json:"is_active"`
	Address          *string    `json:"address,omitempty"`
	Bio              *string    `json:"bio,omitempty"`
	Website          *string    `json:"website,omitempty"`
	ProfileImageURL  string     `json:"profile_image_url"`
	HasJobDocument   bool       `json:"has_job_document"`
	JobDocumentName  string     `json:"job_document_name,omitempty"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
	LastLoginJalali  string     `json:"last_login_jalali,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CreatedAtJalali  string     `json:"created_at_jalali"`
	JoinedJalaliYear int        `json:"joined_jalali_year"`
	JoinedMonthName  string     `json:"joined_month_name"`
}

// SummaryDTO is the row shape of the admin user listing.
type SummaryDTO struct {
	ID              uuid.UUID `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	NationalCode    string    `json:"national_code"`
	PhoneNumber     *string   `json:"phone_number,omitempty"`
	UserType        string    `json:"user_type"`
	UserTypeLabel   string    `json:"user_type_label"`
	IsStaff         bool      `json:"is_staff"`
	IsActive        bool      `json:"is_active"`
	CreatedAtJalali string    `json:"created_at_jalali"`
}

// Stats counts accounts for the admin dashboards.
type Stats struct {
	Total    int64 `json:"total"`
	Normal   int64 `json:"normal"`
	Worker   int64 `json:"worker"`
	Employee int64 `json:"employee"`
	Staff    int64 `json:"staff"`
	Active   int64 `json:"active"`
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Search   string
	UserType *enums.UserType
}

// ListResult is one numbered page of the admin user listing.
type ListResult struct {
	Users []SummaryDTO        `json:"users"`
	Page  pagination.PageInfo `json:"page"`
	Stats Stats               `json:"stats"`
	Types []UserTypeOptionDTO `json:"user_types"`
}

type UserTypeOptionDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Detail bundles a user with their latest activity. Messages and contacts are
// returned as models so the caller can render them with their own presenters.
type Detail struct {
	User           UserDTO
	RecentMessages []models.UserMessage
	RecentContacts []models.ContactMessage
}

// JobDocument locates a stored job document and how it should be served.
type JobDocument struct {
	Reference   string `json:"reference"`
	URL         string `json:"url"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Disposition string `json:"disposition"`
}

// Presenter renders users with local dates and media URLs.
type Presenter struct {
	Calendar jalali.Calendar
	Media    config.MediaConfig
}

func (p Presenter) User(u *models.User) UserDTO {
	if u == nil {
		return UserDTO{}
	}
	dto := UserDTO{
		ID:               u.ID,
		Username:         u.Username,
		Email:            u.Email,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		FullName:         u.FullName(),
		NationalCode:     u.NationalCode,
		PhoneNumber:      u.PhoneNumber,
		BirthDate:        jalali.FormatBirthDate(u.BirthDate),
		AgeGroupLabel:    enums.UnknownLabel,
		UserType:         u.UserType.String(),
		UserTypeLabel:    u.UserType.Label(),
		IsStaff:          u.IsStaff,
		IsActive:         u.IsActive,
		Address:          u.Address,
		Bio:              u.Bio,
		Website:          u.Website,
		ProfileImageURL:  p.ProfileImageURL(u),
		HasJobDocument:   u.JobDocument != nil,
		LastLoginAt:      u.LastLoginAt,
		LastLoginJalali:  p.Calendar.FormatDateTimePtr(u.LastLoginAt),
		CreatedAt:        u.CreatedAt,
		CreatedAtJalali:  p.Calendar.FormatDateTime(u.CreatedAt),
		JoinedJalaliYear: p.Calendar.Year(u.CreatedAt),
		JoinedMonthName:  p.Calendar.MonthName(u.CreatedAt),
	}
	if u.AgeGroup != nil {
		group := u.AgeGroup.String()
		dto.AgeGroup = &group
		dto.AgeGroupLabel = u.AgeGroup.Label()
	}
	if u.JobDocument != nil {
		dto.JobDocumentName = path.Base(*u.JobDocument)
	}
	return dto
}

func (p Presenter) Summary(u *models.User) SummaryDTO {
	return SummaryDTO{
		ID:              u.ID,
		Username:        u.Username,
		Email:           u.Email,
		FullName:        u.FullName(),
		NationalCode:    u.NationalCode,
		PhoneNumber:     u.PhoneNumber,
		UserType:        u.UserType.String(),
		UserTypeLabel:   u.UserType.Label(),
		IsStaff:         u.IsStaff,
		IsActive:        u.IsActive,
		CreatedAtJalali: p.Calendar.FormatDate(u.CreatedAt),
	}
}

// ProfileImageURL resolves the uploaded image or the configured placeholder.
func (p Presenter) ProfileImageURL(u *models.User) string {
	if u == nil || u.ProfileImage == nil || strings.TrimSpace(*u.ProfileImage) == "" {
		return p.Media.DefaultProfileImageURL
	}
	return p.Media.URLFor(*u.ProfileImage)
}

func userTypeOptions() []UserTypeOptionDTO {
	out := make([]UserTypeOptionDTO, 0, len(enums.UserTypes()))
	for _, t := range enums.UserTypes() {
		out = append(out, UserTypeOptionDTO{Value: t.String(), Label: t.Label()})
	}
	return out
}
