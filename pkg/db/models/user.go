package models

import (
	"strings"
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Username     string          `gorm:"column:username;not null;uniqueIndex"`
	Email        string          `gorm:"column:email;not null"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	FirstName    string          `gorm:"column:first_name;not null"`
	LastName     string          `gorm:"column:last_name;not null"`
	NationalCode string          `gorm:"column:national_code;not null;uniqueIndex"`
	PhoneNumber  *string         `gorm:"column:phone_number"`
	BirthDate    *time.Time      `gorm:"column:birth_date;type:date"`
	AgeGroup     *enums.AgeGroup `gorm:"column:age_group"`
	UserType     enums.UserType  `gorm:"column:user_type;not null;default:normal"`
	IsStaff      bool            `gorm:"column:is_staff;not null;default:false"`
	IsActive     bool            `gorm:"column:is_active;not null"`
	Address      *string         `gorm:"column:address"`
	Bio          *string         `gorm:"column:bio"`
	Website      *string         `gorm:"column:website"`
	ProfileImage *string         `gorm:"column:profile_image"`
	JobDocument  *string         `gorm:"column:job_document"`
	LastLoginAt  *time.Time      `gorm:"column:last_login_at"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// BeforeCreate assigns a time-ordered id when none was set.
func (u *User) BeforeCreate(*gorm.DB) error {
	return assignID(&u.ID)
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func assignID(id *uuid.UUID) error {
	if *id != uuid.Nil {
		return nil
	}
	next, err := uuid.NewV7()
	if err != nil {
		return err
	}
	*id = next
	return nil
}
