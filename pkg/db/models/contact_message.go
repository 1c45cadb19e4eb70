package models

import (
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactMessage is a user-submitted inquiry with at most one admin response.
type ContactMessage struct {
	ID            uuid.UUID           `gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID           `gorm:"type:uuid;column:user_id;not null;index"`
	Subject       string              `gorm:"column:subject;size:200;not null;check:contact_messages_subject_length,length(subject) <= 200"`
	Message       string              `gorm:"column:message;not null"`
	Status        enums.ContactStatus `gorm:"column:status;not null;default:pending;index;check:contact_messages_status_check,status IN ('pending', 'read', 'replied')"`
	AdminResponse *string             `gorm:"column:admin_response;check:contact_messages_replied_has_response,(status = 'replied') = (admin_response IS NOT NULL)"`
	RespondedAt   *time.Time          `gorm:"column:responded_at;check:contact_messages_replied_has_timestamp,status <> 'replied' OR responded_at IS NOT NULL"`
	RespondedBy   *uuid.UUID          `gorm:"type:uuid;column:responded_by"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime;index"`

	User      *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Responder *User `gorm:"foreignKey:RespondedBy;constraint:OnDelete:SET NULL"`
}

func (ContactMessage) TableName() string { return "contact_messages" }

func (c *ContactMessage) BeforeCreate(*gorm.DB) error {
	return assignID(&c.ID)
}

// HasResponse reports whether an admin response has been recorded.
func (c *ContactMessage) HasResponse() bool {
	return c != nil && c.AdminResponse != nil && *c.AdminResponse != ""
}
