package models

import (
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Display names for message authors without a loaded sender.
const (
	SystemSenderName = "ادمین سیستم"
	SystemName       = "سیستم"
)

// UserMessage is one directed entry in a user's thread. UserID is always the
// non-staff owner; SenderID is the author and may be nil once that account is gone.
type UserMessage struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID         `gorm:"type:uuid;column:user_id;not null;index:idx_user_messages_user_read,priority:1"`
	ContactMessageID *uuid.UUID        `gorm:"type:uuid;column:contact_message_id;index;uniqueIndex:idx_user_messages_contact_origin,where:is_from_admin = false AND message_type = 'contact';uniqueIndex:idx_user_messages_contact_reply,where:is_from_admin = true AND message_type = 'response'"`
	SenderID         *uuid.UUID        `gorm:"type:uuid;column:sender_id"`
	IsFromAdmin      bool              `gorm:"column:is_from_admin;not null;default:false;index"`
	Kind             enums.MessageKind `gorm:"column:message_type;not null;default:contact"`
	Subject          string            `gorm:"column:subject;size:200;not null;check:user_messages_subject_length,length(subject) <= 200"`
	Content          string            `gorm:"column:content;not null"`
	IsRead           bool              `gorm:"column:is_read;not null;default:false;index:idx_user_messages_user_read,priority:2"`
	ReadAt           *time.Time        `gorm:"column:read_at"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime;index"`

	User           *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Sender         *User           `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL"`
	ContactMessage *ContactMessage `gorm:"foreignKey:ContactMessageID;constraint:OnDelete:CASCADE"`
}

func (UserMessage) TableName() string { return "user_messages" }

func (m *UserMessage) BeforeCreate(*gorm.DB) error {
	return assignID(&m.ID)
}

// SenderName mirrors how the thread labels each side.
func (m *UserMessage) SenderName() string {
	switch {
	case m == nil:
		return ""
	case m.IsFromAdmin:
		return SystemSenderName
	case m.Sender != nil:
		return m.Sender.FullName()
	default:
		return SystemName
	}
}

// All lists every model managed by the schema, in dependency order.
func All() []any {
	return []any{&User{}, &ContactMessage{}, &UserMessage{}}
}
