package messages

import (
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/google/uuid"
)

// MessageDTO is the transport shape of a user message.
type MessageDTO struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"user_id"`
	UserName         string     `json:"user_name,omitempty"`
	ContactMessageID *uuid.UUID `json:"contact_message_id,omitempty"`
	Kind             string     `json:"message_type"`
	KindLabel        string     `json:"message_type_label"`
	IsFromAdmin      bool       `json:"is_from_admin"`
	SenderName       string     `json:"sender_name"`
	Subject          string     `json:"subject"`
	Content          string     `json:"content"`
	IsRead           bool       `json:"is_read"`
	ReadAt           *time.Time `json:"read_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CreatedAtJalali  string     `json:"created_at_jalali"`
}

// Presenter renders messages with Jalali timestamps.
type Presenter struct {
	Calendar jalali.Calendar
}

func (p Presenter) Message(m *models.UserMessage) MessageDTO {
	dto := MessageDTO{
		ID:               m.ID,
		UserID:           m.UserID,
		ContactMessageID: m.ContactMessageID,
		Kind:             m.Kind.String(),
		KindLabel:        m.Kind.Label(),
		IsFromAdmin:      m.IsFromAdmin,
		SenderName:       m.SenderName(),
		Subject:          m.Subject,
		Content:          m.Content,
		IsRead:           m.IsRead,
		ReadAt:           m.ReadAt,
		CreatedAt:        m.CreatedAt,
		CreatedAtJalali:  p.Calendar.FormatDateTime(m.CreatedAt),
	}
	if m.User != nil {
		dto.UserName = m.User.FullName()
	}
	return dto
}

func (p Presenter) Messages(rows []models.UserMessage) []MessageDTO {
	out := make([]MessageDTO, 0, len(rows))
	for i := range rows {
		out = append(out, p.Message(&rows[i]))
	}
	return out
}
