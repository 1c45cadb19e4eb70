package contacts

import (
	"time"

	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/google/uuid"
)

// ContactDTO is the transport shape of a contact message.
type ContactDTO struct {
	ID                uuid.UUID  `json:"id"`
	UserID            uuid.UUID  `json:"user_id"`
	UserName          string     `json:"user_name,omitempty"`
	Subject           string     `json:"subject"`
	Message           string     `json:"message"`
	Status            string     `json:"status"`
	StatusLabel       string     `json:"status_label"`
	AdminResponse     *string    `json:"admin_response,omitempty"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`
	RespondedAtJalali string     `json:"responded_at_jalali,omitempty"`
	RespondedBy       *uuid.UUID `json:"responded_by,omitempty"`
	ResponderName     string     `json:"responder_name,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	CreatedAtJalali   string     `json:"created_at_jalali"`
}

// Presenter renders contact messages with Jalali timestamps.
type Presenter struct {
	Calendar jalali.Calendar
}

func (p Presenter) Contact(c *models.ContactMessage) ContactDTO {
	dto := ContactDTO{
		ID:                c.ID,
		UserID:            c.UserID,
		Subject:           c.Subject,
		Message:           c.Message,
		Status:            c.Status.String(),
		StatusLabel:       c.Status.Label(),
		AdminResponse:     c.AdminResponse,
		RespondedAt:       c.RespondedAt,
		RespondedAtJalali: p.Calendar.FormatDateTimePtr(c.RespondedAt),
		RespondedBy:       c.RespondedBy,
		CreatedAt:         c.CreatedAt,
		CreatedAtJalali:   p.Calendar.FormatDateTime(c.CreatedAt),
	}
	if c.User != nil {
		dto.UserName = c.User.FullName()
	}
	if c.Responder != nil {
		dto.ResponderName = c.Responder.FullName()
	}
	return dto
}

func (p Presenter) Contacts(rows []models.ContactMessage) []ContactDTO {
	out := make([]ContactDTO, 0, len(rows))
	for i := range rows {
		out = append(out, p.Contact(&rows[i]))
	}
	return out
}
