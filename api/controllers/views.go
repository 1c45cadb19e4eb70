package controllers

import (
	"time"

	"github.com/angelmondragon/accounts-backend/internal/contacts"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/notifications"
	"github.com/angelmondragon/accounts-backend/internal/threads"
	"github.com/angelmondragon/accounts-backend/internal/users"
	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/google/uuid"
)

// Views turns service results into response payloads.
type Views struct {
	Calendar jalali.Calendar
	Users    users.Presenter
	Messages messages.Presenter
	Contacts contacts.Presenter
}

// NewViews builds presenters that share one display calendar.
func NewViews(cal jalali.Calendar, media config.MediaConfig) Views {
	return Views{
		Calendar: cal,
		Users:    users.Presenter{Calendar: cal, Media: media},
		Messages: messages.Presenter{Calendar: cal},
		Contacts: contacts.Presenter{Calendar: cal},
	}
}

type CountsView struct {
	Total    int64 `json:"total"`
	Received int64 `json:"received"`
	Sent     int64 `json:"sent"`
	Unread   int64 `json:"unread"`
}

type MessageListView struct {
	Messages   []messages.MessageDTO `json:"messages"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type ContactListView struct {
	Contacts   []contacts.ContactDTO `json:"contacts"`
	NextCursor string                `json:"next_cursor,omitempty"`
}

type EntryView struct {
	Kind            threads.EntryKind    `json:"kind"`
	ID              uuid.UUID            `json:"id"`
	CreatedAt       time.Time            `json:"created_at"`
	CreatedAtJalali string               `json:"created_at_jalali"`
	Contact         *contacts.ContactDTO `json:"contact,omitempty"`
	Message         *messages.MessageDTO `json:"message,omitempty"`
}

type MessageDetailView struct {
	Message  messages.MessageDTO   `json:"message"`
	Thread   []messages.MessageDTO `json:"thread"`
	Contact  *contacts.ContactDTO  `json:"contact,omitempty"`
	Original *messages.MessageDTO  `json:"original,omitempty"`
}

type ContactDetailView struct {
	Contact contacts.ContactDTO   `json:"contact"`
	Thread  []messages.MessageDTO `json:"thread"`
}

type InboxView struct {
	Messages   []messages.MessageDTO          `json:"messages"`
	NextCursor string                         `json:"next_cursor,omitempty"`
	Contacts   []contacts.ContactDTO          `json:"contacts"`
	Originals  map[string]messages.MessageDTO `json:"originals"`
	Counts     CountsView                     `json:"counts"`
}

type SummaryView struct {
	Unread int64                 `json:"unread_count"`
	Total  int64                 `json:"total_count"`
	Recent []messages.MessageDTO `json:"recent"`
}

type OverviewView struct {
	Users           users.Stats           `json:"users"`
	PendingCount    int64                 `json:"pending_contacts"`
	UnreadPrivate   int64                 `json:"unread_private"`
	Contacts        []contacts.ContactDTO `json:"contacts"`
	PrivateMessages []messages.MessageDTO `json:"private_messages"`
}

type UserDetailView struct {
	User           users.UserDTO         `json:"user"`
	RecentMessages []messages.MessageDTO `json:"recent_messages"`
	RecentContacts []contacts.ContactDTO `json:"recent_contacts"`
}

func (v Views) Conversation(entries []threads.Entry) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		view := EntryView{
			Kind:            e.Kind,
			ID:              e.ID,
			CreatedAt:       e.CreatedAt,
			CreatedAtJalali: v.Calendar.FormatDateTime(e.CreatedAt),
		}
		if e.Contact != nil {
			c := v.Contacts.Contact(e.Contact)
			view.Contact = &c
		}
		if e.Message != nil {
			m := v.Messages.Message(e.Message)
			view.Message = &m
		}
		out = append(out, view)
	}
	return out
}

func (v Views) MessageDetail(d *threads.MessageDetail) MessageDetailView {
	view := MessageDetailView{
		Message: v.Messages.Message(&d.Message),
		Thread:  v.Messages.Messages(d.Thread),
	}
	if d.Contact != nil {
		c := v.Contacts.Contact(d.Contact)
		view.Contact = &c
	}
	if d.Original != nil {
		m := v.Messages.Message(d.Original)
		view.Original = &m
	}
	return view
}

func (v Views) ContactDetail(d *threads.ContactDetail) ContactDetailView {
	return ContactDetailView{
		Contact: v.Contacts.Contact(&d.Contact),
		Thread:  v.Messages.Messages(d.Thread),
	}
}

func (v Views) Inbox(in *threads.Inbox) InboxView {
	originals := make(map[string]messages.MessageDTO, len(in.Originals))
	for contactID, msg := range in.Originals {
		originals[contactID.String()] = v.Messages.Message(&msg)
	}
	return InboxView{
		Messages:   v.Messages.Messages(in.Messages),
		NextCursor: in.Cursor,
		Contacts:   v.Contacts.Contacts(in.Contacts),
		Originals:  originals,
		Counts: CountsView{
			Total:    in.Counts.Total,
			Received: in.Counts.Received,
			Sent:     in.Counts.Sent,
			Unread:   in.Counts.Unread,
		},
	}
}

func (v Views) Summary(s *notifications.Summary) SummaryView {
	return SummaryView{
		Unread: s.Unread,
		Total:  s.Total,
		Recent: v.Messages.Messages(s.Recent),
	}
}

func (v Views) Overview(o *notifications.Overview) OverviewView {
	return OverviewView{
		Users:           o.Users,
		PendingCount:    o.PendingCount,
		UnreadPrivate:   o.UnreadPrivate,
		Contacts:        v.Contacts.Contacts(o.Contacts),
		PrivateMessages: v.Messages.Messages(o.PrivateMessages),
	}
}

func (v Views) UserDetail(d *users.Detail) UserDetailView {
	return UserDetailView{
		User:           d.User,
		RecentMessages: v.Messages.Messages(d.RecentMessages),
		RecentContacts: v.Contacts.Contacts(d.RecentContacts),
	}
}

func (v Views) message(m *models.UserMessage) messages.MessageDTO {
	return v.Messages.Message(m)
}

func (v Views) contact(c *models.ContactMessage) contacts.ContactDTO {
	return v.Contacts.Contact(c)
}
