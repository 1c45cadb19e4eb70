// Package threads assembles conversation views from contact messages and
// user messages. Apart from the read receipts recorded when a thread is
// opened, everything here is a read.
package threads

import (
	"bytes"
	"context"
	"slices"
	"time"

	"github.com/angelmondragon/accounts-backend/internal/contacts"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/repo"
	"github.com/angelmondragon/accounts-backend/pkg/db"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/pagination"
	"github.com/google/uuid"
)

// InboxPageSize is the default number of messages on one inbox page.
const InboxPageSize = 15

// EntryKind tells which record a conversation entry wraps.
type EntryKind string

const (
	EntryContact EntryKind = "contact"
	EntryMessage EntryKind = "message"
)

// Entry is one item of a merged conversation; exactly one of Contact and Message is set.
type Entry struct {
	Kind      EntryKind
	ID        uuid.UUID
	CreatedAt time.Time
	Contact   *models.ContactMessage
	Message   *models.UserMessage
}

// MessageDetail is a message opened together with the thread it belongs to.
type MessageDetail struct {
	Message  models.UserMessage
	Thread   []models.UserMessage
	Contact  *models.ContactMessage
	Original *models.UserMessage
}

// ContactDetail is a contact message with its anchored thread.
type ContactDetail struct {
	Contact models.ContactMessage
	Thread  []models.UserMessage
}

// Inbox is one page of a user's mailbox plus the surrounding counts.
type Inbox struct {
	Messages []models.UserMessage
	Cursor   string
	Contacts []models.ContactMessage
	// Originals maps a contact id to the submission that opened it, for
	// every admin response on this page.
	Originals map[uuid.UUID]models.UserMessage
	Counts    messages.Counts
}

type InboxParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

// Service reconstructs threads.
type Service interface {
	BuildConversation(ctx context.Context, userID uuid.UUID) ([]Entry, error)
	BuildThread(ctx context.Context, contactID uuid.UUID) ([]models.UserMessage, error)
	BuildPrivateThread(ctx context.Context, userID uuid.UUID) ([]models.UserMessage, error)
	ViewDetail(ctx context.Context, userID, messageID uuid.UUID) (*MessageDetail, error)
	AdminContactDetail(ctx context.Context, adminID, contactID uuid.UUID) (*ContactDetail, error)
	AdminPrivateDetail(ctx context.Context, adminID, messageID uuid.UUID) (*MessageDetail, error)
	Inbox(ctx context.Context, params InboxParams) (*Inbox, error)
}

type readMarker interface {
	MarkRead(ctx context.Context, params messages.MarkReadParams) (bool, error)
}

type contactViewer interface {
	MarkViewed(ctx context.Context, contactID uuid.UUID) (bool, error)
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ServiceParams bundles the dependencies required to build a threads service.
type ServiceParams struct {
	Messages      *messages.Repository
	Contacts      *contacts.Repository
	Users         userLookup
	ReadMarker    readMarker
	ContactViewer contactViewer
}

type service struct {
	messages *messages.Repository
	contacts *contacts.Repository
	users    userLookup
	marker   readMarker
	viewer   contactViewer
}

// NewService wires the thread reconstruction dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Messages == nil || params.Contacts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "messages and contacts repositories required")
	}
	if params.Users == nil || params.ReadMarker == nil || params.ContactViewer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "thread collaborators required")
	}
	return &service{
		messages: params.Messages,
		contacts: params.Contacts,
		users:    params.Users,
		marker:   params.ReadMarker,
		viewer:   params.ContactViewer,
	}, nil
}

// BuildConversation merges the user's contacts and messages newest first.
// Equal timestamps fall back to id order, which follows insertion order.
func (s *service) BuildConversation(ctx context.Context, userID uuid.UUID) ([]Entry, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	contactRows, err := s.contacts.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contact messages")
	}
	messageRows, err := s.messages.ListForUser(ctx, userID, nil, 0)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}

	entries := make([]Entry, 0, len(contactRows)+len(messageRows))
	for i := range contactRows {
		c := &contactRows[i]
		entries = append(entries, Entry{Kind: EntryContact, ID: c.ID, CreatedAt: c.CreatedAt, Contact: c})
	}
	for i := range messageRows {
		m := &messageRows[i]
		entries = append(entries, Entry{Kind: EntryMessage, ID: m.ID, CreatedAt: m.CreatedAt, Message: m})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return bytes.Compare(b.ID[:], a.ID[:])
	})
	return entries, nil
}

// BuildThread returns every message anchored on the contact, oldest first.
func (s *service) BuildThread(ctx context.Context, contactID uuid.UUID) ([]models.UserMessage, error) {
	if _, err := s.loadContact(ctx, contactID); err != nil {
		return nil, err
	}
	return s.contactThread(ctx, contactID)
}

// BuildPrivateThread groups the user's private messages, oldest first.
func (s *service) BuildPrivateThread(ctx context.Context, userID uuid.UUID) ([]models.UserMessage, error) {
	if _, err := s.loadUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.privateThread(ctx, userID)
}

// ViewDetail opens one of the user's own messages. Unread admin messages are
// marked read before the thread is assembled.
func (s *service) ViewDetail(ctx context.Context, userID, messageID uuid.UUID) (*MessageDetail, error) {
	msg, err := s.messages.FindOwned(ctx, userID, messageID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load message")
	}

	if msg.IsFromAdmin && !msg.IsRead {
		if _, err := s.marker.MarkRead(ctx, messages.MarkReadParams{MessageID: msg.ID, ReaderID: userID}); err != nil {
			return nil, err
		}
		if msg, err = s.messages.FindOwned(ctx, userID, messageID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload message")
		}
	}
	return s.detail(ctx, msg)
}

// AdminContactDetail opens a contact for staff, moving it from pending to read.
func (s *service) AdminContactDetail(ctx context.Context, adminID, contactID uuid.UUID) (*ContactDetail, error) {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return nil, err
	}
	if _, err := s.loadContact(ctx, contactID); err != nil {
		return nil, err
	}
	if _, err := s.viewer.MarkViewed(ctx, contactID); err != nil {
		return nil, err
	}
	contact, err := s.loadContact(ctx, contactID)
	if err != nil {
		return nil, err
	}
	thread, err := s.contactThread(ctx, contactID)
	if err != nil {
		return nil, err
	}
	return &ContactDetail{Contact: *contact, Thread: thread}, nil
}

// AdminPrivateDetail opens any message for staff. Only user-authored messages
// are marked read, so staff never clear a user's own unread state.
func (s *service) AdminPrivateDetail(ctx context.Context, adminID, messageID uuid.UUID) (*MessageDetail, error) {
	if err := s.requireStaff(ctx, adminID); err != nil {
		return nil, err
	}
	msg, err := s.messages.FindByID(ctx, messageID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load message")
	}
	if !msg.IsFromAdmin && !msg.IsRead {
		if _, err := s.marker.MarkRead(ctx, messages.MarkReadParams{MessageID: msg.ID, ReaderID: adminID}); err != nil {
			return nil, err
		}
		if msg, err = s.messages.FindByID(ctx, messageID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload message")
		}
	}
	return s.detail(ctx, msg)
}

func (s *service) Inbox(ctx context.Context, params InboxParams) (*Inbox, error) {
	if _, err := s.loadUser(ctx, params.UserID); err != nil {
		return nil, err
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = InboxPageSize
	}
	limit = pagination.NormalizeLimit(limit)

	rows, err := s.messages.ListForUser(ctx, params.UserID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list messages")
	}
	items, next := repo.NextCursor(rows, limit, func(m models.UserMessage) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	})
	if items == nil {
		items = []models.UserMessage{}
	}

	originals := map[uuid.UUID]models.UserMessage{}
	for _, m := range items {
		if !m.IsFromAdmin || m.ContactMessageID == nil {
			continue
		}
		if _, seen := originals[*m.ContactMessageID]; seen {
			continue
		}
		original, err := s.messages.OriginalForContact(ctx, *m.ContactMessageID)
		if err != nil {
			if db.IsNotFound(err) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load original message")
		}
		originals[*m.ContactMessageID] = *original
	}

	contactRows, err := s.contacts.ListForUser(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contact messages")
	}
	if contactRows == nil {
		contactRows = []models.ContactMessage{}
	}
	counts, err := s.messages.CountsForUser(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count messages")
	}

	return &Inbox{
		Messages:  items,
		Cursor:    next,
		Contacts:  contactRows,
		Originals: originals,
		Counts:    counts,
	}, nil
}

func (s *service) detail(ctx context.Context, msg *models.UserMessage) (*MessageDetail, error) {
	out := &MessageDetail{Message: *msg}
	switch {
	case msg.ContactMessageID != nil:
		contact, err := s.loadContact(ctx, *msg.ContactMessageID)
		if err != nil {
			return nil, err
		}
		thread, err := s.contactThread(ctx, contact.ID)
		if err != nil {
			return nil, err
		}
		out.Contact = contact
		out.Thread = thread
		for i := range thread {
			if !thread[i].IsFromAdmin {
				original := thread[i]
				out.Original = &original
				break
			}
		}
	case msg.Kind == enums.MessageKindPrivate:
		thread, err := s.privateThread(ctx, msg.UserID)
		if err != nil {
			return nil, err
		}
		out.Thread = thread
	default:
		out.Thread = []models.UserMessage{*msg}
	}
	return out, nil
}

func (s *service) contactThread(ctx context.Context, contactID uuid.UUID) ([]models.UserMessage, error) {
	rows, err := s.messages.ListByContact(ctx, contactID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list contact thread")
	}
	if rows == nil {
		rows = []models.UserMessage{}
	}
	return rows, nil
}

func (s *service) privateThread(ctx context.Context, userID uuid.UUID) ([]models.UserMessage, error) {
	rows, err := s.messages.ListPrivateThread(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list private thread")
	}
	if rows == nil {
		rows = []models.UserMessage{}
	}
	return rows, nil
}

func (s *service) loadContact(ctx context.Context, contactID uuid.UUID) (*models.ContactMessage, error) {
	contact, err := s.contacts.FindByID(ctx, contactID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "contact message not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load contact message")
	}
	return contact, nil
}

func (s *service) loadUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	return user, nil
}

func (s *service) requireStaff(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil && !db.IsNotFound(err) {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load actor")
	}
	if user == nil || !user.IsStaff {
		return pkgerrors.New(pkgerrors.CodeForbidden, "staff access required")
	}
	return nil
}
