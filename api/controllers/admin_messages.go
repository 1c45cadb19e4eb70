package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/accounts-backend/api/responses"
	"github.com/angelmondragon/accounts-backend/api/validators"
	"github.com/angelmondragon/accounts-backend/internal/contacts"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/threads"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
)

const adminPageSize = 20

type contactRespondRequest struct {
	Response string `json:"response" validate:"required"`
}

type privateReplyRequest struct {
	Subject *string `json:"subject,omitempty" validate:"omitempty,max=200"`
	Content string  `json:"content" validate:"required"`
}

type sendToUserRequest struct {
	Kind    string `json:"message_type" validate:"omitempty,oneof=private response"`
	Subject string `json:"subject" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// AdminContactList pages through contact messages, optionally filtered by status.
func AdminContactList(svc contacts.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contacts service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", adminPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		result, err := svc.List(r.Context(), contacts.ListParams{
			Status: strings.TrimSpace(query.Get("status")),
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ContactListView{
			Contacts:   views.Contacts.Contacts(result.Items),
			NextCursor: result.Cursor,
		})
	}
}

// AdminContactDetail opens a contact with its thread; a pending contact becomes read.
func AdminContactDetail(svc threads.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "threads service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contactID, err := validators.ParseUUIDParam(r, "contactId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.AdminContactDetail(r.Context(), adminID, contactID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.ContactDetail(detail))
	}
}

// AdminContactRespond records the single admin response to a contact.
func AdminContactRespond(svc contacts.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "contacts service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contactID, err := validators.ParseUUIDParam(r, "contactId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body contactRespondRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		contact, err := svc.Respond(r.Context(), contacts.RespondParams{
			ContactID:   contactID,
			ResponderID: adminID,
			Response:    body.Response,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.contact(contact))
	}
}

// AdminPrivateInbox lists private messages users sent to the admins.
func AdminPrivateInbox(svc messages.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", adminPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		unreadOnly, err := validators.ParseQueryBool(r, "unread_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListPrivateInbox(r.Context(), messages.InboxParams{
			UnreadOnly: unreadOnly,
			Limit:      limit,
			Cursor:     strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, MessageListView{
			Messages:   views.Messages.Messages(result.Items),
			NextCursor: result.Cursor,
		})
	}
}

// AdminPrivateDetail opens a private message with the user's private thread.
func AdminPrivateDetail(svc threads.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "threads service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messageID, err := validators.ParseUUIDParam(r, "messageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.AdminPrivateDetail(r.Context(), adminID, messageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.MessageDetail(detail))
	}
}

// AdminPrivateReply answers a user's private message.
func AdminPrivateReply(svc messages.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messageID, err := validators.ParseUUIDParam(r, "messageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body privateReplyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reply, err := svc.ReplyPrivate(r.Context(), messages.ReplyParams{
			AdminID:   adminID,
			MessageID: messageID,
			Subject:   body.Subject,
			Content:   body.Content,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, views.message(reply))
	}
}

// AdminSendToUser sends a private or response message directly to a user.
func AdminSendToUser(svc messages.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		adminID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := validators.ParseUUIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body sendToUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.SendPrivate(r.Context(), messages.SendPrivateParams{
			SenderID:    adminID,
			RecipientID: &userID,
			Kind:        enums.MessageKind(body.Kind),
			Subject:     body.Subject,
			Content:     body.Content,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, views.message(msg))
	}
}
