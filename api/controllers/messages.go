package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/accounts-backend/api/responses"
	"github.com/angelmondragon/accounts-backend/api/validators"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/threads"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
)

const maxPageSize = 100

type messageSendRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// MessageSend delivers a private message from the authenticated user to the admins.
func MessageSend(svc messages.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body messageSendRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		msg, err := svc.SendPrivate(r.Context(), messages.SendPrivateParams{
			SenderID: userID,
			Kind:     enums.MessageKindPrivate,
			Subject:  body.Subject,
			Content:  body.Content,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, views.message(msg))
	}
}

// MessageInbox returns one page of the user's mailbox with its counters.
func MessageInbox(svc threads.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "threads service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", threads.InboxPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inbox, err := svc.Inbox(r.Context(), threads.InboxParams{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.Inbox(inbox))
	}
}

// MessageDetail opens one of the user's messages with its thread. Opening an
// unread admin message marks it read.
func MessageDetail(svc threads.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "threads service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messageID, err := validators.ParseUUIDParam(r, "messageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.ViewDetail(r.Context(), userID, messageID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views.MessageDetail(detail))
	}
}

// MessageMarkRead marks one of the user's messages read.
func MessageMarkRead(svc messages.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "messages service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		messageID, err := validators.ParseUUIDParam(r, "messageId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		changed, err := svc.MarkRead(r.Context(), messages.MarkReadParams{MessageID: messageID, ReaderID: userID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"marked": changed})
	}
}

// MessageConversation merges the user's contacts and messages into one timeline.
func MessageConversation(svc threads.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "threads service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := svc.BuildConversation(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entries": views.Conversation(entries)})
	}
}

// MessagePrivateThread returns the user's private thread in chronological order.
func MessagePrivateThread(svc threads.Service, views Views, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "threads service unavailable"))
			return
		}

		userID, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		thread, err := svc.BuildPrivateThread(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"thread": views.Messages.Messages(thread)})
	}
}
