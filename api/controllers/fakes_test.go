package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/accounts-backend/api/middleware"
	"github.com/angelmondragon/accounts-backend/internal/auth"
	"github.com/angelmondragon/accounts-backend/internal/contacts"
	"github.com/angelmondragon/accounts-backend/internal/messages"
	"github.com/angelmondragon/accounts-backend/internal/notifications"
	"github.com/angelmondragon/accounts-backend/internal/threads"
	"github.com/angelmondragon/accounts-backend/internal/users"
	"github.com/angelmondragon/accounts-backend/pkg/config"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/jalali"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testViews() Views {
	return NewViews(jalali.New(time.UTC), config.MediaConfig{})
}

// newRequest builds a request carrying an authenticated user and chi URL params.
func newRequest(t *testing.T, method, target string, body any, userID uuid.UUID, params map[string]string) *http.Request {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	ctx := req.Context()
	if userID != uuid.Nil {
		ctx = middleware.WithUserID(ctx, userID.String())
	}
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	return req.WithContext(ctx)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

type stubAuthService struct {
	loginResp   *auth.LoginResponse
	pair        *auth.TokenPair
	err         error
	lastLogin   auth.LoginRequest
	lastAccess  string
	lastRefresh string
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.lastLogin = req
	return s.loginResp, s.err
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenPair, error) {
	s.lastAccess = accessToken
	s.lastRefresh = refreshToken
	return s.pair, s.err
}

func (s *stubAuthService) Logout(ctx context.Context, accessToken string) error {
	s.lastAccess = accessToken
	return s.err
}

type stubRegisterService struct {
	err  error
	last auth.RegisterRequest
}

func (s *stubRegisterService) Register(ctx context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{Username: req.Username}, nil
}

type stubUsersService struct {
	users.Service
	profile      *users.UserDTO
	detail       *users.Detail
	doc          *users.JobDocument
	err          error
	lastActor    uuid.UUID
	lastTarget   uuid.UUID
	lastInput    users.ProfileInput
	lastList     users.ListParams
	lastType     string
	lastDownload bool
}

func (s *stubUsersService) Profile(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	s.lastTarget = userID
	return s.profile, s.err
}

func (s *stubUsersService) UpdateProfile(ctx context.Context, userID uuid.UUID, input users.ProfileInput) (*users.UserDTO, error) {
	s.lastTarget = userID
	s.lastInput = input
	return s.profile, s.err
}

func (s *stubUsersService) List(ctx context.Context, params users.ListParams) (*users.ListResult, error) {
	s.lastList = params
	if s.err != nil {
		return nil, s.err
	}
	return &users.ListResult{}, nil
}

func (s *stubUsersService) Detail(ctx context.Context, userID uuid.UUID) (*users.Detail, error) {
	s.lastTarget = userID
	return s.detail, s.err
}

func (s *stubUsersService) UpdateUserType(ctx context.Context, actorID, userID uuid.UUID, userType string) (*users.UserDTO, error) {
	s.lastActor, s.lastTarget, s.lastType = actorID, userID, userType
	return s.profile, s.err
}

func (s *stubUsersService) ToggleActive(ctx context.Context, actorID, userID uuid.UUID) (*users.UserDTO, error) {
	s.lastActor, s.lastTarget = actorID, userID
	return s.profile, s.err
}

func (s *stubUsersService) JobDocument(ctx context.Context, userID uuid.UUID, download bool) (*users.JobDocument, error) {
	s.lastTarget, s.lastDownload = userID, download
	return s.doc, s.err
}

func (s *stubUsersService) Delete(ctx context.Context, actorID, userID uuid.UUID) error {
	s.lastActor, s.lastTarget = actorID, userID
	return s.err
}

type stubContactsService struct {
	contacts.Service
	contact     *models.ContactMessage
	list        *contacts.ListResult
	err         error
	lastSubmit  contacts.SubmitParams
	lastRespond contacts.RespondParams
	lastList    contacts.ListParams
}

func (s *stubContactsService) Submit(ctx context.Context, params contacts.SubmitParams) (*models.ContactMessage, error) {
	s.lastSubmit = params
	return s.contact, s.err
}

func (s *stubContactsService) Respond(ctx context.Context, params contacts.RespondParams) (*models.ContactMessage, error) {
	s.lastRespond = params
	return s.contact, s.err
}

func (s *stubContactsService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.ContactMessage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.ContactMessage{*s.contact}, nil
}

func (s *stubContactsService) List(ctx context.Context, params contacts.ListParams) (*contacts.ListResult, error) {
	s.lastList = params
	return s.list, s.err
}

type stubMessagesService struct {
	messages.Service
	msg       *models.UserMessage
	list      *messages.ListResult
	changed   bool
	err       error
	lastSend  messages.SendPrivateParams
	lastReply messages.ReplyParams
	lastRead  messages.MarkReadParams
	lastInbox messages.InboxParams
}

func (s *stubMessagesService) SendPrivate(ctx context.Context, params messages.SendPrivateParams) (*models.UserMessage, error) {
	s.lastSend = params
	return s.msg, s.err
}

func (s *stubMessagesService) ReplyPrivate(ctx context.Context, params messages.ReplyParams) (*models.UserMessage, error) {
	s.lastReply = params
	return s.msg, s.err
}

func (s *stubMessagesService) MarkRead(ctx context.Context, params messages.MarkReadParams) (bool, error) {
	s.lastRead = params
	return s.changed, s.err
}

func (s *stubMessagesService) ListPrivateInbox(ctx context.Context, params messages.InboxParams) (*messages.ListResult, error) {
	s.lastInbox = params
	return s.list, s.err
}

type stubThreadsService struct {
	threads.Service
	detail        *threads.MessageDetail
	contactDetail *threads.ContactDetail
	inbox         *threads.Inbox
	entries       []threads.Entry
	err           error
	lastUser      uuid.UUID
	lastTarget    uuid.UUID
	lastInbox     threads.InboxParams
}

func (s *stubThreadsService) ViewDetail(ctx context.Context, userID, messageID uuid.UUID) (*threads.MessageDetail, error) {
	s.lastUser, s.lastTarget = userID, messageID
	return s.detail, s.err
}

func (s *stubThreadsService) AdminContactDetail(ctx context.Context, adminID, contactID uuid.UUID) (*threads.ContactDetail, error) {
	s.lastUser, s.lastTarget = adminID, contactID
	return s.contactDetail, s.err
}

func (s *stubThreadsService) AdminPrivateDetail(ctx context.Context, adminID, messageID uuid.UUID) (*threads.MessageDetail, error) {
	s.lastUser, s.lastTarget = adminID, messageID
	return s.detail, s.err
}

func (s *stubThreadsService) Inbox(ctx context.Context, params threads.InboxParams) (*threads.Inbox, error) {
	s.lastInbox = params
	return s.inbox, s.err
}

func (s *stubThreadsService) BuildConversation(ctx context.Context, userID uuid.UUID) ([]threads.Entry, error) {
	s.lastUser = userID
	return s.entries, s.err
}

type stubNotificationsService struct {
	unread   int64
	summary  *notifications.Summary
	overview *notifications.Overview
	err      error
	lastUser uuid.UUID
}

func (s *stubNotificationsService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.lastUser = userID
	return s.unread, s.err
}

func (s *stubNotificationsService) Summary(ctx context.Context, userID uuid.UUID) (*notifications.Summary, error) {
	s.lastUser = userID
	return s.summary, s.err
}

func (s *stubNotificationsService) AdminOverview(ctx context.Context) (*notifications.Overview, error) {
	return s.overview, s.err
}

func sampleMessage(userID uuid.UUID, fromAdmin bool) *models.UserMessage {
	return &models.UserMessage{
		ID:          uuid.New(),
		UserID:      userID,
		Kind:        "private",
		IsFromAdmin: fromAdmin,
		Subject:     "سوال",
		Content:     "متن سوال",
		CreatedAt:   time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}

func sampleContact(userID uuid.UUID) *models.ContactMessage {
	return &models.ContactMessage{
		ID:        uuid.New(),
		UserID:    userID,
		Subject:   "سوال",
		Message:   "متن سوال",
		Status:    "pending",
		CreatedAt: time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}
