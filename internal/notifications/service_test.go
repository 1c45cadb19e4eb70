package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/accounts-backend/internal/users"
	"github.com/angelmondragon/accounts-backend/pkg/db/dbtest"
	"github.com/angelmondragon/accounts-backend/pkg/db/models"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/google/uuid"
)

type fakeRepository struct {
	unreadFn func(ctx context.Context, userID uuid.UUID) (int64, error)
	total    int64
	recent   []models.UserMessage
	pending  int64
	private  int64
	limits   []int
}

func (f *fakeRepository) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	if f.unreadFn != nil {
		return f.unreadFn(ctx, userID)
	}
	return 0, nil
}

func (f *fakeRepository) TotalCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	return f.total, nil
}

func (f *fakeRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]models.UserMessage, error) {
	f.limits = append(f.limits, limit)
	return f.recent, nil
}

func (f *fakeRepository) PendingContacts(ctx context.Context) (int64, error) {
	return f.pending, nil
}

func (f *fakeRepository) UnreadPrivateInbox(ctx context.Context) (int64, error) {
	return f.private, nil
}

func (f *fakeRepository) LatestContacts(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	f.limits = append(f.limits, limit)
	return nil, nil
}

func (f *fakeRepository) LatestPrivate(ctx context.Context, limit int) ([]models.UserMessage, error) {
	f.limits = append(f.limits, limit)
	return nil, nil
}

type fakeStats struct {
	stats users.Stats
	err   error
}

func (f fakeStats) Stats(ctx context.Context) (users.Stats, error) {
	return f.stats, f.err
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(nil, fakeStats{}); pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := NewService(&fakeRepository{}, nil); pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestService_UnreadCount(t *testing.T) {
	userID := uuid.New()
	repo := &fakeRepository{
		unreadFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			return 3, nil
		},
	}
	svc, _ := NewService(repo, fakeStats{})

	count, err := svc.UnreadCount(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 unread, got %d", count)
	}

	if _, err := svc.UnreadCount(context.Background(), uuid.Nil); pkgerrors.CodeOf(err) != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestService_UnreadCountWrapsRepositoryErrors(t *testing.T) {
	repo := &fakeRepository{
		unreadFn: func(ctx context.Context, id uuid.UUID) (int64, error) {
			return 0, errors.New("connection reset")
		},
	}
	svc, _ := NewService(repo, fakeStats{})

	_, err := svc.UnreadCount(context.Background(), uuid.New())
	if pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestService_Summary(t *testing.T) {
	repo := &fakeRepository{
		unreadFn: func(ctx context.Context, id uuid.UUID) (int64, error) { return 1, nil },
		total:    4,
	}
	svc, _ := NewService(repo, fakeStats{})

	summary, err := svc.Summary(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Unread != 1 || summary.Total != 4 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if summary.Recent == nil {
		t.Fatal("expected empty recent slice, got nil")
	}
	if len(repo.limits) != 1 || repo.limits[0] != SummaryRecentLimit {
		t.Fatalf("unexpected recent limit %v", repo.limits)
	}
}

func TestService_AdminOverview(t *testing.T) {
	repo := &fakeRepository{pending: 2, private: 5}
	svc, _ := NewService(repo, fakeStats{stats: users.Stats{Total: 7, Staff: 1}})

	overview, err := svc.AdminOverview(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overview.Users.Total != 7 || overview.PendingCount != 2 || overview.UnreadPrivate != 5 {
		t.Fatalf("unexpected overview %+v", overview)
	}
	if overview.Contacts == nil || overview.PrivateMessages == nil {
		t.Fatal("expected empty lists, got nil")
	}
	for _, limit := range repo.limits {
		if limit != OverviewListLimit {
			t.Fatalf("unexpected list limit %d", limit)
		}
	}

	failing, _ := NewService(repo, fakeStats{err: errors.New("boom")})
	if _, err := failing.AdminOverview(context.Background()); pkgerrors.CodeOf(err) != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestRepositoryCountsReflectWrites(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	user := &models.User{
		Username:     "reader",
		Email:        "reader@example.com",
		PasswordHash: "hash",
		FirstName:    "Reader",
		LastName:     "Tester",
		NationalCode: "0000000011",
		UserType:     enums.UserTypeNormal,
		IsActive:     true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		msg := &models.UserMessage{
			UserID:      user.ID,
			IsFromAdmin: i%2 == 0,
			IsRead:      i%2 == 1,
			Kind:        enums.MessageKindPrivate,
			Subject:     "s",
			Content:     "c",
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if err := conn.Create(msg).Error; err != nil {
			t.Fatalf("seed message: %v", err)
		}
	}

	unread, err := repo.UnreadCount(ctx, user.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 4 {
		t.Fatalf("expected 4 unread, got %d", unread)
	}

	if err := conn.Model(&models.UserMessage{}).
		Where("user_id = ? AND is_from_admin = ?", user.ID, true).
		Update("is_read", true).Error; err != nil {
		t.Fatalf("mark read: %v", err)
	}
	unread, err = repo.UnreadCount(ctx, user.ID)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 0 {
		t.Fatalf("expected 0 unread after marking, got %d", unread)
	}

	total, err := repo.TotalCount(ctx, user.ID)
	if err != nil || total != 7 {
		t.Fatalf("expected 7 total, got %d (%v)", total, err)
	}
	recent, err := repo.Recent(ctx, user.ID, SummaryRecentLimit)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != SummaryRecentLimit {
		t.Fatalf("expected %d recent, got %d", SummaryRecentLimit, len(recent))
	}
	if !recent[0].CreatedAt.Equal(base.Add(6 * time.Minute)) {
		t.Fatalf("expected newest message first, got %s", recent[0].CreatedAt)
	}

	private, err := repo.LatestPrivate(ctx, OverviewListLimit)
	if err != nil {
		t.Fatalf("latest private: %v", err)
	}
	if len(private) != 3 {
		t.Fatalf("expected 3 user-originated messages, got %d", len(private))
	}
}
