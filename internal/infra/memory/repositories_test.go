package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"satprep-service/internal/domain"
)

func TestUserRepoLookups(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	repo := NewUserRepo(store)

	user := domain.User{ID: "u1", Name: "Alex", Username: "alex", Email: "alex@example.com"}
	if err := repo.Create(ctx, &user); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetByID(ctx, "u1"); err != nil {
		t.Fatalf("by id: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, "ALEX@EXAMPLE.COM"); err != nil {
		t.Fatalf("expected case-insensitive email match: %v", err)
	}
	if _, err := repo.GetByUsername(ctx, "alex"); err != nil {
		t.Fatalf("by username: %v", err)
	}
	if _, err := repo.GetByID(ctx, "nope"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// Accounts without email never match an empty-email lookup.
	if err := repo.Create(ctx, &domain.User{ID: "u2", Username: "noemail"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.GetByEmail(ctx, ""); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected no match on empty email, got %v", err)
	}
}

func TestUserRepoLinkGoogleFillsEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(NewStore())

	if err := repo.Create(ctx, &domain.User{ID: "u1", Username: "legacy"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.LinkGoogle(ctx, "u1", "google-1", "legacy@example.com"); err != nil {
		t.Fatalf("link: %v", err)
	}

	user, err := repo.GetByGoogleID(ctx, "google-1")
	if err != nil {
		t.Fatalf("by google id: %v", err)
	}
	if user.Email != "legacy@example.com" {
		t.Fatalf("expected email filled, got %q", user.Email)
	}

	// An existing email is never overwritten by the link.
	if err := repo.LinkGoogle(ctx, "u1", "google-1", "other@example.com"); err != nil {
		t.Fatalf("relink: %v", err)
	}
	user, _ = repo.GetByID(ctx, "u1")
	if user.Email != "legacy@example.com" {
		t.Fatalf("expected email preserved, got %q", user.Email)
	}
}

func TestUserRepoCopiesOnWriteAndRead(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(NewStore())

	user := domain.User{ID: "u1", Name: "Before"}
	if err := repo.Create(ctx, &user); err != nil {
		t.Fatalf("create: %v", err)
	}
	user.Name = "After"

	stored, err := repo.GetByID(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Name != "Before" {
		t.Fatalf("caller mutation leaked into store: %s", stored.Name)
	}
}

func TestSessionRepoEndAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepo(NewStore())

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		session := domain.Session{
			ID:        fmt.Sprintf("s%d", i),
			UserID:    "u1",
			Mode:      domain.ModeQuiz,
			StartTime: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(ctx, &session); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	score := 80.0
	total, correct := 10, 8
	if err := repo.End(ctx, "s2", base.Add(time.Hour), &score, &total, &correct); err != nil {
		t.Fatalf("end: %v", err)
	}
	if err := repo.End(ctx, "missing", base, nil, nil, nil); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}

	ended, err := repo.Get(ctx, "s2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ended.EndTime == nil || ended.Score == nil || *ended.Score != 80 {
		t.Fatalf("end not applied: %+v", ended)
	}

	sessions, err := repo.ListByUser(ctx, "u1", 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected limit 3, got %d", len(sessions))
	}
	if sessions[0].ID != "s4" || sessions[1].ID != "s3" {
		t.Fatalf("expected newest first, got %s, %s", sessions[0].ID, sessions[1].ID)
	}
}

func TestResponseRepoInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewResponseRepo(NewStore())

	for i := 0; i < 3; i++ {
		if err := repo.Create(ctx, &domain.Response{
			ID:         fmt.Sprintf("r%d", i),
			SessionID:  "s1",
			QuestionID: fmt.Sprintf("q%d", i),
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	responses, err := repo.ListBySession(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(responses) != 3 || responses[0].ID != "r0" || responses[2].ID != "r2" {
		t.Fatalf("unexpected order: %+v", responses)
	}

	empty, err := repo.ListBySession(ctx, "other")
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty list, got %d", len(empty))
	}
}

func TestAnalyticsRepoScopedToUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	sessions := NewSessionRepo(store)
	responses := NewResponseRepo(store)
	analytics := NewAnalyticsRepo(store)

	now := time.Now().UTC()
	score := 90.0
	total, correct := 10, 9
	mine := domain.Session{ID: "mine", UserID: "u1", Mode: domain.ModeTest, StartTime: now}
	theirs := domain.Session{ID: "theirs", UserID: "u2", Mode: domain.ModeTest, StartTime: now}
	for _, s := range []*domain.Session{&mine, &theirs} {
		if err := sessions.Create(ctx, s); err != nil {
			t.Fatalf("create: %v", err)
		}
		if err := sessions.End(ctx, s.ID, now, &score, &total, &correct); err != nil {
			t.Fatalf("end: %v", err)
		}
	}
	for _, sessionID := range []string{"mine", "theirs"} {
		if err := responses.Create(ctx, &domain.Response{
			SessionID: sessionID, QuestionID: "q1", IsCorrect: true, Domain: "Algebra",
		}); err != nil {
			t.Fatalf("response: %v", err)
		}
	}

	stats, err := analytics.UserStats(ctx, "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSessions != 1 || stats.CorrectAnswers != 9 {
		t.Fatalf("expected only u1's sessions, got %+v", stats)
	}

	byDomain, err := analytics.DomainStats(ctx, "u1")
	if err != nil {
		t.Fatalf("domain stats: %v", err)
	}
	if len(byDomain) != 1 || byDomain[0].Total != 1 {
		t.Fatalf("expected only u1's responses, got %+v", byDomain)
	}
}
