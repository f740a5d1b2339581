package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"satprep-service/internal/domain"
)

// SessionRepository persists practice sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	End(ctx context.Context, id string, endTime time.Time, score *float64, totalQuestions, correctAnswers *int) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Session, error)
}

// ResponseRepository persists per-question responses, append-only.
type ResponseRepository interface {
	Create(ctx context.Context, response *domain.Response) error
	ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error)
}

// AnalyticsRepository serves the read-only aggregations. Both are recomputed
// on every request; there is no caching layer.
type AnalyticsRepository interface {
	UserStats(ctx context.Context, userID string) (domain.UserStats, error)
	DomainStats(ctx context.Context, userID string) ([]domain.DomainStat, error)
}

// UserProgress bundles a user's recent sessions with their aggregate stats.
type UserProgress struct {
	Sessions []domain.Session `json:"sessions"`
	Stats    domain.UserStats `json:"stats"`
}

// ProgressService contains the server-side progress-tracking use cases.
type ProgressService struct {
	users     UserRepository
	sessions  SessionRepository
	responses ResponseRepository
	analytics AnalyticsRepository
}

func NewProgressService(users UserRepository, sessions SessionRepository, responses ResponseRepository, analytics AnalyticsRepository) *ProgressService {
	return &ProgressService{users: users, sessions: sessions, responses: responses, analytics: analytics}
}

// GetOrCreateUser ensures an account row exists for the token's identity.
// Kept for clients that predate registration; the JWT user id is
// authoritative.
func (s *ProgressService) GetOrCreateUser(ctx context.Context, userID, name string) (domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return domain.User{}, fmt.Errorf("looking up user: %w", err)
	}
	if name == "" {
		name = "Anonymous"
	}
	user = domain.User{
		ID:        userID,
		Name:      name,
		Username:  userID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return domain.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// StartSession creates a session row for the user in the given mode.
func (s *ProgressService) StartSession(ctx context.Context, userID string, mode domain.Mode) (domain.Session, error) {
	if !mode.Valid() {
		return domain.Session{}, fmt.Errorf("invalid mode %q", mode)
	}
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Mode:      mode,
		StartTime: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return domain.Session{}, fmt.Errorf("creating session: %w", err)
	}
	return session, nil
}

// EndSession finalizes a session with its optional tally. Sessions are
// mutated exactly once, at completion.
func (s *ProgressService) EndSession(ctx context.Context, sessionID string, score *float64, totalQuestions, correctAnswers *int) error {
	return s.sessions.End(ctx, sessionID, time.Now().UTC(), score, totalQuestions, correctAnswers)
}

// RecordResponse appends one response row. The submitted answer is nil for
// skipped questions; section and domain are denormalized for analytics.
func (s *ProgressService) RecordResponse(ctx context.Context, response domain.Response) (domain.Response, error) {
	response.ID = uuid.NewString()
	response.CreatedAt = time.Now().UTC()
	if err := s.responses.Create(ctx, &response); err != nil {
		return domain.Response{}, fmt.Errorf("recording response: %w", err)
	}
	return response, nil
}

// SessionResponses returns a session's responses in insertion order.
func (s *ProgressService) SessionResponses(ctx context.Context, sessionID string) ([]domain.Response, error) {
	return s.responses.ListBySession(ctx, sessionID)
}

// UserProgress returns the user's most recent sessions plus aggregate stats.
func (s *ProgressService) UserProgress(ctx context.Context, userID string, limit int) (UserProgress, error) {
	if limit <= 0 {
		limit = 10
	}
	sessions, err := s.sessions.ListByUser(ctx, userID, limit)
	if err != nil {
		return UserProgress{}, fmt.Errorf("listing sessions: %w", err)
	}
	stats, err := s.analytics.UserStats(ctx, userID)
	if err != nil {
		return UserProgress{}, fmt.Errorf("aggregating stats: %w", err)
	}
	return UserProgress{Sessions: sessions, Stats: stats}, nil
}

// DomainAnalytics returns per-domain accuracy over the user's recorded
// responses, descending by volume.
func (s *ProgressService) DomainAnalytics(ctx context.Context, userID string) ([]domain.DomainStat, error) {
	return s.analytics.DomainStats(ctx, userID)
}
