// Package memory holds in-memory implementations of the app repositories,
// used by tests and when no postgres is configured.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"satprep-service/internal/domain"
)

// Store is the shared backing state for the in-memory repositories: plain
// maps guarded by one mutex.
type Store struct {
	mu        sync.RWMutex
	users     map[string]*domain.User
	sessions  map[string]*domain.Session
	responses map[string][]domain.Response // keyed by session id
}

func NewStore() *Store {
	return &Store{
		users:     make(map[string]*domain.User),
		sessions:  make(map[string]*domain.Session),
		responses: make(map[string][]domain.Response),
	}
}

// UserRepo implements app.UserRepository.
type UserRepo struct{ store *Store }

func NewUserRepo(store *Store) *UserRepo { return &UserRepo{store: store} }

func (r *UserRepo) Create(_ context.Context, user *domain.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u := *user
	r.store.users[u.ID] = &u
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if u, ok := r.store.users[id]; ok {
		return *u, nil
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.Email != "" && strings.EqualFold(u.Email, email)
	})
}

func (r *UserRepo) GetByUsername(_ context.Context, username string) (domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepo) GetByGoogleID(_ context.Context, googleID string) (domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.GoogleID != "" && u.GoogleID == googleID
	})
}

func (r *UserRepo) find(match func(*domain.User) bool) (domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if match(u) {
			return *u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (r *UserRepo) UpdateName(_ context.Context, id, name string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Name = name
	return nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, id, passwordHash string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *UserRepo) LinkGoogle(_ context.Context, id, googleID, email string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.GoogleID = googleID
	if u.Email == "" && email != "" {
		u.Email = email
	}
	return nil
}

// SessionRepo implements app.SessionRepository.
type SessionRepo struct{ store *Store }

func NewSessionRepo(store *Store) *SessionRepo { return &SessionRepo{store: store} }

func (r *SessionRepo) Create(_ context.Context, session *domain.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sess := *session
	r.store.sessions[sess.ID] = &sess
	return nil
}

func (r *SessionRepo) Get(_ context.Context, id string) (domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if sess, ok := r.store.sessions[id]; ok {
		return *sess, nil
	}
	return domain.Session{}, domain.ErrSessionNotFound
}

func (r *SessionRepo) End(_ context.Context, id string, endTime time.Time, score *float64, totalQuestions, correctAnswers *int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sess, ok := r.store.sessions[id]
	if !ok {
		return domain.ErrSessionNotFound
	}
	sess.EndTime = &endTime
	sess.Score = score
	sess.TotalQuestions = totalQuestions
	sess.CorrectAnswers = correctAnswers
	return nil
}

func (r *SessionRepo) ListByUser(_ context.Context, userID string, limit int) ([]domain.Session, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	sessions := make([]domain.Session, 0)
	for _, sess := range r.store.sessions {
		if sess.UserID == userID {
			sessions = append(sessions, *sess)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.After(sessions[j].StartTime)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// ResponseRepo implements app.ResponseRepository.
type ResponseRepo struct{ store *Store }

func NewResponseRepo(store *Store) *ResponseRepo { return &ResponseRepo{store: store} }

func (r *ResponseRepo) Create(_ context.Context, response *domain.Response) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.responses[response.SessionID] = append(r.store.responses[response.SessionID], *response)
	return nil
}

func (r *ResponseRepo) ListBySession(_ context.Context, sessionID string) ([]domain.Response, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return append([]domain.Response(nil), r.store.responses[sessionID]...), nil
}

// AnalyticsRepo implements app.AnalyticsRepository over the same maps.
type AnalyticsRepo struct{ store *Store }

func NewAnalyticsRepo(store *Store) *AnalyticsRepo { return &AnalyticsRepo{store: store} }

func (r *AnalyticsRepo) UserStats(_ context.Context, userID string) (domain.UserStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stats := domain.UserStats{}
	var scoreSum float64
	var scored int
	for _, sess := range r.store.sessions {
		if sess.UserID != userID || sess.EndTime == nil {
			continue
		}
		stats.TotalSessions++
		if sess.Score != nil {
			scoreSum += *sess.Score
			scored++
		}
		if sess.TotalQuestions != nil {
			stats.TotalQuestionsAnswered += *sess.TotalQuestions
		}
		if sess.CorrectAnswers != nil {
			stats.CorrectAnswers += *sess.CorrectAnswers
		}
	}
	if scored > 0 {
		avg := scoreSum / float64(scored)
		stats.AverageScore = &avg
	}
	return stats, nil
}

func (r *AnalyticsRepo) DomainStats(_ context.Context, userID string) ([]domain.DomainStat, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	totals := make(map[string]*domain.DomainStat)
	for sessionID, responses := range r.store.responses {
		sess, ok := r.store.sessions[sessionID]
		if !ok || sess.UserID != userID {
			continue
		}
		for _, resp := range responses {
			if resp.Domain == "" {
				continue
			}
			stat, ok := totals[resp.Domain]
			if !ok {
				stat = &domain.DomainStat{Domain: resp.Domain}
				totals[resp.Domain] = stat
			}
			stat.Total++
			if resp.IsCorrect {
				stat.Correct++
			}
		}
	}

	stats := make([]domain.DomainStat, 0, len(totals))
	for _, stat := range totals {
		stat.Accuracy = math.Round(float64(stat.Correct)/float64(stat.Total)*1000) / 10
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}
		return stats[i].Domain < stats[j].Domain
	})
	return stats, nil
}
