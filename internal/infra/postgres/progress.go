package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"satprep-service/internal/domain"
)

// SessionRepo implements app.SessionRepository over the sessions table.
type SessionRepo struct {
	db *bun.DB
}

func NewSessionRepo(db *bun.DB) *SessionRepo { return &SessionRepo{db: db} }

func (r *SessionRepo) Create(ctx context.Context, session *domain.Session) error {
	if _, err := r.db.NewInsert().Model(session).Exec(ctx); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	session := domain.Session{}
	err := r.db.NewSelect().Model(&session).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *SessionRepo) End(ctx context.Context, id string, endTime time.Time, score *float64, totalQuestions, correctAnswers *int) error {
	res, err := r.db.NewUpdate().
		Model((*domain.Session)(nil)).
		Set("end_time = ?", endTime).
		Set("score = ?", score).
		Set("total_questions = ?", totalQuestions).
		Set("correct_answers = ?", correctAnswers).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepo) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Session, error) {
	sessions := make([]domain.Session, 0, limit)
	err := r.db.NewSelect().
		Model(&sessions).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ResponseRepo implements app.ResponseRepository over the responses table.
type ResponseRepo struct {
	db *bun.DB
}

func NewResponseRepo(db *bun.DB) *ResponseRepo { return &ResponseRepo{db: db} }

func (r *ResponseRepo) Create(ctx context.Context, response *domain.Response) error {
	if _, err := r.db.NewInsert().Model(response).Exec(ctx); err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (r *ResponseRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Response, error) {
	responses := make([]domain.Response, 0)
	err := r.db.NewSelect().
		Model(&responses).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	return responses, nil
}
