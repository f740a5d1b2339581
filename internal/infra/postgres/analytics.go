package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"satprep-service/internal/domain"
)

// AnalyticsRepo runs the read-only aggregations as raw SQL through a pgx
// pool. Both queries are recomputed per request.
type AnalyticsRepo struct {
	pool *pgxpool.Pool
}

func NewAnalyticsRepo(pool *pgxpool.Pool) *AnalyticsRepo { return &AnalyticsRepo{pool: pool} }

func (r *AnalyticsRepo) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	stats := domain.UserStats{}
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       AVG(score),
		       COALESCE(SUM(total_questions), 0),
		       COALESCE(SUM(correct_answers), 0)
		FROM sessions
		WHERE user_id = $1 AND end_time IS NOT NULL`, userID).
		Scan(&stats.TotalSessions, &stats.AverageScore, &stats.TotalQuestionsAnswered, &stats.CorrectAnswers)
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return stats, nil
}

func (r *AnalyticsRepo) DomainStats(ctx context.Context, userID string) ([]domain.DomainStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.domain,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE r.is_correct),
		       ROUND(100.0 * COUNT(*) FILTER (WHERE r.is_correct) / COUNT(*), 1)
		FROM responses r
		JOIN sessions s ON s.id = r.session_id
		WHERE s.user_id = $1 AND r.domain IS NOT NULL
		GROUP BY r.domain
		ORDER BY COUNT(*) DESC, r.domain ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("domain stats: %w", err)
	}
	defer rows.Close()

	stats := make([]domain.DomainStat, 0)
	for rows.Next() {
		stat := domain.DomainStat{}
		if err := rows.Scan(&stat.Domain, &stat.Total, &stat.Correct, &stat.Accuracy); err != nil {
			return nil, fmt.Errorf("scan domain stat: %w", err)
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}
