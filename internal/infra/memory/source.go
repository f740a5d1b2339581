package memory

import (
	"context"

	"satprep-service/internal/domain"
)

// StaticSource is a question source backed by a fixed slice (useful for
// tests/demos and the no-database server path).
type StaticSource struct {
	questions []domain.Question
}

func NewStaticSource(questions []domain.Question) *StaticSource {
	return &StaticSource{questions: questions}
}

func (s *StaticSource) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	return append([]domain.Question(nil), s.questions...), nil
}
