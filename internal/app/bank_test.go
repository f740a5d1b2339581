package app_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"satprep-service/internal/app"
	"satprep-service/internal/domain"
	"satprep-service/internal/infra/memory"
)

func bankQuestions() []domain.Question {
	return []domain.Question{
		{ID: "m1", Section: "math", Domain: "Algebra", Difficulty: "Easy", CorrectAnswer: "A"},
		{ID: "m2", Section: "math", Domain: "Algebra", Difficulty: "Hard", CorrectAnswer: "B"},
		{ID: "m3", Section: "math", Domain: "Advanced Math", Difficulty: "Medium", CorrectAnswer: "C"},
		{ID: "e1", Section: "english", Domain: "Craft and Structure", Difficulty: "Easy", CorrectAnswer: "D"},
		{ID: "e2", Section: "english", Domain: "Information and Ideas", Difficulty: "Medium", CorrectAnswer: "A"},
	}
}

func loadedBank(t *testing.T) *app.QuestionBank {
	t.Helper()
	bank := app.NewQuestionBankWithRand(memory.NewStaticSource(bankQuestions()), rand.New(rand.NewSource(1)))
	if err := bank.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return bank
}

func TestBankFilterBeforeLoadFails(t *testing.T) {
	bank := app.NewQuestionBank(memory.NewStaticSource(bankQuestions()))
	if _, err := bank.Filter(app.FilterParams{}); !errors.Is(err, domain.ErrBankNotLoaded) {
		t.Fatalf("expected ErrBankNotLoaded, got %v", err)
	}
}

func TestBankLoadFailurePropagates(t *testing.T) {
	bank := app.NewQuestionBank(&failingSource{})
	if err := bank.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if _, err := bank.Filter(app.FilterParams{}); !errors.Is(err, domain.ErrBankNotLoaded) {
		t.Fatalf("expected bank to stay unloaded, got %v", err)
	}
}

func TestBankLoadIsIdempotent(t *testing.T) {
	source := &countingSource{inner: memory.NewStaticSource(bankQuestions())}
	bank := app.NewQuestionBank(source)

	for i := 0; i < 3; i++ {
		if err := bank.Load(context.Background()); err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", source.calls)
	}
}

func TestBankFilterMatchesAllOnEmptyParams(t *testing.T) {
	bank := loadedBank(t)
	questions, err := bank.Filter(app.FilterParams{Limit: 100})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(questions) != 5 {
		t.Fatalf("expected all 5 questions, got %d", len(questions))
	}
}

func TestBankFilterSectionAndDifficulty(t *testing.T) {
	bank := loadedBank(t)

	math, err := bank.Filter(app.FilterParams{Section: "MATH", Limit: 100})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(math) != 3 {
		t.Fatalf("expected 3 math questions, got %d", len(math))
	}
	for _, q := range math {
		if q.Section != "math" {
			t.Fatalf("unexpected section %s", q.Section)
		}
	}

	easy, err := bank.Filter(app.FilterParams{Difficulty: "easy", Limit: 100})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(easy) != 2 {
		t.Fatalf("expected 2 easy questions, got %d", len(easy))
	}
}

func TestBankFilterDomainSubstring(t *testing.T) {
	bank := loadedBank(t)
	questions, err := bank.Filter(app.FilterParams{Domain: "math", Limit: 100})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(questions) != 1 || questions[0].ID != "m3" {
		t.Fatalf("expected the Advanced Math question, got %+v", questions)
	}
}

func TestBankFilterDefaultLimit(t *testing.T) {
	many := make([]domain.Question, 0, 25)
	for i := 0; i < 25; i++ {
		many = append(many, domain.Question{ID: string(rune('a' + i)), Section: "math", Domain: "Algebra"})
	}
	bank := app.NewQuestionBankWithRand(memory.NewStaticSource(many), rand.New(rand.NewSource(7)))
	if err := bank.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	questions, err := bank.Filter(app.FilterParams{})
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(questions) != 10 {
		t.Fatalf("expected default limit 10, got %d", len(questions))
	}
}

func TestBankByID(t *testing.T) {
	bank := loadedBank(t)
	question, err := bank.ByID("e1")
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if question.Domain != "Craft and Structure" {
		t.Fatalf("wrong question: %+v", question)
	}
	if _, err := bank.ByID("nope"); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestBankDomainsSortedDistinct(t *testing.T) {
	bank := loadedBank(t)
	domains := bank.Domains()
	expected := []string{"Advanced Math", "Algebra", "Craft and Structure", "Information and Ideas"}
	if len(domains) != len(expected) {
		t.Fatalf("expected %d domains, got %v", len(expected), domains)
	}
	for i := range expected {
		if domains[i] != expected[i] {
			t.Fatalf("expected %v, got %v", expected, domains)
		}
	}
}

func TestBankStatus(t *testing.T) {
	bank := app.NewQuestionBank(memory.NewStaticSource(bankQuestions()))
	if status := bank.Status(); status.IsCached || status.Count != 0 {
		t.Fatalf("expected empty status, got %+v", status)
	}
	if err := bank.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if status := bank.Status(); !status.IsCached || status.Count != 5 {
		t.Fatalf("expected cached status with 5, got %+v", status)
	}
}

type failingSource struct{}

func (f *failingSource) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	return nil, errors.New("upstream down")
}

type countingSource struct {
	inner *memory.StaticSource
	calls int
}

func (s *countingSource) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	s.calls++
	return s.inner.LoadQuestions(ctx)
}
