package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"satprep-service/internal/domain"
	"satprep-service/internal/infra/memory"
)

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{ID: "m1", Section: "math", Domain: "Algebra", Difficulty: "Easy", CorrectAnswer: "B"},
		{ID: "e1", Section: "english", Domain: "Craft and Structure", Difficulty: "Medium", CorrectAnswer: "C"},
	}
}

type countingSource struct {
	inner *memory.StaticSource
	calls int
}

func (s *countingSource) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	s.calls++
	return s.inner.LoadQuestions(ctx)
}

func TestSnapshotCacheFillsAndHits(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := &countingSource{inner: memory.NewStaticSource(sampleQuestions())}
	cache := NewSnapshotCache(newClient(mr), source, time.Minute)

	questions, err := cache.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if source.calls != 1 {
		t.Fatalf("expected one upstream fetch, got %d", source.calls)
	}
	if !mr.Exists(snapshotKey) {
		t.Fatalf("expected snapshot written to redis")
	}

	// Second load is served from redis.
	again, err := cache.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if len(again) != 2 || source.calls != 1 {
		t.Fatalf("expected cache hit, calls=%d", source.calls)
	}
}

func TestSnapshotCacheRefillsAfterExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	source := &countingSource{inner: memory.NewStaticSource(sampleQuestions())}
	cache := NewSnapshotCache(newClient(mr), source, time.Minute)

	if _, err := cache.LoadQuestions(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	mr.FastForward(2 * time.Minute)

	if _, err := cache.LoadQuestions(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected refetch after expiry, calls=%d", source.calls)
	}
}

func TestSnapshotCacheIgnoresCorruptValue(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set(snapshotKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	source := &countingSource{inner: memory.NewStaticSource(sampleQuestions())}
	cache := NewSnapshotCache(newClient(mr), source, time.Minute)

	questions, err := cache.LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 || source.calls != 1 {
		t.Fatalf("expected fall through to source, calls=%d", source.calls)
	}
}

func TestSnapshotCacheSourceFailurePropagates(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cache := NewSnapshotCache(newClient(mr), &failingSource{}, time.Minute)
	if _, err := cache.LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected source error to propagate")
	}
	if mr.Exists(snapshotKey) {
		t.Fatalf("expected no snapshot written on failure")
	}
}

type failingSource struct{}

func (f *failingSource) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	return nil, errors.New("upstream down")
}
