package app

import (
	"context"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"satprep-service/internal/domain"
)

// QuestionSource fetches the full question set from a backing store (the
// upstream content API, a redis snapshot, or a static fixture).
type QuestionSource interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// FilterParams narrows the cached snapshot. Empty fields match everything.
type FilterParams struct {
	Section    string
	Domain     string
	Difficulty string
	Limit      int
}

const defaultFilterLimit = 10

// QuestionBank is an in-memory snapshot of all practice questions, fetched
// once and filtered on demand. Load is idempotent; concurrent loads are
// collapsed through singleflight. Filter results are shuffled before
// truncation so repeated calls with the same params give variety; the rand
// is injectable to keep tests deterministic.
type QuestionBank struct {
	source QuestionSource
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu        sync.RWMutex
	questions []domain.Question
	loaded    bool
}

func NewQuestionBank(source QuestionSource) *QuestionBank {
	return NewQuestionBankWithRand(source, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewQuestionBankWithRand allows deterministic shuffle order in tests.
func NewQuestionBankWithRand(source QuestionSource, rnd *rand.Rand) *QuestionBank {
	return &QuestionBank{source: source, rnd: rnd}
}

// Load fetches the snapshot from the source. If a non-empty snapshot already
// exists the reload is skipped. A complete fetch failure is propagated, never
// treated as an empty bank.
func (b *QuestionBank) Load(ctx context.Context) error {
	b.mu.RLock()
	if b.loaded && len(b.questions) > 0 {
		b.mu.RUnlock()
		return nil
	}
	b.mu.RUnlock()

	_, err, _ := b.sf.Do("load", func() (interface{}, error) {
		b.mu.RLock()
		if b.loaded && len(b.questions) > 0 {
			b.mu.RUnlock()
			return nil, nil
		}
		b.mu.RUnlock()

		questions, err := b.source.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.questions = questions
		b.loaded = true
		b.mu.Unlock()
		return nil, nil
	})
	return err
}

// Filter applies section (exact), domain (substring) and difficulty (exact)
// matches, all case-insensitive, then shuffles and truncates to the limit
// (default 10). Fails with ErrBankNotLoaded before any successful Load.
func (b *QuestionBank) Filter(params FilterParams) ([]domain.Question, error) {
	b.mu.RLock()
	if !b.loaded || len(b.questions) == 0 {
		b.mu.RUnlock()
		return nil, domain.ErrBankNotLoaded
	}
	candidates := make([]domain.Question, 0, len(b.questions))
	for _, q := range b.questions {
		if params.Section != "" && !strings.EqualFold(q.Section, params.Section) {
			continue
		}
		if params.Domain != "" && !strings.Contains(strings.ToLower(q.Domain), strings.ToLower(params.Domain)) {
			continue
		}
		if params.Difficulty != "" && !strings.EqualFold(q.Difficulty, params.Difficulty) {
			continue
		}
		candidates = append(candidates, q)
	}
	b.mu.RUnlock()

	b.rndMu.Lock()
	b.rnd.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	b.rndMu.Unlock()

	limit := params.Limit
	if limit <= 0 {
		limit = defaultFilterLimit
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// ByID returns the single matching question.
func (b *QuestionBank) ByID(id string) (domain.Question, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, q := range b.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

// Domains returns the sorted set of distinct domain values observed, empty
// before the snapshot exists.
func (b *QuestionBank) Domains() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.loaded {
		return []string{}
	}
	seen := make(map[string]struct{}, len(b.questions))
	for _, q := range b.questions {
		seen[q.Domain] = struct{}{}
	}
	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// Sections returns the fixed section list.
func (b *QuestionBank) Sections() []string {
	return []string{"math", "english"}
}

// Status reports whether the snapshot exists and how many questions it holds.
func (b *QuestionBank) Status() domain.BankStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.BankStatus{IsCached: b.loaded, Count: len(b.questions)}
}
