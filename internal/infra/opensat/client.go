// Package opensat fetches the question bank from the upstream content API.
package opensat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"satprep-service/internal/domain"
)

// Client loads both sections from the upstream API. It implements
// app.QuestionSource.
type Client struct {
	baseURL string
	httpc   *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// LoadQuestions fetches the math and english sections concurrently. Either
// section failing fails the whole load.
func (c *Client) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	var math, english []domain.Question

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		math, err = c.fetchSection(ctx, "math")
		return err
	})
	g.Go(func() (err error) {
		english, err = c.fetchSection(ctx, "english")
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("loaded %d math + %d english questions from upstream", len(math), len(english))
	return append(math, english...), nil
}

func (c *Client) fetchSection(ctx context.Context, section string) ([]domain.Question, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?section="+section, nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", section, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s section: %w", section, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s section: upstream status %d", section, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s body: %w", section, err)
	}

	raw, err := extractList(body, section)
	if err != nil {
		return nil, fmt.Errorf("decoding %s section: %w", section, err)
	}

	questions := make([]domain.Question, 0, len(raw))
	for _, w := range raw {
		questions = append(questions, w.toDomain(section))
	}
	return questions, nil
}

// wireQuestion is the upstream payload shape: metadata at the top level, the
// prompt and choices nested under "question". Some dumps flatten
// correct_answer and explanation into the nested object instead.
type wireQuestion struct {
	ID            string `json:"id"`
	Domain        string `json:"domain"`
	Difficulty    string `json:"difficulty"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
	Question      struct {
		Paragraph     string         `json:"paragraph"`
		Question      string         `json:"question"`
		Choices       domain.Choices `json:"choices"`
		CorrectAnswer string         `json:"correct_answer"`
		Explanation   string         `json:"explanation"`
	} `json:"question"`
	Visuals *domain.Visual `json:"visuals"`
}

func (w wireQuestion) toDomain(section string) domain.Question {
	correct := w.CorrectAnswer
	if correct == "" {
		correct = w.Question.CorrectAnswer
	}
	if correct == "" {
		correct = "A"
	}
	explanation := w.Explanation
	if explanation == "" {
		explanation = w.Question.Explanation
	}
	return domain.Question{
		ID:            w.ID,
		Section:       section,
		Domain:        w.Domain,
		Difficulty:    w.Difficulty,
		Paragraph:     w.Question.Paragraph,
		Prompt:        w.Question.Question,
		Choices:       w.Question.Choices,
		CorrectAnswer: correct,
		Explanation:   explanation,
		Visual:        w.Visuals,
	}
}

// extractList tolerates the upstream's response shapes in a fixed fallback
// order: a bare list, an object keyed by the section name, an object with a
// generic "questions" key, and finally any top-level list value. The last
// fallback is a correctness smell and is logged when taken.
func extractList(body []byte, section string) ([]wireQuestion, error) {
	var list []wireQuestion
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("response is neither a list nor an object: %w", err)
	}

	for _, key := range []string{section, "questions"} {
		if raw, ok := wrapper[key]; ok {
			if err := json.Unmarshal(raw, &list); err == nil {
				return list, nil
			}
		}
	}

	// Keys are scanned in sorted order so the fallback is at least stable.
	keys := make([]string, 0, len(wrapper))
	for k := range wrapper {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := json.Unmarshal(wrapper[k], &list); err == nil {
			log.Printf("opensat: extracted %s questions from unexpected key %q", section, k)
			return list, nil
		}
	}
	return nil, fmt.Errorf("no question list found in %s response", section)
}
