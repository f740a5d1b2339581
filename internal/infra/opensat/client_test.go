package opensat

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"satprep-service/internal/domain"
)

const mathBody = `[
	{
		"id": "m1",
		"domain": "Algebra",
		"difficulty": "Easy",
		"correct_answer": "B",
		"explanation": "Top-level explanation.",
		"question": {
			"paragraph": "Given x + 1 = 3.",
			"question": "What is x?",
			"choices": {"A": "1", "B": "2", "C": "3", "D": "4"}
		}
	}
]`

const englishBody = `[
	{
		"id": "e1",
		"domain": "Craft and Structure",
		"difficulty": "Medium",
		"question": {
			"question": "Pick the best word.",
			"choices": {"A": "a", "B": "b", "C": "c", "D": "d"},
			"correct_answer": "C",
			"explanation": "Nested explanation."
		}
	}
]`

func sectionServer(t *testing.T, math, english string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("section") {
		case "math":
			fmt.Fprint(w, math)
		case "english":
			fmt.Fprint(w, english)
		default:
			http.Error(w, "unknown section", http.StatusBadRequest)
		}
	}))
}

func TestLoadQuestionsBothSections(t *testing.T) {
	server := sectionServer(t, mathBody, englishBody)
	defer server.Close()

	questions, err := NewClient(server.URL).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	math := questions[0]
	if math.ID != "m1" || math.Section != "math" {
		t.Fatalf("unexpected math question: %+v", math)
	}
	if math.Prompt != "What is x?" || math.Paragraph != "Given x + 1 = 3." {
		t.Fatalf("nested prompt not mapped: %+v", math)
	}
	if math.CorrectAnswer != "B" || math.Explanation != "Top-level explanation." {
		t.Fatalf("top-level answer fields not mapped: %+v", math)
	}
	if math.Choices != (domain.Choices{A: "1", B: "2", C: "3", D: "4"}) {
		t.Fatalf("choices not mapped: %+v", math.Choices)
	}

	english := questions[1]
	if english.Section != "english" {
		t.Fatalf("unexpected english section: %+v", english)
	}
	if english.CorrectAnswer != "C" || english.Explanation != "Nested explanation." {
		t.Fatalf("nested answer fields not mapped: %+v", english)
	}
}

func TestLoadQuestionsWrappedShapes(t *testing.T) {
	server := sectionServer(t,
		`{"math": `+mathBody+`}`,
		`{"questions": `+englishBody+`}`,
	)
	defer server.Close()

	questions, err := NewClient(server.URL).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
}

func TestLoadQuestionsUnexpectedKeyFallback(t *testing.T) {
	server := sectionServer(t,
		`{"status": "ok", "data": `+mathBody+`}`,
		`{"items": `+englishBody+`}`,
	)
	defer server.Close()

	questions, err := NewClient(server.URL).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected fallback extraction, got %d questions", len(questions))
	}
}

func TestLoadQuestionsDefaultsMissingAnswer(t *testing.T) {
	body := `[{"id": "x1", "domain": "Algebra", "question": {"question": "?", "choices": {}}}]`
	server := sectionServer(t, body, `[]`)
	defer server.Close()

	questions, err := NewClient(server.URL).LoadQuestions(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "A" {
		t.Fatalf("expected default answer A, got %+v", questions)
	}
}

func TestLoadQuestionsSectionFailureFailsLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("section") == "english" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, mathBody)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL).LoadQuestions(context.Background()); err == nil {
		t.Fatalf("expected load failure when one section errors")
	}
}

func TestExtractListRejectsScalars(t *testing.T) {
	if _, err := extractList([]byte(`{"count": 7, "ok": true}`), "math"); err == nil {
		t.Fatalf("expected no-list error")
	}
	if _, err := extractList([]byte(`"just a string"`), "math"); err == nil {
		t.Fatalf("expected decode error")
	}
}
