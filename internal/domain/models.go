package domain

import (
	"time"

	"github.com/uptrace/bun"
)

// Mode identifies how a practice session is run.
type Mode string

const (
	ModeStudy Mode = "study"
	ModeQuiz  Mode = "quiz"
	ModeTest  Mode = "test"
)

// Valid reports whether the mode is one of the three supported modes.
func (m Mode) Valid() bool {
	return m == ModeStudy || m == ModeQuiz || m == ModeTest
}

// Choices holds the four labeled answer options of a question.
type Choices struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Visual is an optional attachment rendered alongside a question.
type Visual struct {
	Type       string `json:"type"`
	SVGContent string `json:"svg_content"`
}

// Question is one SAT practice question. Immutable once loaded into the bank.
type Question struct {
	ID            string  `json:"id"`
	Section       string  `json:"section"` // "math" or "english"
	Domain        string  `json:"domain"`
	Difficulty    string  `json:"difficulty"` // Easy | Medium | Hard
	Paragraph     string  `json:"paragraph,omitempty"`
	Prompt        string  `json:"question"`
	Choices       Choices `json:"choices"`
	CorrectAnswer string  `json:"correct_answer"` // A | B | C | D
	Explanation   string  `json:"explanation"`
	Visual        *Visual `json:"visuals,omitempty"`
}

// User is an account row.
type User struct {
	bun.BaseModel `bun:"table:users" json:"-"`

	ID           string    `bun:"id,pk" json:"id"`
	Name         string    `bun:"name" json:"name"`
	Username     string    `bun:"username" json:"username"`
	Email        string    `bun:"email,nullzero" json:"email,omitempty"`
	PasswordHash string    `bun:"password_hash,nullzero" json:"-"`
	GoogleID     string    `bun:"google_id,nullzero" json:"-"`
	CreatedAt    time.Time `bun:"created_at,nullzero,default:now()" json:"created_at"`
}

// GoogleLinked reports whether the account is linked to a Google identity.
func (u User) GoogleLinked() bool { return u.GoogleID != "" }

// Session is one practice attempt, persisted when a mode controller starts
// and finalized once at completion.
type Session struct {
	bun.BaseModel `bun:"table:sessions" json:"-"`

	ID             string     `bun:"id,pk" json:"id"`
	UserID         string     `bun:"user_id" json:"user_id"`
	Mode           Mode       `bun:"mode" json:"mode"`
	StartTime      time.Time  `bun:"start_time" json:"start_time"`
	EndTime        *time.Time `bun:"end_time" json:"end_time,omitempty"`
	Score          *float64   `bun:"score" json:"score,omitempty"`
	TotalQuestions *int       `bun:"total_questions" json:"total_questions,omitempty"`
	CorrectAnswers *int       `bun:"correct_answers" json:"correct_answers,omitempty"`
}

// Response is a single recorded answer (or skip) within a session.
// Append-only; insertion order defines the question sequence for review.
type Response struct {
	bun.BaseModel `bun:"table:responses" json:"-"`

	ID               string    `bun:"id,pk" json:"id"`
	SessionID        string    `bun:"session_id" json:"session_id"`
	QuestionID       string    `bun:"question_id" json:"question_id"`
	UserAnswer       *string   `bun:"user_answer" json:"user_answer"` // nil when skipped
	CorrectAnswer    string    `bun:"correct_answer" json:"correct_answer"`
	IsCorrect        bool      `bun:"is_correct" json:"is_correct"`
	TimeSpentSeconds *int      `bun:"time_spent_seconds" json:"time_spent_seconds,omitempty"`
	Section          string    `bun:"section,nullzero" json:"section,omitempty"`
	Domain           string    `bun:"domain,nullzero" json:"domain,omitempty"`
	CreatedAt        time.Time `bun:"created_at,nullzero,default:now()" json:"-"`
}

// UserStats aggregates a user's ended sessions.
type UserStats struct {
	TotalSessions          int      `json:"totalSessions"`
	AverageScore           *float64 `json:"averageScore"`
	TotalQuestionsAnswered int      `json:"totalQuestionsAnswered"`
	CorrectAnswers         int      `json:"correctAnswers"`
}

// DomainStat is one row of the per-domain accuracy aggregation.
type DomainStat struct {
	Domain   string  `json:"domain"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"` // percentage, one decimal
}

// BankStatus reports whether the question bank snapshot has been loaded.
type BankStatus struct {
	IsCached bool `json:"isCached"`
	Count    int  `json:"count"`
}
