package app

import (
	"sync"

	"satprep-service/internal/domain"
)

// ResponseEntry is one in-memory recorded answer within an assessment.
type ResponseEntry struct {
	QuestionID       string  `json:"questionId"`
	UserAnswer       *string `json:"userAnswer"` // nil when skipped
	IsCorrect        bool    `json:"isCorrect"`
	TimeSpentSeconds int     `json:"timeSpentSeconds"`
}

// AssessmentState holds the transient state of one active practice session:
// the ordered question list, the current position, the recorded responses and
// the timer's last reported remaining seconds. Mode controllers own one
// instance each and drive it; entries are append-only, so recording twice for
// the same question double-counts.
type AssessmentState struct {
	mu            sync.RWMutex
	sessionID     string
	userID        string
	mode          domain.Mode
	questions     []domain.Question
	index         int
	responses     []ResponseEntry
	timeRemaining int
}

func NewAssessmentState() *AssessmentState {
	return &AssessmentState{}
}

// Initialize starts a fresh session context for the user, clearing responses
// and position. Questions are installed separately via SetQuestions.
func (a *AssessmentState) Initialize(userID string, mode domain.Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userID = userID
	a.mode = mode
	a.responses = nil
	a.index = 0
	a.timeRemaining = 0
}

// SetSessionID attaches the persisted session identifier.
func (a *AssessmentState) SetSessionID(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = id
}

func (a *AssessmentState) SessionID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sessionID
}

func (a *AssessmentState) UserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID
}

func (a *AssessmentState) Mode() domain.Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

// SetQuestions installs the ordered question list and resets the position.
func (a *AssessmentState) SetQuestions(questions []domain.Question) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.questions = append([]domain.Question(nil), questions...)
	a.index = 0
}

// Questions returns a copy of the installed question list.
func (a *AssessmentState) Questions() []domain.Question {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]domain.Question(nil), a.questions...)
}

// RecordResponse appends one entry. Prior entries for the same question are
// never removed or overwritten.
func (a *AssessmentState) RecordResponse(entry ResponseEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.responses = append(a.responses, entry)
}

// Responses returns a copy of the recorded entries in insertion order.
func (a *AssessmentState) Responses() []ResponseEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]ResponseEntry(nil), a.responses...)
}

// Advance moves the position forward by one, clamped to the last index.
func (a *AssessmentState) Advance() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.index < len(a.questions)-1 {
		a.index++
	}
}

// JumpTo moves to an arbitrary index; out-of-bounds indices are ignored.
func (a *AssessmentState) JumpTo(index int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index >= 0 && index < len(a.questions) {
		a.index = index
	}
}

// CurrentIndex returns the zero-based position.
func (a *AssessmentState) CurrentIndex() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.index
}

// CurrentQuestion returns the question at the current position, or false if
// the list is empty or the index is out of range.
func (a *AssessmentState) CurrentQuestion() (domain.Question, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.index < 0 || a.index >= len(a.questions) {
		return domain.Question{}, false
	}
	return a.questions[a.index], true
}

// Progress returns the one-based position and the total question count.
func (a *AssessmentState) Progress() (current, total int) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.index + 1, len(a.questions)
}

// CorrectCount counts recorded entries flagged correct, across all entries.
func (a *AssessmentState) CorrectCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	count := 0
	for _, r := range a.responses {
		if r.IsCorrect {
			count++
		}
	}
	return count
}

// ResponseFor returns the first recorded entry for the question, if any.
func (a *AssessmentState) ResponseFor(questionID string) (ResponseEntry, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, r := range a.responses {
		if r.QuestionID == questionID {
			return r, true
		}
	}
	return ResponseEntry{}, false
}

// UpdateTimeRemaining records the timer's latest remaining seconds, floored
// at zero.
func (a *AssessmentState) UpdateTimeRemaining(seconds int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if seconds < 0 {
		seconds = 0
	}
	a.timeRemaining = seconds
}

func (a *AssessmentState) TimeRemaining() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.timeRemaining
}

// Reset clears everything; used on exit or abandon.
func (a *AssessmentState) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sessionID = ""
	a.userID = ""
	a.mode = ""
	a.questions = nil
	a.index = 0
	a.responses = nil
	a.timeRemaining = 0
}
