package app

import "errors"

// Phase is the lifecycle state of a mode controller. Finished is terminal;
// a new controller must be constructed for a new attempt.
type Phase string

const (
	PhaseNotStarted Phase = "not-started"
	PhaseActive     Phase = "active"
	PhaseReview     Phase = "review" // test mode only, between last answer and submission
	PhaseFinished   Phase = "finished"
)

var (
	// ErrAlreadyStarted is returned when Begin is called twice.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrNotActive is returned for actions outside the active phase.
	ErrNotActive = errors.New("session not active")
	// ErrNoSelection is returned when advancing requires an answer first.
	ErrNoSelection = errors.New("no answer selected")
	// ErrAnswerNotChecked is returned when study mode advances before reveal.
	ErrAnswerNotChecked = errors.New("answer not checked yet")
	// ErrAnswerLocked is returned when study mode reselects after reveal.
	ErrAnswerLocked = errors.New("answer already checked")
	// ErrNotInReview is returned when a test is submitted before its review state.
	ErrNotInReview = errors.New("test not in review")
)

// SessionResult is the final tally a timed controller reports exactly once.
type SessionResult struct {
	Score   float64 `json:"score"`
	Total   int     `json:"total"`
	Correct int     `json:"correct"`
}

func resultFrom(session *AssessmentState) SessionResult {
	correct := session.CorrectCount()
	_, total := session.Progress()
	score := 0.0
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	return SessionResult{Score: score, Total: total, Correct: correct}
}

func recordSelection(session *AssessmentState, questionID, selected, correctAnswer string, timeSpent int) {
	answer := selected
	session.RecordResponse(ResponseEntry{
		QuestionID:       questionID,
		UserAnswer:       &answer,
		IsCorrect:        selected == correctAnswer,
		TimeSpentSeconds: timeSpent,
	})
}
