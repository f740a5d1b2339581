package app

import (
	"sync"
	"time"
)

// QuizController runs a timed session with feedback deferred to the end. The
// timer is sized at a fixed per-question allowance times the question count.
// Advancing requires a selection; timer expiry drains the remaining
// questions without recording responses and finishes. The final score is
// reported to onFinish exactly once, on normal or forced completion.
type QuizController struct {
	mu             sync.Mutex
	session        *AssessmentState
	timer          *Timer
	phase          Phase
	selected       string
	entryRemaining int // clock reading when the current question was entered
	onFinish       func(SessionResult)
}

// NewQuizController wraps an assessment whose questions are already set.
func NewQuizController(session *AssessmentState, onFinish func(SessionResult)) *QuizController {
	return NewQuizControllerWithTick(session, onFinish, time.Second)
}

// NewQuizControllerWithTick is test-only for deterministic timer pacing.
func NewQuizControllerWithTick(session *AssessmentState, onFinish func(SessionResult), tick time.Duration) *QuizController {
	_, total := session.Progress()
	c := &QuizController{
		session:  session,
		timer:    NewTimerWithInterval(QuizDuration(total), tick),
		phase:    PhaseNotStarted,
		onFinish: onFinish,
	}
	c.timer.OnTick(session.UpdateTimeRemaining)
	c.timer.OnExpire(c.expire)
	return c
}

func (c *QuizController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *QuizController) Session() *AssessmentState { return c.session }

func (c *QuizController) Timer() *Timer { return c.timer }

// Begin activates the session and starts the quiz timer.
func (c *QuizController) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseNotStarted {
		return ErrAlreadyStarted
	}
	c.phase = PhaseActive
	c.entryRemaining = c.timer.Remaining()
	c.session.UpdateTimeRemaining(c.timer.Remaining())
	c.timer.Start()
	return nil
}

// Select stores the pending answer for the current question. There is no
// reveal in quiz mode.
func (c *QuizController) Select(choice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrNotActive
	}
	c.selected = choice
	return nil
}

// Next records the current response and advances, finishing after the last
// question. Advancing without a selection is rejected.
func (c *QuizController) Next() error {
	c.mu.Lock()
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	if c.selected == "" {
		c.mu.Unlock()
		return ErrNoSelection
	}
	question, ok := c.session.CurrentQuestion()
	if !ok {
		c.mu.Unlock()
		return ErrNotActive
	}
	recordSelection(c.session, question.ID, c.selected, question.CorrectAnswer, c.spentLocked())
	c.selected = ""

	current, total := c.session.Progress()
	if current >= total {
		c.finishLocked()
		return nil
	}
	c.session.Advance()
	c.entryRemaining = c.timer.Remaining()
	c.mu.Unlock()
	return nil
}

// spentLocked reads the seconds elapsed on the current question off the
// session clock.
func (c *QuizController) spentLocked() int {
	spent := c.entryRemaining - c.timer.Remaining()
	if spent < 0 {
		spent = 0
	}
	return spent
}

// expire is the timer's expiry observer: skip whatever is left and finish.
// Skipped questions record no entry.
func (c *QuizController) expire() {
	c.mu.Lock()
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return
	}
	for {
		current, total := c.session.Progress()
		if current >= total {
			break
		}
		c.session.Advance()
	}
	c.finishLocked()
}

// finishLocked pauses the timer, computes the score and reports it once.
// Releases the mutex.
func (c *QuizController) finishLocked() {
	c.phase = PhaseFinished
	onFinish := c.onFinish
	c.onFinish = nil
	c.mu.Unlock()

	c.timer.Pause()
	if onFinish != nil {
		onFinish(resultFrom(c.session))
	}
}
