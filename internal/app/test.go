package app

import (
	"sync"
	"time"
)

// TestController runs a full simulation: timed at the SAT per-question
// allowance, no backward navigation, no mid-session pause. Passing the last
// question enters a review state; the score is produced only by an explicit
// Finish or by timer expiry, which force-finishes from any point and
// bypasses review.
type TestController struct {
	mu             sync.Mutex
	session        *AssessmentState
	timer          *Timer
	phase          Phase
	selected       string
	entryRemaining int // clock reading when the current question was entered
	onFinish       func(SessionResult)
}

// NewTestController wraps an assessment whose questions are already set.
func NewTestController(session *AssessmentState, onFinish func(SessionResult)) *TestController {
	return NewTestControllerWithTick(session, onFinish, time.Second)
}

// NewTestControllerWithTick is test-only for deterministic timer pacing.
func NewTestControllerWithTick(session *AssessmentState, onFinish func(SessionResult), tick time.Duration) *TestController {
	_, total := session.Progress()
	c := &TestController{
		session:  session,
		timer:    NewTimerWithInterval(TestDuration(total), tick),
		phase:    PhaseNotStarted,
		onFinish: onFinish,
	}
	c.timer.OnTick(session.UpdateTimeRemaining)
	c.timer.OnExpire(c.expire)
	return c
}

func (c *TestController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *TestController) Session() *AssessmentState { return c.session }

func (c *TestController) Timer() *Timer { return c.timer }

// Begin activates the session and starts the test timer.
func (c *TestController) Begin() error {
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

// Select stores the pending answer for the current question.
func (c *TestController) Select(choice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrNotActive
	}
	c.selected = choice
	return nil
}

// Next records the current response if one exists and advances. Passing the
// last question enters review rather than finishing, separating "last
// question answered" from "final submission".
func (c *TestController) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrNotActive
	}
	if c.selected != "" {
		if question, ok := c.session.CurrentQuestion(); ok {
			recordSelection(c.session, question.ID, c.selected, question.CorrectAnswer, c.spentLocked())
		}
		c.selected = ""
	}
	current, total := c.session.Progress()
	if current >= total {
		c.phase = PhaseReview
		return nil
	}
	c.session.Advance()
	c.entryRemaining = c.timer.Remaining()
	return nil
}

// spentLocked reads the seconds elapsed on the current question off the
// session clock.
func (c *TestController) spentLocked() int {
	spent := c.entryRemaining - c.timer.Remaining()
	if spent < 0 {
		spent = 0
	}
	return spent
}

// Finish submits the test from the review state.
func (c *TestController) Finish() error {
	c.mu.Lock()
	if c.phase != PhaseReview {
		c.mu.Unlock()
		return ErrNotInReview
	}
	c.finishLocked()
	return nil
}

// expire force-finishes immediately, whatever the current position.
func (c *TestController) expire() {
	c.mu.Lock()
	if c.phase != PhaseActive && c.phase != PhaseReview {
		c.mu.Unlock()
		return
	}
	c.finishLocked()
}

// finishLocked pauses the timer, computes the score and reports it once.
// Releases the mutex.
func (c *TestController) finishLocked() {
	c.phase = PhaseFinished
	onFinish := c.onFinish
	c.onFinish = nil
	c.mu.Unlock()

	c.timer.Pause()
	if onFinish != nil {
		onFinish(resultFrom(c.session))
	}
}
