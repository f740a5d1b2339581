package app

import (
	"sync"
	"time"

	"satprep-service/internal/domain"
)

// StudyController runs an untimed session with immediate per-question
// feedback: select an answer, check it (which records the response and
// reveals the explanation), then move on. Backward navigation is allowed.
type StudyController struct {
	mu            sync.Mutex
	session       *AssessmentState
	phase         Phase
	selected      string
	revealed      bool
	questionStart time.Time
	now           func() time.Time
	onFinish      func()
}

// NewStudyController wraps an assessment whose questions are already set.
// onFinish may be nil; it is called once when the last question is passed.
func NewStudyController(session *AssessmentState, onFinish func()) *StudyController {
	return NewStudyControllerWithClock(session, onFinish, time.Now)
}

// NewStudyControllerWithClock is test-only for deterministic time tracking.
func NewStudyControllerWithClock(session *AssessmentState, onFinish func(), now func() time.Time) *StudyController {
	return &StudyController{
		session:  session,
		phase:    PhaseNotStarted,
		now:      now,
		onFinish: onFinish,
	}
}

func (c *StudyController) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *StudyController) Session() *AssessmentState { return c.session }

// Begin transitions to active. There is no timer in study mode.
func (c *StudyController) Begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseNotStarted {
		return ErrAlreadyStarted
	}
	c.phase = PhaseActive
	c.questionStart = c.now()
	return nil
}

// Select stores the pending answer for the current question. Selection is
// locked once the answer has been checked.
func (c *StudyController) Select(choice string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrNotActive
	}
	if c.revealed {
		return ErrAnswerLocked
	}
	c.selected = choice
	return nil
}

// CheckAnswer records the selected response and reveals the correct answer
// and explanation. The session stays active.
func (c *StudyController) CheckAnswer() (domain.Question, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return domain.Question{}, false, ErrNotActive
	}
	if c.selected == "" {
		return domain.Question{}, false, ErrNoSelection
	}
	question, ok := c.session.CurrentQuestion()
	if !ok {
		return domain.Question{}, false, ErrNotActive
	}
	spent := int(c.now().Sub(c.questionStart).Seconds())
	if spent < 0 {
		spent = 0
	}
	recordSelection(c.session, question.ID, c.selected, question.CorrectAnswer, spent)
	c.revealed = true
	return question, c.selected == question.CorrectAnswer, nil
}

// Next moves past a revealed question, advancing or finishing at the end.
func (c *StudyController) Next() error {
	c.mu.Lock()
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return ErrNotActive
	}
	if !c.revealed {
		c.mu.Unlock()
		return ErrAnswerNotChecked
	}
	c.selected = ""
	c.revealed = false
	c.questionStart = c.now()

	current, total := c.session.Progress()
	if current >= total {
		c.phase = PhaseFinished
		onFinish := c.onFinish
		c.mu.Unlock()
		if onFinish != nil {
			onFinish()
		}
		return nil
	}
	c.session.Advance()
	c.mu.Unlock()
	return nil
}

// Previous moves back by one question, clearing any pending selection.
func (c *StudyController) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return ErrNotActive
	}
	c.selected = ""
	c.revealed = false
	c.questionStart = c.now()
	if idx := c.session.CurrentIndex(); idx > 0 {
		c.session.JumpTo(idx - 1)
	}
	return nil
}
