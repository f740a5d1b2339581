package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"satprep-service/internal/app"
	"satprep-service/internal/domain"
)

// LiveHandler runs a full practice session over a websocket: it draws
// questions from the bank, drives the mode controller server-side, streams
// timer ticks and reveals, and persists the session when it ends.
type LiveHandler struct {
	bank     *app.QuestionBank
	progress *app.ProgressService
	auth     *app.AuthService
	upgrader websocket.Upgrader
}

func NewLiveHandler(bank *app.QuestionBank, progress *app.ProgressService, auth *app.AuthService) *LiveHandler {
	return &LiveHandler{
		bank:     bank,
		progress: progress,
		auth:     auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type liveInbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type liveOutbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type selectPayload struct {
	Choice string `json:"choice"`
}

type liveError struct {
	Message string `json:"message"`
}

// questionView is a question with the answer key stripped. The correct
// answer and explanation only travel in reveal and finished messages.
type questionView struct {
	ID         string         `json:"id"`
	Section    string         `json:"section"`
	Domain     string         `json:"domain"`
	Difficulty string         `json:"difficulty"`
	Paragraph  string         `json:"paragraph,omitempty"`
	Prompt     string         `json:"question"`
	Choices    domain.Choices `json:"choices"`
	Visual     *domain.Visual `json:"visuals,omitempty"`
}

func viewOf(q domain.Question) questionView {
	return questionView{
		ID:         q.ID,
		Section:    q.Section,
		Domain:     q.Domain,
		Difficulty: q.Difficulty,
		Paragraph:  q.Paragraph,
		Prompt:     q.Prompt,
		Choices:    q.Choices,
		Visual:     q.Visual,
	}
}

type questionPayload struct {
	Index    int          `json:"index"` // one-based
	Total    int          `json:"total"`
	Question questionView `json:"question"`
}

type revealPayload struct {
	QuestionID    string `json:"questionId"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// liveSession dispatches to the mode controller behind a uniform surface.
type liveSession struct {
	mode  domain.Mode
	state *app.AssessmentState
	study *app.StudyController
	quiz  *app.QuizController
	test  *app.TestController
}

func (s *liveSession) begin() error {
	switch s.mode {
	case domain.ModeStudy:
		return s.study.Begin()
	case domain.ModeQuiz:
		return s.quiz.Begin()
	default:
		return s.test.Begin()
	}
}

func (s *liveSession) selectChoice(choice string) error {
	switch s.mode {
	case domain.ModeStudy:
		return s.study.Select(choice)
	case domain.ModeQuiz:
		return s.quiz.Select(choice)
	default:
		return s.test.Select(choice)
	}
}

func (s *liveSession) next() error {
	switch s.mode {
	case domain.ModeStudy:
		return s.study.Next()
	case domain.ModeQuiz:
		return s.quiz.Next()
	default:
		return s.test.Next()
	}
}

func (s *liveSession) phase() app.Phase {
	switch s.mode {
	case domain.ModeStudy:
		return s.study.Phase()
	case domain.ModeQuiz:
		return s.quiz.Phase()
	default:
		return s.test.Phase()
	}
}

func (s *liveSession) timer() *app.Timer {
	switch s.mode {
	case domain.ModeQuiz:
		return s.quiz.Timer()
	case domain.ModeTest:
		return s.test.Timer()
	default:
		return nil
	}
}

// ServeWS upgrades the request and runs the session until it finishes or the
// client disconnects. Identity, mode and filters arrive as query parameters
// since browsers cannot set headers on websocket dials.
func (h *LiveHandler) ServeWS(c echo.Context) error {
	userID, err := h.auth.ParseToken(c.QueryParam("token"))
	if err != nil {
		return fail(c, http.StatusUnauthorized, "Invalid or expired token")
	}

	mode := domain.Mode(c.QueryParam("mode"))
	if !mode.Valid() {
		return fail(c, http.StatusBadRequest, "mode must be study, quiz or test")
	}

	params := app.FilterParams{
		Section:    c.QueryParam("section"),
		Domain:     c.QueryParam("domain"),
		Difficulty: c.QueryParam("difficulty"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return fail(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		params.Limit = limit
	}
	questions, err := h.bank.Filter(params)
	if err != nil {
		return failErr(c, err)
	}
	if len(questions) == 0 {
		return fail(c, http.StatusNotFound, "No questions match the requested filters")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return nil
	}
	defer conn.Close()

	ctx := c.Request().Context()
	if _, err := h.progress.GetOrCreateUser(ctx, userID, ""); err != nil {
		_ = conn.WriteJSON(liveOutbound{Type: "error", Payload: liveError{Message: "Failed to resolve user"}})
		return nil
	}
	persisted, err := h.progress.StartSession(ctx, userID, mode)
	if err != nil {
		_ = conn.WriteJSON(liveOutbound{Type: "error", Payload: liveError{Message: "Failed to start session"}})
		return nil
	}

	state := app.NewAssessmentState()
	state.Initialize(userID, mode)
	state.SetSessionID(persisted.ID)
	state.SetQuestions(questions)

	send := make(chan liveOutbound, 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// push may be called from the read loop or the timer goroutine. Once the
	// session is torn down messages are dropped; a full buffer means the
	// connection is already dead, so dropping is fine there too.
	var sendMu sync.Mutex
	sendClosed := false
	push := func(msg liveOutbound) {
		sendMu.Lock()
		defer sendMu.Unlock()
		if sendClosed {
			return
		}
		select {
		case send <- msg:
		default:
		}
	}

	var persistOnce sync.Once
	persist := func(result app.SessionResult) {
		persistOnce.Do(func() {
			h.persistSession(state, result)
		})
	}

	live := &liveSession{mode: mode, state: state}
	finished := func(result app.SessionResult) {
		persist(result)
		push(liveOutbound{Type: "finished", Payload: app.Grade(result.Correct, result.Total)})
	}
	switch mode {
	case domain.ModeStudy:
		live.study = app.NewStudyController(state, func() {
			finished(app.SessionResult{
				Score:   app.Grade(state.CorrectCount(), len(questions)).Percentage,
				Total:   len(questions),
				Correct: state.CorrectCount(),
			})
		})
	case domain.ModeQuiz:
		live.quiz = app.NewQuizController(state, finished)
	default:
		live.test = app.NewTestController(state, finished)
	}

	if timer := live.timer(); timer != nil {
		timer.OnTick(func(remaining int) {
			state.UpdateTimeRemaining(remaining)
			push(liveOutbound{Type: "tick", Payload: echo.Map{"remaining": remaining}})
		})
	}

	timeLimit := 0
	if timer := live.timer(); timer != nil {
		timeLimit = timer.Remaining()
	}
	push(liveOutbound{Type: "session", Payload: echo.Map{
		"sessionId":        persisted.ID,
		"mode":             mode,
		"total":            len(questions),
		"timeLimitSeconds": timeLimit,
	}})

	h.readLoop(conn, live, push)

	// Disconnect or finish: stop the clock, then settle the session row with
	// whatever was answered so far.
	if timer := live.timer(); timer != nil {
		timer.Pause()
	}
	correct := state.CorrectCount()
	_, total := state.Progress()
	persist(app.SessionResult{Score: app.Grade(correct, total).Percentage, Total: total, Correct: correct})

	sendMu.Lock()
	sendClosed = true
	sendMu.Unlock()
	close(send)
	<-writerDone
	return nil
}

func (h *LiveHandler) readLoop(conn *websocket.Conn, live *liveSession, push func(liveOutbound)) {
	pushError := func(err error) {
		push(liveOutbound{Type: "error", Payload: liveError{Message: err.Error()}})
	}
	pushCurrent := func() {
		question, ok := live.state.CurrentQuestion()
		if !ok {
			return
		}
		current, total := live.state.Progress()
		push(liveOutbound{Type: "question", Payload: questionPayload{
			Index:    current,
			Total:    total,
			Question: viewOf(question),
		}})
	}

	for {
		var inbound liveInbound
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}

		switch inbound.Type {
		case "begin":
			if err := live.begin(); err != nil {
				pushError(err)
				continue
			}
			pushCurrent()
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Choice == "" {
				push(liveOutbound{Type: "error", Payload: liveError{Message: "invalid select payload"}})
				continue
			}
			if err := live.selectChoice(payload.Choice); err != nil {
				pushError(err)
			}
		case "check":
			if live.mode != domain.ModeStudy {
				push(liveOutbound{Type: "error", Payload: liveError{Message: "check is only available in study mode"}})
				continue
			}
			question, correct, err := live.study.CheckAnswer()
			if err != nil {
				pushError(err)
				continue
			}
			push(liveOutbound{Type: "revealed", Payload: revealPayload{
				QuestionID:    question.ID,
				Correct:       correct,
				CorrectAnswer: question.CorrectAnswer,
				Explanation:   question.Explanation,
			}})
		case "next":
			if err := live.next(); err != nil {
				pushError(err)
				continue
			}
			switch live.phase() {
			case app.PhaseActive:
				pushCurrent()
			case app.PhaseReview:
				answered := len(live.state.Responses())
				_, total := live.state.Progress()
				push(liveOutbound{Type: "review", Payload: echo.Map{
					"answered": answered,
					"total":    total,
				}})
			case app.PhaseFinished:
				return
			}
		case "previous":
			if live.mode != domain.ModeStudy {
				push(liveOutbound{Type: "error", Payload: liveError{Message: "previous is only available in study mode"}})
				continue
			}
			if err := live.study.Previous(); err != nil {
				pushError(err)
				continue
			}
			pushCurrent()
		case "finish":
			if live.mode != domain.ModeTest {
				push(liveOutbound{Type: "error", Payload: liveError{Message: "finish is only available in test mode"}})
				continue
			}
			if err := live.test.Finish(); err != nil {
				pushError(err)
				continue
			}
			return
		default:
			push(liveOutbound{Type: "error", Payload: liveError{Message: "unsupported message type"}})
		}

		if live.phase() == app.PhaseFinished {
			return
		}
	}
}

// persistSession writes the recorded responses and finalizes the session row.
// Runs on whichever goroutine finished the session, so it uses a background
// context; failures are logged, not surfaced to the client.
func (h *LiveHandler) persistSession(state *app.AssessmentState, result app.SessionResult) {
	ctx := context.Background()
	byID := make(map[string]domain.Question)
	for _, q := range state.Questions() {
		byID[q.ID] = q
	}
	for _, entry := range state.Responses() {
		question := byID[entry.QuestionID]
		timeSpent := entry.TimeSpentSeconds
		if _, err := h.progress.RecordResponse(ctx, domain.Response{
			SessionID:        state.SessionID(),
			QuestionID:       entry.QuestionID,
			UserAnswer:       entry.UserAnswer,
			CorrectAnswer:    question.CorrectAnswer,
			IsCorrect:        entry.IsCorrect,
			TimeSpentSeconds: &timeSpent,
			Section:          question.Section,
			Domain:           question.Domain,
		}); err != nil {
			log.Printf("live: recording response for session %s: %v", state.SessionID(), err)
		}
	}
	score := result.Score
	total := result.Total
	correct := result.Correct
	if err := h.progress.EndSession(ctx, state.SessionID(), &score, &total, &correct); err != nil {
		log.Printf("live: ending session %s: %v", state.SessionID(), err)
	}
}
