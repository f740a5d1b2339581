package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"satprep-service/internal/app"
	"satprep-service/internal/domain"
)

type progressHandler struct {
	progress *app.ProgressService
}

func newProgressHandler(progress *app.ProgressService) *progressHandler {
	return &progressHandler{progress: progress}
}

type getOrCreateUserRequest struct {
	Name string `json:"name"`
}

// getOrCreateUser ensures an account row exists for the token identity.
func (h *progressHandler) getOrCreateUser(c echo.Context) error {
	req := getOrCreateUserRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	user, err := h.progress.GetOrCreateUser(c.Request().Context(), currentUserID(c), req.Name)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"user": user})
}

type startSessionRequest struct {
	Mode domain.Mode `json:"mode" validate:"required"`
}

func (h *progressHandler) startSession(c echo.Context) error {
	req := startSessionRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"Mode": "mode is required",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if !req.Mode.Valid() {
		return fail(c, http.StatusBadRequest, "mode must be study, quiz or test")
	}

	session, err := h.progress.StartSession(c.Request().Context(), currentUserID(c), req.Mode)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"session": session})
}

type endSessionRequest struct {
	SessionID      string   `json:"sessionId" validate:"required"`
	Score          *float64 `json:"score"`
	TotalQuestions *int     `json:"totalQuestions"`
	CorrectAnswers *int     `json:"correctAnswers"`
}

func (h *progressHandler) endSession(c echo.Context) error {
	req := endSessionRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"SessionID": "sessionId is required",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if err := h.progress.EndSession(c.Request().Context(), req.SessionID, req.Score, req.TotalQuestions, req.CorrectAnswers); err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"message": "Session ended successfully"})
}

type recordResponseRequest struct {
	SessionID        string  `json:"sessionId" validate:"required"`
	QuestionID       string  `json:"questionId" validate:"required"`
	UserAnswer       *string `json:"userAnswer"`
	CorrectAnswer    string  `json:"correctAnswer" validate:"required"`
	IsCorrect        bool    `json:"isCorrect"`
	TimeSpentSeconds *int    `json:"timeSpentSeconds"`
	Section          string  `json:"section"`
	Domain           string  `json:"domain"`
}

func (h *progressHandler) recordResponse(c echo.Context) error {
	req := recordResponseRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"SessionID":     "sessionId, questionId, and correctAnswer are required",
		"QuestionID":    "sessionId, questionId, and correctAnswer are required",
		"CorrectAnswer": "sessionId, questionId, and correctAnswer are required",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	_, err := h.progress.RecordResponse(c.Request().Context(), domain.Response{
		SessionID:        req.SessionID,
		QuestionID:       req.QuestionID,
		UserAnswer:       req.UserAnswer,
		CorrectAnswer:    req.CorrectAnswer,
		IsCorrect:        req.IsCorrect,
		TimeSpentSeconds: req.TimeSpentSeconds,
		Section:          req.Section,
		Domain:           req.Domain,
	})
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"message": "Response recorded"})
}

func (h *progressHandler) sessionResponses(c echo.Context) error {
	responses, err := h.progress.SessionResponses(c.Request().Context(), c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"count": len(responses), "responses": responses})
}

// userProgress serves the authenticated user's sessions and stats. The path
// parameter is kept for URL compatibility; the token identity is
// authoritative.
func (h *progressHandler) userProgress(c echo.Context) error {
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	result, err := h.progress.UserProgress(c.Request().Context(), currentUserID(c), limit)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"sessions": result.Sessions, "stats": result.Stats})
}

func (h *progressHandler) analytics(c echo.Context) error {
	stats, err := h.progress.DomainAnalytics(c.Request().Context(), currentUserID(c))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"domains": stats})
}
