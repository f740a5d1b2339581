package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"satprep-service/internal/app"
	"satprep-service/internal/domain"
)

type questionsHandler struct {
	bank *app.QuestionBank
}

func newQuestionsHandler(bank *app.QuestionBank) *questionsHandler {
	return &questionsHandler{bank: bank}
}

func (h *questionsHandler) list(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return fail(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	questions, err := h.bank.Filter(app.FilterParams{
		Section:    c.QueryParam("section"),
		Domain:     c.QueryParam("domain"),
		Difficulty: c.QueryParam("difficulty"),
		Limit:      limit,
	})
	if err != nil {
		if errors.Is(err, domain.ErrBankNotLoaded) {
			return fail(c, http.StatusInternalServerError, err.Error())
		}
		return failErr(c, err)
	}
	return ok(c, echo.Map{"count": len(questions), "questions": questions})
}

func (h *questionsHandler) byID(c echo.Context) error {
	question, err := h.bank.ByID(c.Param("id"))
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"question": question})
}

func (h *questionsHandler) domains(c echo.Context) error {
	domains := h.bank.Domains()
	return ok(c, echo.Map{"count": len(domains), "domains": domains})
}

func (h *questionsHandler) sections(c echo.Context) error {
	return ok(c, echo.Map{"sections": h.bank.Sections()})
}

func (h *questionsHandler) cacheStatus(c echo.Context) error {
	status := h.bank.Status()
	return ok(c, echo.Map{"isCached": status.IsCached, "count": status.Count})
}
