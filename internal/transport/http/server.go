// Package http exposes the REST surface and the websocket live-session
// channel.
package http

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"satprep-service/internal/app"
)

// Options wires the services into the server.
type Options struct {
	Auth     *app.AuthService
	Progress *app.ProgressService
	Bank     *app.QuestionBank
	// FrontendURL is the browser origin allowed through CORS in addition to
	// localhost and private-network origins. Defaults to localhost:3000.
	FrontendURL string
}

// Server is the echo application serving /api and /ws.
type Server struct {
	app  *echo.Echo
	opts Options
}

type payloadValidator struct {
	validate *validator.Validate
}

func (v *payloadValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(corsConfig(opts.FrontendURL)))
	e.Validator = &payloadValidator{validate: validator.New()}
	e.HTTPErrorHandler = errorHandler

	s := &Server{app: e, opts: opts}
	s.routes()
	return s
}

// Browsers on localhost or a private LAN address may call the API during
// development; anything else must match the configured frontend origin.
var devOriginRE = regexp.MustCompile(`^http://(localhost|192\.168\.\d+\.\d+|10\.\d+\.\d+\.\d+|172\.(1[6-9]|2\d|3[01])\.\d+\.\d+)(:\d+)?$`)

func corsConfig(frontendURL string) middleware.CORSConfig {
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}
	return middleware.CORSConfig{
		AllowOriginFunc: func(origin string) (bool, error) {
			return origin == frontendURL || devOriginRE.MatchString(origin), nil
		},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch,
			http.MethodPut, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}
}

// validateRequest runs the registered validator and maps field failures onto
// the handler's canonical messages, keyed by struct field name or by
// "Field.tag" where the wording depends on the failed rule.
func validateRequest(c echo.Context, req any, messages map[string]string) string {
	err := c.Validate(req)
	if err == nil {
		return ""
	}
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		for _, fe := range fields {
			if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
				return msg
			}
			if msg, ok := messages[fe.Field()]; ok {
				return msg
			}
		}
	}
	return "Invalid request body"
}

func (s *Server) routes() {
	auth := newAuthHandler(s.opts.Auth)
	questions := newQuestionsHandler(s.opts.Bank)
	progress := newProgressHandler(s.opts.Progress)
	live := NewLiveHandler(s.opts.Bank, s.opts.Progress, s.opts.Auth)

	s.app.GET("/health", health)

	api := s.app.Group("/api")
	requireAuth := bearerAuth(s.opts.Auth)

	a := api.Group("/auth")
	a.POST("/register", auth.register)
	a.POST("/login", auth.login)
	a.POST("/google", auth.google)
	a.GET("/me", auth.me, requireAuth)
	a.PATCH("/profile", auth.updateProfile, requireAuth)
	a.POST("/link-google", auth.linkGoogle, requireAuth)
	a.POST("/change-password", auth.changePassword, requireAuth)

	api.GET("/questions", questions.list)
	api.GET("/questions/:id", questions.byID)
	api.GET("/domains", questions.domains)
	api.GET("/sections", questions.sections)
	api.GET("/cache-status", questions.cacheStatus)

	p := api.Group("/progress", requireAuth)
	p.POST("/user", progress.getOrCreateUser)
	p.POST("/session/start", progress.startSession)
	p.POST("/session/end", progress.endSession)
	p.POST("/response", progress.recordResponse)
	p.GET("/session/:id", progress.sessionResponses)
	p.GET("/user/:id", progress.userProgress)
	p.GET("/analytics", progress.analytics)

	s.app.GET("/ws/session", live.ServeWS)
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func (s *Server) Start(address string) error {
	return s.app.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// errorHandler converts anything that escapes a handler into the generic
// envelope without leaking internals.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		}
	}
	_ = fail(c, status, message)
}
