package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"satprep-service/internal/app"
	"satprep-service/internal/domain"
)

type authHandler struct {
	auth *app.AuthService
}

func newAuthHandler(auth *app.AuthService) *authHandler {
	return &authHandler{auth: auth}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

func (h *authHandler) register(c echo.Context) error {
	req := registerRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"Name":     "Name is required",
		"Email":    "A valid email address is required",
		"Password": "Password must be at least 6 characters",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "Name is required")
	}
	if !app.ValidEmail(req.Email) {
		return fail(c, http.StatusBadRequest, "A valid email address is required")
	}

	user, token, err := h.auth.Register(c.Request().Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"token": token, "user": userView(user)})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *authHandler) login(c echo.Context) error {
	req := loginRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"Email":    "Email and password are required",
		"Password": "Email and password are required",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	user, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"token": token, "user": userView(user)})
}

type googleRequest struct {
	AccessToken string `json:"accessToken" validate:"required"`
}

func (h *authHandler) google(c echo.Context) error {
	req := googleRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"AccessToken": "accessToken is required",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	user, token, err := h.auth.GoogleLogin(c.Request().Context(), req.AccessToken)
	if err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"token": token, "user": userView(user)})
}

func (h *authHandler) me(c echo.Context) error {
	user, err := h.auth.GetUser(c.Request().Context(), currentUserID(c))
	if err != nil {
		return failErr(c, err)
	}
	view := userView(user)
	view["googleLinked"] = user.GoogleLinked()
	return ok(c, echo.Map{"user": view})
}

type updateProfileRequest struct {
	Name string `json:"name" validate:"required"`
}

func (h *authHandler) updateProfile(c echo.Context) error {
	req := updateProfileRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"Name": "Name is required",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fail(c, http.StatusBadRequest, "Name is required")
	}
	if err := h.auth.UpdateName(c.Request().Context(), currentUserID(c), req.Name); err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{"name": strings.TrimSpace(req.Name)})
}

func (h *authHandler) linkGoogle(c echo.Context) error {
	req := googleRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"AccessToken": "accessToken is required",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}

	email, err := h.auth.LinkGoogle(c.Request().Context(), currentUserID(c), req.AccessToken)
	if err != nil {
		return failErr(c, err)
	}
	resp := echo.Map{"googleLinked": true}
	if email != "" {
		resp["email"] = email
	}
	return ok(c, resp)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func (h *authHandler) changePassword(c echo.Context) error {
	req := changePasswordRequest{}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	if msg := validateRequest(c, &req, map[string]string{
		"CurrentPassword":      "currentPassword and newPassword are required",
		"NewPassword.required": "currentPassword and newPassword are required",
		"NewPassword.min":      "New password must be at least 6 characters",
	}); msg != "" {
		return fail(c, http.StatusBadRequest, msg)
	}
	if err := h.auth.ChangePassword(c.Request().Context(), currentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		return failErr(c, err)
	}
	return ok(c, echo.Map{})
}

func userView(user domain.User) echo.Map {
	view := echo.Map{
		"id":       user.ID,
		"username": user.Username,
		"name":     user.Name,
	}
	if user.Email != "" {
		view["email"] = user.Email
	} else {
		view["email"] = nil
	}
	return view
}
