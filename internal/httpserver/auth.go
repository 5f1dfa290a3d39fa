package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/campus_food/internal/service"
	"github.com/Skotchmaster/campus_food/internal/transport"
	"github.com/Skotchmaster/campus_food/pkg/logging"
	middleware "github.com/Skotchmaster/campus_food/pkg/middleware/auth"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Register(ctx, service.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		IsAdmin:   req.IsAdmin,
		RealName:  req.RealName,
		StudentID: req.StudentID,
		College:   req.College,
		Major:     req.Major,
		Grade:     req.Grade,
		Phone:     req.Phone,
	})
	if err != nil {
		l.Warn("register_failed", "status", statusOf(err), "error", err)
		return fail(err)
	}

	return ok(c, http.StatusCreated, "registered", res)
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		l.Warn("login_failed", "status", statusOf(err), "error", err)
		return fail(err)
	}

	return ok(c, http.StatusOK, "login successful", res)
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_refresh")

	var req transport.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("refresh_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		l.Warn("refresh_failed", "status", statusOf(err), "error", err)
		return fail(err)
	}

	return ok(c, http.StatusOK, "token refreshed", res)
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_logout")

	var req transport.RefreshTokenRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("logout_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		l.Warn("logout_failed", "status", statusOf(err), "error", err)
		return fail(err)
	}

	return ok[any](c, http.StatusOK, "logged out", nil)
}

func (h *AuthHTTP) GetUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_get_user")

	id, found := middleware.UserID(c)
	if !found {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	user, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		l.Warn("get_user_failed", "status", statusOf(err), "user_id", id, "error", err)
		return fail(err)
	}

	return ok(c, http.StatusOK, "ok", transport.UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// SetUserStatus lets an admin disable or re-enable an account.
func (h *AuthHTTP) SetUserStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin_user_status")

	var req transport.UserStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("user_status_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	username := c.Param("username")
	if err := h.Svc.SetUserStatus(ctx, username, req.Status); err != nil {
		l.Warn("user_status_failed", "status", statusOf(err), "username", username, "error", err)
		return fail(err)
	}

	return ok(c, http.StatusOK, "status updated", echo.Map{"username": username, "status": req.Status})
}
