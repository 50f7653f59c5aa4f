package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/book-lending/lending/internal/errs"
	"github.com/Astemirdum/book-lending/lending/internal/model"
)

const userContextKey = "lending.user"

// Authenticate resolves the caller from the session cookie or a bearer
// token. With Options.DevHeader the X-User-Id header takes precedence.
func (h *Handler) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		if h.opts.DevHeader {
			if ref := c.Request().Header.Get(HeaderUserID); ref != "" {
				u, err := h.svc.GetUser(ctx, ref)
				if err != nil {
					if errors.Is(err, errs.ErrNotFound) || errors.Is(err, errs.ErrValidation) {
						return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
					}
					return h.httpError(err)
				}
				c.Set(userContextKey, u)
				return next(c)
			}
		}

		u, err := h.svc.Authenticate(ctx, h.sessionToken(c))
		if err != nil {
			return h.httpError(err)
		}
		c.Set(userContextKey, u)
		return next(c)
	}
}

func (h *Handler) sessionToken(c echo.Context) string {
	if cookie, err := c.Cookie(h.opts.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

func caller(c echo.Context) model.User {
	u, _ := c.Get(userContextKey).(model.User)
	return u
}

func (h *Handler) setSessionCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     h.opts.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) Signup(c echo.Context) error {
	var req model.SignupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, token, err := h.svc.Signup(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	h.setSessionCookie(c, token, h.svc.SessionExpiry(u))
	return c.JSON(http.StatusCreated, model.AuthResponse{User: model.NewUserResponse(u), Token: token})
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, token, err := h.svc.Login(c.Request().Context(), req)
	if err != nil {
		return h.httpError(err)
	}
	h.setSessionCookie(c, token, h.svc.SessionExpiry(u))
	return c.JSON(http.StatusOK, model.AuthResponse{User: model.NewUserResponse(u), Token: token})
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), caller(c).ID); err != nil {
		return h.httpError(err)
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, model.NewUserResponse(caller(c)))
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	var req model.UpdateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), caller(c).ID, req)
	if err != nil {
		return h.httpError(err)
	}
	return c.JSON(http.StatusOK, model.NewUserResponse(u))
}

func (h *Handler) DeleteAccount(c echo.Context) error {
	if err := h.svc.DeleteAccount(c.Request().Context(), caller(c).ID); err != nil {
		return h.httpError(err)
	}
	h.clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}
