package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-web/library/internal/errs"
	"github.com/Astemirdum/library-web/library/internal/model"
)

const userKey = "user"

const loginFailed = "Bad email/password. Please try again or Register."

func currentUser(c echo.Context) model.User {
	u, _ := c.Get(userKey).(model.User)
	return u
}

// requireUser resolves the session cookie to a logged in user or sends the
// client to the login page.
func (h *Handler) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := h.sessions.UserID(c)
		if err != nil {
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		user, err := h.authSvc.ResolveSession(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, errs.ErrAuth) {
				h.sessions.Clear(c)
				return c.Redirect(http.StatusSeeOther, "/login")
			}
			return err
		}
		c.Set(userKey, user)
		return next(c)
	}
}

func (h *Handler) LoginForm(c echo.Context) error {
	return c.Render(http.StatusOK, pageLogin, loginPage{})
}

func (h *Handler) Login(c echo.Context) error {
	var req model.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.authSvc.Authenticate(c.Request().Context(), req)
	if err != nil {
		page := loginPage{Email: req.Email}
		var ve *errs.ValidationError
		switch {
		case errors.As(err, &ve):
			page.Error = ve.Message
		case errors.Is(err, errs.ErrAuth):
			page.Error = loginFailed
		default:
			return err
		}
		return c.Render(http.StatusUnauthorized, pageLogin, page)
	}
	if err := h.sessions.Issue(c, user.ID, user.Email); err != nil {
		return err
	}
	h.log.Info("user logged in", zap.Int64("user", user.ID))
	return c.Redirect(http.StatusSeeOther, "/home")
}

func (h *Handler) RegisterForm(c echo.Context) error {
	return c.Render(http.StatusOK, pageRegister, registerPage{})
}

func (h *Handler) Register(c echo.Context) error {
	var req model.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	user, err := h.authSvc.Register(c.Request().Context(), req)
	if err != nil {
		var ve *errs.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		return c.Render(http.StatusBadRequest, pageRegister, registerPage{
			Error:      ve.Message,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
			Email:      req.Email,
			EmailTaken: errors.Is(err, errs.ErrEmailTaken),
		})
	}
	if err := h.sessions.Issue(c, user.ID, user.Email); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/home")
}

func (h *Handler) Logout(c echo.Context) error {
	user := currentUser(c)
	if err := h.authSvc.Logout(c.Request().Context(), user.ID); err != nil {
		return err
	}
	h.sessions.Clear(c)
	return c.Redirect(http.StatusSeeOther, "/login")
}
