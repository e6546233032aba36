package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/retailpos/backoffice/internal/models"
	"github.com/retailpos/backoffice/internal/service"
)

type AuthHandler struct {
	Auth *service.AuthService
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req service.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Auth.Register(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
		AccessToken  string `json:"access_token"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	pair, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken, req.AccessToken)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	caller := CallerFrom(c)
	if err := h.Auth.Logout(c.Request().Context(), caller.UserID); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	caller := CallerFrom(c)
	if err := h.Auth.ChangePassword(c.Request().Context(), caller, req.OldPassword, req.NewPassword); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) SetUserRole(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	caller := CallerFrom(c)
	if err := h.Auth.SetUserRole(c.Request().Context(), caller, id, req.Role); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) SetUserActive(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	caller := CallerFrom(c)
	if err := h.Auth.SetUserActive(c.Request().Context(), caller, id, req.Active); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
