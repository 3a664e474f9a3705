package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/skystore/internal/server/form"
	"github.com/mdouchement/skystore/internal/server/middlewares"
	"github.com/mdouchement/skystore/internal/server/service"
	"github.com/mdouchement/skystore/internal/skerror"
)

// users contains all the account handlers.
type users struct {
	service *service.Users
}

///// Register
////
//

// Register handler is used to register the user.
func (h *users) Register(c echo.Context) error {
	if middlewares.CurrentViewer(c).Authenticated {
		return skerror.NewWithTagCode(http.StatusBadRequest, skerror.TagInvalidArgument, "You are already registered.")
	}

	var params form.Registration
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Register(&params, c.Request().UserAgent())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, render)
}

///// Login
////
//

// Login handler is used to open a session.
func (h *users) Login(c echo.Context) error {
	var params form.Login
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Login(&params, c.Request().UserAgent())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Logout handler closes the current session.
func (h *users) Logout(c echo.Context) error {
	render, err := h.service.Logout(middlewares.CurrentSession(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Refresh obtains a new pair of access token and refresh token.
func (h *users) Refresh(c echo.Context) error {
	var params form.Refresh
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Refresh(&params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

///// Profile
////
//

// Profile renders the current user.
func (h *users) Profile(c echo.Context) error {
	render, err := h.service.Profile(middlewares.CurrentUser(c), middlewares.CurrentViewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Update edits the current user.
func (h *users) Update(c echo.Context) error {
	var params form.Profile
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Update(middlewares.CurrentUser(c), middlewares.CurrentViewer(c), &params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Avatar replaces the avatar of the current user.
func (h *users) Avatar(c echo.Context) error {
	fh, err := c.FormFile("avatar")
	if err != nil {
		return skerror.InvalidForm(map[string]string{"avatar": form.MessageRequired})
	}

	render, err := h.service.Avatar(middlewares.CurrentUser(c), middlewares.CurrentViewer(c), fh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}
