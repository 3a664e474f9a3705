package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/skystore/internal/server/form"
	"github.com/mdouchement/skystore/internal/server/middlewares"
	"github.com/mdouchement/skystore/internal/server/service"
	"github.com/mdouchement/skystore/internal/skerror"
)

// blog contains all the blog handlers.
type blog struct {
	service *service.Blog
}

// List renders the visible posts, newest first.
func (h *blog) List(c echo.Context) error {
	render, err := h.service.List(c.Request().Context(), middlewares.CurrentViewer(c), page(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Show renders a post and counts the view.
func (h *blog) Show(c echo.Context) error {
	render, err := h.service.Show(middlewares.CurrentViewer(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Create creates a post.
func (h *blog) Create(c echo.Context) error {
	var params form.BlogPost
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Create(c.Request().Context(), middlewares.CurrentViewer(c), &params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, render)
}

// Update edits a post.
func (h *blog) Update(c echo.Context) error {
	var params form.BlogPost
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Update(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"), &params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Delete deletes a post.
func (h *blog) Delete(c echo.Context) error {
	render, err := h.service.Delete(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Toggle flips the publication of a post.
func (h *blog) Toggle(c echo.Context) error {
	render, err := h.service.Toggle(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Preview replaces the preview image of a post.
func (h *blog) Preview(c echo.Context) error {
	fh, err := c.FormFile("preview")
	if err != nil {
		return skerror.InvalidForm(map[string]string{"preview": form.MessageRequired})
	}

	render, err := h.service.Preview(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"), fh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}
