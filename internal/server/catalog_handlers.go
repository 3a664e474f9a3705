package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/skystore/internal/server/form"
	"github.com/mdouchement/skystore/internal/server/middlewares"
	"github.com/mdouchement/skystore/internal/server/service"
	"github.com/mdouchement/skystore/internal/skerror"
)

// catalog contains all the product handlers.
type catalog struct {
	service *service.Catalog
}

// List renders the visible products, newest first.
func (h *catalog) List(c echo.Context) error {
	render, err := h.service.List(c.Request().Context(), middlewares.CurrentViewer(c), page(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Categories renders all the categories.
func (h *catalog) Categories(c echo.Context) error {
	render, err := h.service.Categories()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Category renders the visible products of a category.
func (h *catalog) Category(c echo.Context) error {
	render, err := h.service.Category(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"), page(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Show renders a product and its related products.
func (h *catalog) Show(c echo.Context) error {
	render, err := h.service.Show(middlewares.CurrentViewer(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Create creates a product owned by the current user.
func (h *catalog) Create(c echo.Context) error {
	var params form.Product
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Create(c.Request().Context(), middlewares.CurrentViewer(c), &params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, render)
}

// Update edits a product.
func (h *catalog) Update(c echo.Context) error {
	var params form.Product
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Update(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"), &params)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Delete deletes a product.
func (h *catalog) Delete(c echo.Context) error {
	render, err := h.service.Delete(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Transition moves a product through the moderation workflow.
func (h *catalog) Transition(c echo.Context) error {
	var params struct {
		State string `json:"state"`
	}
	if err := c.Bind(&params); err != nil {
		return err
	}

	render, err := h.service.Transition(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"), params.State)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}

// Image replaces the image of a product.
func (h *catalog) Image(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return skerror.InvalidForm(map[string]string{"image": form.MessageRequired})
	}

	render, err := h.service.Image(c.Request().Context(), middlewares.CurrentViewer(c), c.Param("id"), fh)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, render)
}
