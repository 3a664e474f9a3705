package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/server/form"
	"github.com/mdouchement/skystore/internal/server/serializer"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// contact contains the contacts page handlers.
type contact struct {
	db  database.Client
	log logrus.FieldLogger
}

// Show renders the active contact details or the built-in ones.
func (h *contact) Show(c echo.Context) error {
	info, err := h.db.FindActiveContactInfo()
	if err != nil {
		if !h.db.IsNotFound(err) {
			return errors.Wrap(err, "could not get contact info")
		}
		info = model.DefaultContactInfo()
	}

	return c.JSON(http.StatusOK, echo.Map{
		"contact": serializer.ContactInfo(info),
	})
}

// Feedback receives a message from the contacts page.
func (h *contact) Feedback(c echo.Context) error {
	var params form.Feedback
	if err := c.Bind(&params); err != nil {
		return err
	}

	if err := params.Validate(); err != nil {
		return err
	}

	h.log.WithField("name", params.Name).WithField("phone", params.Phone).Info("feedback received")
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Thank you, " + params.Name + "! Your message has been received.",
	})
}
