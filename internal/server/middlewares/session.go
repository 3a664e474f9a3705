package middlewares

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/mdouchement/skystore/internal/server/service"
	"github.com/mdouchement/skystore/internal/server/session"
	"github.com/mdouchement/skystore/internal/skerror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// CurrentUserContextKey is the key to retrieve the current_user from echo.Context.
	CurrentUserContextKey = "current_user"
	// CurrentSessionContextKey is the key to retrieve the current_session from echo.Context.
	CurrentSessionContextKey = "current_session"
	// ViewerContextKey is the key to retrieve the policy viewer from echo.Context.
	ViewerContextKey = "viewer"
)

// Identify returns a middleware resolving the bearer token, if any, into the
// current session, user and viewer. Requests without token are anonymous.
func Identify(db database.Client, m session.Manager, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(ViewerContextKey, policy.Anonymous())

			authorization := c.Request().Header.Get(echo.HeaderAuthorization)
			if authorization == "" {
				return next(c)
			}

			token := token(authorization)
			if token == "" {
				return skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "Invalid login credentials.")
			}

			// Find, validate and store current_session for handlers.
			current, err := m.Validate(token)
			if err != nil {
				return err
			}
			c.Set(CurrentSessionContextKey, current)

			// Find and store current_user for handlers.
			user, err := db.FindUser(current.UserID)
			if err != nil {
				if db.IsNotFound(err) {
					return skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "Invalid login credentials.")
				}
				return errors.Wrap(err, "could not get access to database")
			}

			if current.Revoked(user) {
				return skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "Revoked token.")
			}
			c.Set(CurrentUserContextKey, user)

			viewer, err := service.Viewer(db, log, user)
			if err != nil {
				return err
			}
			c.Set(ViewerContextKey, viewer)

			return next(c)
		}
	}
}

// Restricted returns a middleware rejecting the requests without an active user.
// It must be used after Identify.
func Restricted() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CurrentViewer(c).Authenticated {
				return skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "Authentication required.")
			}
			return next(c)
		}
	}
}

// CurrentUser returns the user stored by Identify or nil.
func CurrentUser(c echo.Context) *model.User {
	user, ok := c.Get(CurrentUserContextKey).(*model.User)
	if ok {
		return user
	}
	return nil
}

// CurrentSession returns the session stored by Identify or nil.
func CurrentSession(c echo.Context) *model.Session {
	session, ok := c.Get(CurrentSessionContextKey).(*model.Session)
	if ok {
		return session
	}
	return nil
}

// CurrentViewer returns the viewer stored by Identify, anonymous by default.
func CurrentViewer(c echo.Context) policy.Viewer {
	viewer, ok := c.Get(ViewerContextKey).(policy.Viewer)
	if ok {
		return viewer
	}
	return policy.Anonymous()
}

func token(authorization string) string {
	parts := strings.Split(authorization, " ")
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
