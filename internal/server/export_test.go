package server

import "github.com/mdouchement/skystore/internal/server/session"

// This file is only for test purpose and is only loaded by test framework.

// SessionManager returns the session manager used by the engine of the given controller.
func SessionManager(ctrl Controller) session.Manager {
	return session.NewManager(
		ctrl.Database,
		ctrl.SigningKey,
		ctrl.AccessTokenExpirationTime,
		ctrl.RefreshTokenExpirationTime,
	)
}

// Page exposes the page query parser.
var Page = page
