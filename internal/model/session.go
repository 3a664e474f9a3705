package model

import (
	"time"
)

// A Session is a login of a user, identified by its access and refresh token pair.
type Session struct {
	Base `msgpack:",inline" storm:"inline"`

	ExpireAt     time.Time `msgpack:"expire_at"`
	UserID       string    `msgpack:"user_id"       storm:"index"`
	UserAgent    string    `msgpack:"user_agent"`
	AccessToken  string    `msgpack:"access_token"  storm:"unique"`
	RefreshToken string    `msgpack:"refresh_token" storm:"unique"`
}

// Revoked returns true if the session was opened before the last password change of its user.
func (s *Session) Revoked(u *User) bool {
	return s.CreatedAt != nil && s.CreatedAt.Unix() < u.PasswordUpdatedAt
}
