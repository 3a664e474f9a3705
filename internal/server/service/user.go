package service

import (
	"mime/multipart"
	"net/http"
	"time"

	argon2 "github.com/mdouchement/simple-argon2"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/media"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/mdouchement/skystore/internal/server/form"
	"github.com/mdouchement/skystore/internal/server/serializer"
	"github.com/mdouchement/skystore/internal/server/session"
	"github.com/mdouchement/skystore/internal/skerror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// A Users handles the accounts and their sessions.
type Users struct {
	db       database.Client
	sessions session.Manager
	storage  *media.Storage
	log      logrus.FieldLogger
}

// NewUsers returns a new Users.
func NewUsers(db database.Client, sessions session.Manager, storage *media.Storage, log logrus.FieldLogger) *Users {
	return &Users{
		db:       db,
		sessions: sessions,
		storage:  storage,
		log:      log,
	}
}

// Register creates a user and opens its first session.
func (s *Users) Register(f *form.Registration, userAgent string) (Render, error) {
	if err := f.Validate(s.db, s.db.IsNotFound); err != nil {
		return nil, err
	}

	user := model.NewUser()
	f.Apply(user)

	var err error
	user.Password, err = argon2.GenerateFromPasswordString(f.Password, argon2.Default)
	if err != nil {
		return nil, errors.Wrap(err, "could not store user password safe")
	}
	user.PasswordUpdatedAt = time.Now().Unix()

	if err = s.db.Save(user); err != nil {
		return nil, errors.Wrap(err, "could not persist user")
	}

	s.log.WithField("user", user.ID).Info("user registered")
	return s.open(user, userAgent)
}

// Login opens a session for the user matching the credentials.
func (s *Users) Login(f *form.Login, userAgent string) (Render, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	user, err := s.db.FindUserByMail(f.Email)
	if err != nil {
		if s.db.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, errors.Wrap(err, "could not get user")
	}

	if err = argon2.CompareHashAndPasswordString(user.Password, f.Password); err != nil {
		if err == argon2.ErrMismatchedHashAndPassword {
			return nil, invalidCredentials()
		}
		return nil, errors.Wrap(err, "could not validate password")
	}

	if !user.IsActive {
		return nil, skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "This account is inactive.")
	}

	return s.open(user, userAgent)
}

// Logout closes the given session.
func (s *Users) Logout(current *model.Session) (Render, error) {
	if err := s.db.Delete(current); err != nil && !s.db.IsNotFound(err) {
		return nil, errors.Wrap(err, "could not delete session")
	}
	return M{"success": true}, nil
}

// Refresh renews the token pair of a session.
func (s *Users) Refresh(f *form.Refresh) (Render, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	current, err := s.sessions.Refresh(f.AccessToken, f.RefreshToken)
	if err != nil {
		return nil, err
	}

	return s.tokens(current)
}

// Profile returns the profile of the user.
func (s *Users) Profile(user *model.User, viewer policy.Viewer) (Render, error) {
	return M{"user": serializer.User(user, viewer)}, nil
}

// Update edits the profile of the user.
func (s *Users) Update(user *model.User, viewer policy.Viewer, f *form.Profile) (Render, error) {
	if err := f.Validate(s.db, s.db.IsNotFound, user.ID); err != nil {
		return nil, err
	}

	f.Apply(user)
	if err := s.db.Save(user); err != nil {
		return nil, errors.Wrap(err, "could not persist user")
	}

	return M{"user": serializer.User(user, viewer)}, nil
}

// Avatar replaces the avatar of the user.
func (s *Users) Avatar(user *model.User, viewer policy.Viewer, fh *multipart.FileHeader) (Render, error) {
	name, err := s.storage.Save(media.DirAvatars, fh)
	if err != nil {
		return nil, upload("avatar", err)
	}

	previous := user.Avatar
	user.Avatar = name
	if err = s.db.Save(user); err != nil {
		s.storage.Remove(name) // nolint:errcheck
		return nil, errors.Wrap(err, "could not persist user")
	}

	if err = s.storage.Remove(previous); err != nil {
		s.log.WithField("user", user.ID).WithError(err).Warn("could not remove previous avatar")
	}

	return M{"user": serializer.User(user, viewer)}, nil
}

func (s *Users) open(user *model.User, userAgent string) (Render, error) {
	current := s.sessions.Generate(user.ID, userAgent)
	if err := s.db.Save(current); err != nil {
		return nil, errors.Wrap(err, "could not persist session")
	}

	viewer, err := Viewer(s.db, s.log, user)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens(current)
	if err != nil {
		return nil, err
	}

	return M{
		"user":  serializer.User(user, viewer),
		"token": tokens,
	}, nil
}

func (s *Users) tokens(current *model.Session) (map[string]any, error) {
	token, err := s.sessions.Token(current)
	if err != nil {
		return nil, err
	}
	return serializer.Tokens(current, token, s.sessions.AccessTokenExpireAt(current).UTC()), nil
}

func invalidCredentials() error {
	return skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "Invalid email or password.")
}
