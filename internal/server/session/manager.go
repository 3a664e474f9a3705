package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mdouchement/skystore/internal/database"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/skerror"
	"github.com/pkg/errors"
)

// Issuer is the issuer of the access tokens.
const Issuer = "skystore"

type (
	// A Manager manages sessions.
	Manager interface {
		// Generate creates a new session for the given user.
		Generate(userID, userAgent string) *model.Session
		// Token returns the signed access token of the session.
		Token(session *model.Session) (string, error)
		// Validate validates an access token and returns its session.
		Validate(token string) (*model.Session, error)
		// Refresh regenerates the session identified by the given token pair.
		// The access token may be expired.
		Refresh(access, refresh string) (*model.Session, error)
		// AccessTokenExpireAt returns the expiration date of the access token.
		AccessTokenExpireAt(session *model.Session) time.Time
		// Regenerate regenerates the session's tokens.
		Regenerate(session *model.Session) error
	}

	manager struct {
		db database.Client
		// JWT params
		signingKey []byte
		// Session params
		accessTokenExpirationTime  time.Duration
		refreshTokenExpirationTime time.Duration
	}
)

// NewManager returns a new manager.
func NewManager(db database.Client, signingKey []byte, accessTokenExpirationTime, refreshTokenExpirationTime time.Duration) Manager {
	return &manager{
		db:                         db,
		signingKey:                 signingKey,
		accessTokenExpirationTime:  accessTokenExpirationTime,
		refreshTokenExpirationTime: refreshTokenExpirationTime,
	}
}

func (m *manager) Generate(userID, userAgent string) *model.Session {
	return &model.Session{
		UserID:       userID,
		UserAgent:    userAgent,
		ExpireAt:     time.Now().Add(m.refreshTokenExpirationTime).UTC(),
		AccessToken:  SecureToken(24),
		RefreshToken: SecureToken(24),
	}
}

func (m *manager) Token(session *model.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   session.ID,
		ID:        session.AccessToken,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(m.AccessTokenExpireAt(session)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	return token, errors.Wrap(err, "could not sign access token")
}

func (m *manager) Validate(token string) (*model.Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, skerror.NewWithTagCode(skerror.StatusExpiredAccessToken, skerror.TagExpiredAccess, "The provided access token has expired.")
		}
		return nil, invalidCredentials()
	}

	session, err := m.db.FindSessionByAccessToken(claims.Subject, claims.ID)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, invalidCredentials()
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	// Validate session.
	if m.isSessionExpired(session) {
		return nil, invalidCredentials()
	}

	if m.isAccessTokenExpired(session) {
		return nil, skerror.NewWithTagCode(skerror.StatusExpiredAccessToken, skerror.TagExpiredAccess, "The provided access token has expired.")
	}

	return session, nil
}

func (m *manager) Refresh(access, refresh string) (*model.Session, error) {
	claims, err := m.parse(access, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, invalidCredentials()
	}

	session, err := m.db.FindSessionByTokens(claims.Subject, claims.ID, refresh)
	if err != nil {
		if m.db.IsNotFound(err) {
			return nil, skerror.NewWithTagCode(http.StatusBadRequest, skerror.TagInvalidArgument, "The provided refresh token is not valid.")
		}
		return nil, errors.Wrap(err, "could not get access to database")
	}

	return session, m.Regenerate(session)
}

func (m *manager) AccessTokenExpireAt(session *model.Session) time.Time {
	return session.ExpireAt.Add(-m.refreshTokenExpirationTime).Add(m.accessTokenExpirationTime)
}

func (m *manager) Regenerate(session *model.Session) error {
	if m.isSessionExpired(session) {
		return skerror.NewWithTagCode(
			http.StatusBadRequest,
			skerror.TagExpiredRefresh,
			"The refresh token has expired.",
		)
	}

	session.AccessToken = SecureToken(24)
	session.RefreshToken = SecureToken(24)
	session.ExpireAt = time.Now().Add(m.refreshTokenExpirationTime).UTC()

	return errors.Wrap(m.db.Save(session), "could not save session after refreshing session")
}

func (m *manager) parse(token string, options ...jwt.ParserOption) (*jwt.RegisteredClaims, error) {
	options = append(options,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return m.signingKey, nil
	}, options...)
	if err != nil {
		return nil, err
	}

	if claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("incomplete token claims")
	}
	return &claims, nil
}

func (m *manager) isSessionExpired(session *model.Session) bool {
	return session.ExpireAt.Before(time.Now())
}

func (m *manager) isAccessTokenExpired(session *model.Session) bool {
	return m.AccessTokenExpireAt(session).Before(time.Now())
}

func invalidCredentials() error {
	return skerror.NewWithTagCode(http.StatusUnauthorized, skerror.TagInvalidAuth, "Invalid login credentials.")
}
