package server_test

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/appleboy/gofight/v2"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/mdouchement/skystore/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestRegister(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	params := gofight.D{
		"username":              "george",
		"email":                 "george@nowhere.lan",
		"password":              "password42",
		"password_confirmation": "password42",
	}

	gofight.New().POST("/users/register").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		v := decode(t, r)
		user := v["user"].(map[string]any)
		assert.Equal(t, "george", user["username"])
		assert.Equal(t, []any{}, user["capabilities"])
		assert.NotContains(t, user, "password")

		token := v["token"].(map[string]any)
		assert.NotEmpty(t, token["access_token"])
		assert.NotEmpty(t, token["refresh_token"])
	})

	gofight.New().POST("/users/register").SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)

		fields := decode(t, r)["error"].(map[string]any)["fields"].(map[string]any)
		assert.Equal(t, "A user with that username already exists.", fields["username"])
		assert.Equal(t, "A user with that email already exists.", fields["email"])
	})

	gofight.New().POST("/users/register").SetJSON(gofight.D{
		"username":              "ringo",
		"email":                 "ringo",
		"password":              "short",
		"password_confirmation": "shorts",
	}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)

		fields := decode(t, r)["error"].(map[string]any)["fields"].(map[string]any)
		assert.Equal(t, "Enter a valid email address.", fields["email"])
		assert.Contains(t, fields["password"], "too short")
		assert.Equal(t, "The two password fields didn't match.", fields["password_confirmation"])
	})

	user := createUser(ctrl, "paul")
	gofight.New().POST("/users/register").SetHeader(bearer(accessToken(ctrl, user))).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
		assert.Equal(t, "invalid-argument", decode(t, r)["error"].(map[string]any)["tag"])
	})

	gofight.New().POST("/users/register").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
	})
}

func TestRequestRegisterDisabled(t *testing.T) {
	_, ctrl, cleanup := setup()
	defer cleanup()

	ctrl.NoRegistration = true
	engine := server.EchoEngine(ctrl)

	gofight.New().POST("/users/register").SetJSON(gofight.D{"username": "george"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}

func TestRequestLogin(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	user := createUser(ctrl, "george")

	gofight.New().POST("/users/login").SetJSON(gofight.D{"email": "george@nowhere.lan", "password": "nope"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid email or password."}}`, r.Body.String())
	})

	gofight.New().POST("/users/login").SetJSON(gofight.D{"email": "nobody@nowhere.lan", "password": "password42"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Invalid email or password."}}`, r.Body.String())
	})

	gofight.New().POST("/users/login").SetJSON(gofight.D{}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)
	})

	var token string
	gofight.New().POST("/users/login").SetJSON(gofight.D{"email": "george@nowhere.lan", "password": "password42"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		v := decode(t, r)
		assert.Equal(t, user.ID, v["user"].(map[string]any)["id"])
		token = v["token"].(map[string]any)["access_token"].(string)
	})

	gofight.New().GET("/users/profile").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, "george", decode(t, r)["user"].(map[string]any)["username"])
	})

	user.IsActive = false
	require.NoError(t, ctrl.Database.Save(user))

	gofight.New().POST("/users/login").SetJSON(gofight.D{"email": "george@nowhere.lan", "password": "password42"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"This account is inactive."}}`, r.Body.String())
	})

	// An inactive user is treated as anonymous.
	gofight.New().GET("/users/profile").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})
}

func TestRequestLogout(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	token := accessToken(ctrl, createUser(ctrl, "george"))

	gofight.New().POST("/users/logout").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `{"success":true}`, r.Body.String())
	})

	gofight.New().GET("/users/profile").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})

	gofight.New().POST("/users/logout").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})
}

func TestRequestRefresh(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	user := createUser(ctrl, "george")
	sessions := server.SessionManager(ctrl)

	// The access token of this session is already expired.
	session := sessions.Generate(user.ID, "Go-http-client/1.1")
	session.ExpireAt = time.Now().Add(ctrl.RefreshTokenExpirationTime - ctrl.AccessTokenExpirationTime - time.Minute)
	require.NoError(t, ctrl.Database.Save(session))
	expired, err := sessions.Token(session)
	require.NoError(t, err)

	gofight.New().GET("/users/profile").SetHeader(bearer(expired)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, 498, r.Code)
		assert.Equal(t, "expired-access-token", decode(t, r)["error"].(map[string]any)["tag"])
	})

	gofight.New().POST("/users/refresh").SetJSON(gofight.D{"access_token": expired, "refresh_token": "nope"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
	})

	gofight.New().POST("/users/refresh").SetJSON(gofight.D{"access_token": "nope", "refresh_token": session.RefreshToken}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})

	// Clients usually keep sending their expired access token while refreshing.
	var renewed string
	gofight.New().POST("/users/refresh").SetHeader(bearer(expired)).SetJSON(gofight.D{"access_token": expired, "refresh_token": session.RefreshToken}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r)
		assert.NotEqual(t, session.RefreshToken, v["refresh_token"])
		renewed, _ = v["access_token"].(string)
	})

	gofight.New().GET("/users/profile").SetHeader(bearer(renewed)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
	})

	// The refresh token cannot be used twice.
	gofight.New().POST("/users/refresh").SetJSON(gofight.D{"access_token": expired, "refresh_token": session.RefreshToken}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusBadRequest, r.Code)
	})
}

func TestRequestRevokedToken(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	user := createUser(ctrl, "george")
	token := accessToken(ctrl, user)

	user.PasswordUpdatedAt = time.Now().Add(time.Hour).Unix()
	require.NoError(t, ctrl.Database.Save(user))

	gofight.New().GET("/users/profile").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Revoked token."}}`, r.Body.String())
	})
}

func TestRequestProfile(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	group := &model.Group{Name: model.ContentManagerGroup}
	group.AddCapability(string(policy.CanManageBlog))
	group.AddCapability(string(policy.CanPublishBlogPost))
	require.NoError(t, ctrl.Database.Save(group))

	user := createUser(ctrl, "george", policy.CanUnpublishProduct)
	user.JoinGroup(group.ID)
	require.NoError(t, ctrl.Database.Save(user))
	createUser(ctrl, "ringo")

	token := accessToken(ctrl, user)

	gofight.New().GET("/users/profile").SetHeader(bearer(token)).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t,
			[]any{"can_manage_blog", "can_publish_blog_post", "can_unpublish_product"},
			decode(t, r)["user"].(map[string]any)["capabilities"],
		)
	})

	gofight.New().GET("/users/profile").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-auth","message":"Authentication required."}}`, r.Body.String())
	})

	params := gofight.D{
		"username":      "george",
		"email":         "ringo@nowhere.lan",
		"phone_number":  "+74951234567",
		"date_of_birth": "1943-02-25",
	}
	gofight.New().PUT("/users/profile").SetHeader(bearer(token)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)

		fields := decode(t, r)["error"].(map[string]any)["fields"].(map[string]any)
		assert.Equal(t, "A user with that email already exists.", fields["email"])
		assert.NotContains(t, fields, "username")
	})

	params["email"] = "george.harrison@nowhere.lan"
	gofight.New().PUT("/users/profile").SetHeader(bearer(token)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r)["user"].(map[string]any)
		assert.Equal(t, "george.harrison@nowhere.lan", v["email"])
		assert.Equal(t, "+74951234567", v["phone_number"])
		assert.Equal(t, "1943-02-25", v["date_of_birth"])
	})

	params["date_of_birth"] = time.Now().AddDate(1, 0, 0).Format("2006-01-02")
	gofight.New().PUT("/users/profile").SetHeader(bearer(token)).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)
	})
}

func TestRequestAvatar(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	token := accessToken(ctrl, createUser(ctrl, "george"))

	avatar := filepath.Join(t.TempDir(), "avatar.png")
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 200, 200))))
	require.NoError(t, os.WriteFile(avatar, buf.Bytes(), 0o600))

	gofight.New().PUT("/users/profile/avatar").SetHeader(bearer(token)).SetFileFromPath([]gofight.UploadFile{{Path: avatar, Name: "avatar"}}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Regexp(t, `^/media/avatars/[0-9a-f-]{36}\.png$`, decode(t, r)["user"].(map[string]any)["avatar"])
	})

	gofight.New().PUT("/users/profile/avatar").SetHeader(bearer(token)).SetFileFromPath([]gofight.UploadFile{{Path: avatar, Name: "picture"}}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)
		assert.JSONEq(t, `{"error":{"tag":"invalid-form","message":"The submitted form is invalid.","fields":{"avatar":"This field is required."}}}`, r.Body.String())
	})
}
