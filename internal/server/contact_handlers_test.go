package server_test

import (
	"net/http"
	"testing"

	"github.com/appleboy/gofight/v2"
	"github.com/mdouchement/skystore/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContacts(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	gofight.New().GET("/contacts").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, "Skystore", decode(t, r)["contact"].(map[string]any)["company_name"])
	})

	info := model.DefaultContactInfo()
	info.CompanyName = "Skystore Ltd"
	require.NoError(t, ctrl.Database.Save(info))

	gofight.New().GET("/contacts").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, "Skystore Ltd", decode(t, r)["contact"].(map[string]any)["company_name"])
	})
}

func TestRequestFeedback(t *testing.T) {
	engine, _, cleanup := setup()
	defer cleanup()

	gofight.New().POST("/contacts").SetJSON(gofight.D{"name": "George", "phone": "12"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)

		fields := decode(t, r)["error"].(map[string]any)["fields"].(map[string]any)
		assert.Equal(t, "Invalid phone number format.", fields["phone"])
		assert.Equal(t, "This field is required.", fields["message"])
	})

	gofight.New().POST("/contacts").SetJSON(gofight.D{"name": "George", "phone": "+7 495 123 45 67", "message": "Hello"}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `{"success":true,"message":"Thank you, George! Your message has been received."}`, r.Body.String())
	})
}
