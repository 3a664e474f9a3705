package server_test

import (
	"net/http"
	"testing"

	"github.com/appleboy/gofight/v2"
	"github.com/mdouchement/skystore/internal/policy"
	"github.com/stretchr/testify/assert"
)

func TestRequestBlogVisibility(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	user := createUser(ctrl, "user")
	moderator := createUser(ctrl, "moderator", policy.CanUnpublishProduct)
	manager := createUser(ctrl, "manager", policy.CanManageBlog)

	published := createPost(ctrl, "published", policy.StatePublished)
	draft := createPost(ctrl, "draft", policy.StateUnpublished)

	listing := func(token string, manage bool, expected ...string) {
		rq := gofight.New().GET("/blog")
		if token != "" {
			rq.SetHeader(bearer(token))
		}
		rq.Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)
			assert.Equal(t, expected, names(t, r, "posts", "title"))
			assert.Equal(t, manage, decode(t, r)["can_manage_blog"])

			for _, post := range decode(t, r)["posts"].([]any) {
				assert.NotContains(t, post, "view_count")
				assert.NotContains(t, post, "content")
			}
		})
	}

	listing("", false, "published")
	listing(accessToken(ctrl, user), false, "published")
	// Product moderation grants nothing on the blog.
	listing(accessToken(ctrl, moderator), false, "published")
	listing(accessToken(ctrl, manager), true, "draft", "published")

	for _, token := range []string{"", accessToken(ctrl, user), accessToken(ctrl, moderator)} {
		rq := gofight.New().GET("/blog/" + draft.ID)
		if token != "" {
			rq.SetHeader(bearer(token))
		}
		rq.Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusNotFound, r.Code)
			assert.JSONEq(t, `{"error":{"tag":"not-found","message":"Post not found."}}`, r.Body.String())
		})
	}

	// Hidden reads are not counted.
	found, err := ctrl.Database.FindBlogPost(draft.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, found.ViewCount)

	gofight.New().GET("/blog/"+draft.ID).SetHeader(bearer(accessToken(ctrl, manager))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)

		v := decode(t, r)
		assert.Equal(t, "draft", v["post"].(map[string]any)["title"])
		assert.Equal(t, false, v["post"].(map[string]any)["is_published"])
		assert.Equal(t, true, v["can_manage_blog"])
		assert.Equal(t, false, v["can_edit"])
		assert.Equal(t, false, v["can_delete"])
		assert.Equal(t, false, v["can_publish"])
	})

	for i := 1; i <= 2; i++ {
		gofight.New().GET("/blog/"+published.ID).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
			assert.Equal(t, http.StatusOK, r.Code)

			post := decode(t, r)["post"].(map[string]any)
			assert.Equal(t, float64(i), post["view_count"])
			assert.Equal(t, "Lorem ipsum", post["content"])
		})
	}
}

func TestRequestBlogToggle(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	user := createUser(ctrl, "user")
	manager := createUser(ctrl, "manager", policy.CanManageBlog)
	publisher := createUser(ctrl, "publisher", policy.BlogCapabilities()...)

	published := createPost(ctrl, "News", policy.StatePublished)
	path := "/blog/" + published.ID + "/toggle"

	gofight.New().POST(path).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnauthorized, r.Code)
	})

	gofight.New().POST(path).SetHeader(bearer(accessToken(ctrl, user))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
		assert.Equal(t, "permission-denied", decode(t, r)["error"].(map[string]any)["tag"])
	})

	// Managing the blog does not grant publication.
	gofight.New().POST(path).SetHeader(bearer(accessToken(ctrl, manager))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})

	gofight.New().POST(path).SetHeader(bearer(accessToken(ctrl, publisher))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `{"success":true,"is_published":false,"message":"Post \"News\" unpublished."}`, r.Body.String())
	})

	gofight.New().GET("/blog").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, []string{}, names(t, r, "posts", "title"))
	})

	// Unpublished posts are hidden, even to the users allowed to publish them.
	gofight.New().POST(path).SetHeader(bearer(accessToken(ctrl, user))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})

	gofight.New().POST(path).SetHeader(bearer(accessToken(ctrl, publisher))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `{"success":true,"is_published":true,"message":"Post \"News\" published."}`, r.Body.String())
	})

	gofight.New().GET("/blog").Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, []string{"News"}, names(t, r, "posts", "title"))
	})
}

func TestRequestBlogLifecycle(t *testing.T) {
	engine, ctrl, cleanup := setup()
	defer cleanup()

	user := createUser(ctrl, "user")
	manager := createUser(ctrl, "manager", policy.CanManageBlog)
	editor := createUser(ctrl, "editor", policy.CanManageBlog, policy.CanEditAnyBlogPost)
	deleter := createUser(ctrl, "deleter", policy.CanManageBlog, policy.CanDeleteAnyBlogPost)

	params := gofight.D{"title": "Spring sale", "content": "Everything must go."}

	gofight.New().POST("/blog").SetHeader(bearer(accessToken(ctrl, user))).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})

	gofight.New().POST("/blog").SetHeader(bearer(accessToken(ctrl, manager))).SetJSON(gofight.D{"title": "  "}).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusUnprocessableEntity, r.Code)

		fields := decode(t, r)["error"].(map[string]any)["fields"].(map[string]any)
		assert.Equal(t, "This field is required.", fields["title"])
		assert.Equal(t, "This field is required.", fields["content"])
	})

	// Publishing on creation requires the publication capability.
	params["published"] = true
	gofight.New().POST("/blog").SetHeader(bearer(accessToken(ctrl, manager))).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})
	delete(params, "published")

	var id string
	gofight.New().POST("/blog").SetHeader(bearer(accessToken(ctrl, manager))).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusCreated, r.Code)

		post := decode(t, r)["post"].(map[string]any)
		assert.Equal(t, false, post["is_published"])
		id = post["id"].(string)
	})

	// The author edits its own post.
	params["title"] = "Summer sale"
	gofight.New().PUT("/blog/"+id).SetHeader(bearer(accessToken(ctrl, manager))).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, "Summer sale", decode(t, r)["post"].(map[string]any)["title"])
	})

	gofight.New().PUT("/blog/"+id).SetHeader(bearer(accessToken(ctrl, deleter))).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})

	params["title"] = "Autumn sale"
	gofight.New().PUT("/blog/"+id).SetHeader(bearer(accessToken(ctrl, editor))).SetJSON(params).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.Equal(t, "Autumn sale", decode(t, r)["post"].(map[string]any)["title"])
	})

	gofight.New().DELETE("/blog/"+id).SetHeader(bearer(accessToken(ctrl, editor))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusForbidden, r.Code)
	})

	gofight.New().DELETE("/blog/"+id).SetHeader(bearer(accessToken(ctrl, deleter))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusOK, r.Code)
		assert.JSONEq(t, `{"success":true,"message":"Post \"Autumn sale\" deleted."}`, r.Body.String())
	})

	gofight.New().GET("/blog/"+id).SetHeader(bearer(accessToken(ctrl, manager))).Run(engine, func(r gofight.HTTPResponse, rq gofight.HTTPRequest) {
		assert.Equal(t, http.StatusNotFound, r.Code)
	})
}
