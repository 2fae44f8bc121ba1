package api

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicPages(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.user(t, "auth")
	group := app.group(t, "test-slug")
	post := app.post(t, author, group, "Test_post")

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"Index", "/", http.StatusOK},
		{"Group", "/group/test-slug/", http.StatusOK},
		{"Profile", "/profile/auth/", http.StatusOK},
		{"Detail", postPath(post.ID), http.StatusOK},
		{"About author", "/about/author/", http.StatusOK},
		{"About tech", "/about/tech/", http.StatusOK},
		{"Unknown page", "/unexisting_page/", http.StatusNotFound},
		{"Unknown group", "/group/missing/", http.StatusNotFound},
		{"Unknown profile", "/profile/nobody/", http.StatusNotFound},
		{"Unknown post", "/posts/9999/", http.StatusNotFound},
		{"Non-numeric post", "/posts/abc/", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := app.get(tt.path, "")
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestFeedContext(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.user(t, "auth")
	group := app.group(t, "test-slug")
	other := app.group(t, "other-slug")
	post := app.post(t, author, group, "Test_post")

	body := app.get("/group/test-slug/", "").Body.String()
	assert.Contains(t, body, "Group test-slug")
	assert.Contains(t, body, "Test_post")
	assert.Contains(t, body, "about test-slug")

	assert.NotContains(t, app.get("/group/"+other.Slug+"/", "").Body.String(), "Test_post")

	profile := app.get("/profile/auth/", "").Body.String()
	assert.Contains(t, profile, "Total posts: 1")
	assert.Contains(t, profile, "Test_post")

	detail := app.get(postPath(post.ID), "").Body.String()
	assert.Contains(t, detail, "Test_post")
	assert.Contains(t, detail, "<span>1</span>")
}

func TestFeedPagination(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.user(t, "auth")
	group := app.group(t, "test-slug")
	for i := 0; i < 13; i++ {
		app.post(t, author, group, fmt.Sprintf("post number %d", i))
	}

	for _, path := range []string{"/group/test-slug/", "/profile/auth/"} {
		t.Run(path, func(t *testing.T) {
			assert.Equal(t, 10, cardCount(app.get(path, "").Body.String()))
			assert.Equal(t, 3, cardCount(app.get(path+"?page=2", "").Body.String()))
			assert.Equal(t, 3, cardCount(app.get(path+"?page=99", "").Body.String()), "out of range clamps to the last page")
			assert.Equal(t, 10, cardCount(app.get(path+"?page=abc", "").Body.String()))
		})
	}

	first := app.get("/group/test-slug/", "").Body.String()
	assert.Contains(t, first, "post number 12", "newest post comes first")
	assert.NotContains(t, first, "post number 2<")
}

func TestIndexPageCache(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.user(t, "auth")
	post := app.post(t, author, nil, "cached text")

	require.Contains(t, app.get("/", "").Body.String(), "cached text")

	require.NoError(t, app.db.Posts().Delete(context.Background(), post.ID))
	assert.Contains(t, app.get("/", "").Body.String(), "cached text", "deleted post stays until the cache expires")

	require.NoError(t, app.cache.Delete(context.Background(), "/?page=1|u0"))
	assert.NotContains(t, app.get("/", "").Body.String(), "cached text")
}

func TestPanicRendersServerErrorPage(t *testing.T) {
	app := newTestApp(t)
	app.router.GET("/boom/", func(c *gin.Context) { panic("boom") })

	w := app.get("/boom/", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Server error</h1>")
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestFollowIndex(t *testing.T) {
	app := newTestApp(t)
	author, _ := app.user(t, "auth")
	_, followerToken := app.user(t, "follower")
	_, strangerToken := app.user(t, "stranger")
	app.post(t, author, nil, "for followers")

	w := app.get("/profile/auth/follow/", followerToken)
	require.Equal(t, http.StatusFound, w.Code)

	assert.Contains(t, app.get("/follow/", followerToken).Body.String(), "for followers")
	stranger := app.get("/follow/", strangerToken)
	assert.Equal(t, http.StatusOK, stranger.Code)
	assert.NotContains(t, stranger.Body.String(), "for followers")
}

func TestHealthz(t *testing.T) {
	app := newTestApp(t)
	w := app.get("/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
