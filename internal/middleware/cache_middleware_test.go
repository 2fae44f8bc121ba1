package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"go-blog/pkg/cache"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestCachePage(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := cache.NewMemoryStore()
	calls := 0

	r := gin.New()
	r.Use(Identify(fakeAuthenticator{"good": {UserID: 1, Username: "leo"}}, ""))
	r.GET("/", CachePage(store, 20*time.Second), func(c *gin.Context) {
		calls++
		c.String(http.StatusOK, "render "+strconv.Itoa(calls))
	})
	r.GET("/missing", CachePage(store, 20*time.Second), func(c *gin.Context) {
		calls++
		c.String(http.StatusNotFound, "nope")
	})

	get := func(path, token string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, "render 1", get("/", "").Body.String())
	second := get("/", "")
	assert.Equal(t, "render 1", second.Body.String(), "second request is served from cache")
	assert.Equal(t, "text/plain; charset=utf-8", second.Header().Get("Content-Type"))

	assert.Equal(t, "render 2", get("/?page=2", "").Body.String(), "page is part of the key")
	assert.Equal(t, "render 3", get("/", "good").Body.String(), "logged in users get their own entry")

	get("/missing", "")
	get("/missing", "")
	assert.Equal(t, 5, calls, "non-200 responses are not cached")
}

func TestCachePage_KeyIgnoresOtherParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := cache.NewMemoryStore()
	calls := 0

	r := gin.New()
	r.GET("/", CachePage(store, 20*time.Second), func(c *gin.Context) {
		calls++
		c.String(http.StatusOK, "render "+strconv.Itoa(calls))
	})
	get := func(path string) string {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w.Body.String()
	}

	assert.Equal(t, "render 1", get("/"))
	assert.Equal(t, "render 1", get("/?x=1"))
	assert.Equal(t, "render 1", get("/?page=1&utm=abc"))
	assert.Equal(t, "render 1", get("/?page=junk"), "invalid page falls back to page 1")
	assert.Equal(t, "render 2", get("/?page=2&x=9"))
	assert.Equal(t, 2, store.Len())
}
