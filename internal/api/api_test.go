package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go-blog/internal/event"
	"go-blog/internal/model"
	"go-blog/internal/repository"
	"go-blog/internal/service"
	"go-blog/internal/service/servicetest"
	"go-blog/internal/storage"
	internalws "go-blog/internal/websocket"
	"go-blog/pkg/cache"
	"go-blog/pkg/config"
	"go-blog/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const testCookie = "blog_token"

var allPosts = repository.PostFilter{}

type testApp struct {
	db     *servicetest.DB
	images *fakeImages
	cache  *cache.MemoryStore
	router *gin.Engine
}

func newTestApp(t *testing.T) *testApp {
	return buildTestApp(t, nil, nil)
}

// hub 不为空时新帖通知经 hub 推送, 并注册 /ws/follow/;
// store 为空时使用 fakeImages, 否则 testApp.images 为 nil
func buildTestApp(t *testing.T, hub *internalws.Hub, store storage.Store) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prev := config.GlobalConfig.JWT
	config.GlobalConfig.JWT = config.JWTConfig{Secret: "api-test-secret", Expiration: time.Hour, CookieName: testCookie}
	t.Cleanup(func() { config.GlobalConfig.JWT = prev })

	db := servicetest.New()
	var images *fakeImages
	if store == nil {
		images = &fakeImages{saved: map[string]bool{}}
		store = images
	}
	pages := cache.NewMemoryStore()

	var publisher event.Publisher
	deps := Deps{
		Feeds:         service.NewFeedService(db.Users(), db.Groups(), db.Posts(), db.Comments(), db.Follows(), 10),
		Follows:       service.NewFollowService(db.Users(), db.Follows()),
		Auth:          service.NewAuthService(db.Users()),
		Images:        store,
		PageCache:     pages,
		CookieName:    testCookie,
		CookieTTL:     time.Hour,
		IndexCacheTTL: 20 * time.Second,
		MaxUploadSize: 1 << 20,
	}
	if hub != nil {
		publisher = service.NewNotificationService(db.Follows(), hub)
		deps.Hub = hub
	}
	deps.Posts = service.NewPostService(db.Groups(), db.Posts(), db.Comments(), store, publisher)

	router, err := NewRouter(deps)
	require.NoError(t, err)

	return &testApp{db: db, images: images, cache: pages, router: router}
}

// 直接写入用户并签发令牌
func (a *testApp) user(t *testing.T, username string) (*model.User, string) {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, a.db.Users().Create(context.Background(), u))
	token, err := utils.GenerateToken(u.ID, u.Username)
	require.NoError(t, err)
	return u, token
}

func (a *testApp) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, a.db.Groups().Create(context.Background(), g))
	return g
}

func (a *testApp) post(t *testing.T, author *model.User, group *model.Group, text string) *model.Post {
	t.Helper()
	p := &model.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, a.db.Posts().Create(context.Background(), p))
	return p
}

func (a *testApp) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testApp) get(path, token string) *httptest.ResponseRecorder {
	return a.serve(httptest.NewRequest(http.MethodGet, path, nil), token)
}

func (a *testApp) postForm(path, token string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.serve(req, token)
}

func (a *testApp) postMultipart(t *testing.T, path, token string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	return a.postUpload(t, path, token, fields, filename, "application/octet-stream", content)
}

// postUpload 与 postMultipart 相同, 但文件部分带指定的 Content-Type
func (a *testApp) postUpload(t *testing.T, path, token string, fields map[string]string, filename, contentType string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, filename))
		h.Set("Content-Type", contentType)
		fw, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return a.serve(req, token)
}

func (a *testApp) postCount(t *testing.T) int64 {
	t.Helper()
	n, err := a.db.Posts().Count(context.Background(), allPosts)
	require.NoError(t, err)
	return n
}

func cardCount(body string) int {
	return strings.Count(body, `<article class="post">`)
}

func postPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

// 最小的合法 GIF 头
const gifBody = "GIF89a\x01\x00\x01\x00"

type fakeImages struct {
	mu    sync.Mutex
	n     int
	saved map[string]bool
}

func (f *fakeImages) Save(_ context.Context, u *storage.Upload) (string, error) {
	if !u.IsImage() {
		return "", storage.ErrNotImage
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	key := fmt.Sprintf("posts/%d-%s", f.n, u.Filename)
	f.saved[key] = true
	return key, nil
}

func (f *fakeImages) URL(key string) string { return "/media/" + key }

func (f *fakeImages) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.saved, key)
	return nil
}
