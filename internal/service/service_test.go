package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go-blog/internal/event"
	"go-blog/internal/model"
	"go-blog/internal/service/servicetest"
	"go-blog/internal/storage"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	db        *servicetest.DB
	images    *fakeImages
	published *recordingPublisher
	feeds     *FeedService
	posts     *PostService
	follows   *FollowService
	auth      *AuthService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := servicetest.New()
	images := &fakeImages{saved: map[string]bool{}}
	pub := &recordingPublisher{}
	return &fixture{
		db:        db,
		images:    images,
		published: pub,
		feeds:     NewFeedService(db.Users(), db.Groups(), db.Posts(), db.Comments(), db.Follows(), 10),
		posts:     NewPostService(db.Groups(), db.Posts(), db.Comments(), images, pub),
		follows:   NewFollowService(db.Users(), db.Follows()),
		auth:      NewAuthService(db.Users()),
	}
}

func (f *fixture) user(t *testing.T, username string) Identity {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Password: "x"}
	require.NoError(t, f.db.Users().Create(context.Background(), u))
	return Identity{UserID: u.ID, Username: u.Username}
}

func (f *fixture) group(t *testing.T, slug string) *model.Group {
	t.Helper()
	g := &model.Group{Title: "Group " + slug, Slug: slug}
	require.NoError(t, f.db.Groups().Create(context.Background(), g))
	return g
}

func (f *fixture) post(t *testing.T, author Identity, group *model.Group, text string) *model.Post {
	t.Helper()
	in := CreatePostInput{Text: text}
	if group != nil {
		in.GroupID = &group.ID
	}
	p, err := f.posts.CreatePost(context.Background(), author, in)
	require.NoError(t, err)
	return p
}

func gifUpload(name string) *storage.Upload {
	return &storage.Upload{Filename: name, ContentType: "image/gif", Size: 6, Reader: strings.NewReader("GIF89a")}
}

type fakeImages struct {
	mu      sync.Mutex
	n       int
	saved   map[string]bool
	deleted []string
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
	f.deleted = append(f.deleted, key)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.PostPublished
}

func (p *recordingPublisher) PublishPost(_ context.Context, e event.PostPublished) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func countText(posts []model.Post, text string) int {
	n := 0
	for _, p := range posts {
		if p.Text == text {
			n++
		}
	}
	return n
}
