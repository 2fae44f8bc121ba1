package service

import (
	"context"
	"testing"

	"go-blog/internal/event"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	recipients []uint
	payload    []byte
	calls      int
}

func (d *recordingDispatcher) Deliver(ids []uint, payload []byte) error {
	d.calls++
	d.recipients = append([]uint(nil), ids...)
	d.payload = payload
	return nil
}

func TestNotificationService_PublishPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "author")
	fan := f.user(t, "fan")
	f.user(t, "bystander")
	require.NoError(t, f.follows.Follow(ctx, fan, "author"))

	hub := &recordingDispatcher{}
	svc := NewNotificationService(f.db.Follows(), hub)
	posts := NewPostService(f.db.Groups(), f.db.Posts(), f.db.Comments(), f.images, svc)

	post, err := posts.CreatePost(ctx, author, CreatePostInput{Text: "hello followers"})
	require.NoError(t, err)

	require.Equal(t, 1, hub.calls)
	assert.Equal(t, []uint{fan.UserID}, hub.recipients)

	e, err := event.ParsePostPublished(hub.payload)
	require.NoError(t, err)
	assert.Equal(t, post.ID, e.PostID)
	assert.Equal(t, "author", e.AuthorUsername)
	assert.Equal(t, "hello followers", e.Preview)
}

func TestNotificationService_NoFollowers(t *testing.T) {
	f := newFixture(t)
	hub := &recordingDispatcher{}
	svc := NewNotificationService(f.db.Follows(), hub)

	require.NoError(t, svc.PublishPost(context.Background(), event.PostPublished{PostID: 1, AuthorID: 42}))
	assert.Zero(t, hub.calls)
}
