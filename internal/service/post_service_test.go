package service

import (
	"context"
	"strings"
	"testing"

	"go-blog/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostService_CreatePostAppearsInFeeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "auth")
	group := f.group(t, "test-slug")

	post, err := f.posts.CreatePost(ctx, user, CreatePostInput{
		Text:    "Test_post",
		GroupID: &group.ID,
		Image:   gifUpload("small.gif"),
	})
	require.NoError(t, err)
	require.NotZero(t, post.ID)
	assert.True(t, strings.HasPrefix(post.Image, "posts/"))

	index, err := f.feeds.Index(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, countText(index.Items, "Test_post"))

	byGroup, err := f.feeds.GroupFeed(ctx, "test-slug", "")
	require.NoError(t, err)
	assert.Equal(t, 1, countText(byGroup.Page.Items, "Test_post"))

	profile, err := f.feeds.ProfileFeed(ctx, Anonymous, "auth", "")
	require.NoError(t, err)
	assert.Equal(t, 1, countText(profile.Page.Items, "Test_post"))
	assert.Equal(t, "posts/1-small.gif", profile.Page.Items[0].Image)

	require.Len(t, f.published.events, 1)
	assert.Equal(t, post.ID, f.published.events[0].PostID)
	assert.Equal(t, "test-slug", f.published.events[0].GroupSlug)
}

func TestPostService_CreatePostRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.user(t, "auth")

	_, err := f.posts.CreatePost(ctx, Anonymous, CreatePostInput{Text: "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.posts.CreatePost(ctx, user, CreatePostInput{Text: ""})
	ve, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "text")

	missing := uint(999)
	_, err = f.posts.CreatePost(ctx, user, CreatePostInput{Text: "x", GroupID: &missing})
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "group")

	_, err = f.posts.CreatePost(ctx, user, CreatePostInput{
		Text:  "x",
		Image: &storage.Upload{Filename: "a.txt", ContentType: "text/plain", Reader: strings.NewReader("x")},
	})
	ve, ok = AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "image")

	_, err = f.posts.CreatePost(ctx, user, CreatePostInput{
		Text:  "x",
		Image: &storage.Upload{Filename: "evil.html", ContentType: "image/png", Reader: strings.NewReader("<script>alert(1)</script>")},
	})
	ve, ok = AsValidationError(err)
	require.True(t, ok, "declared content type is not trusted")
	assert.Contains(t, ve.Fields, "image")

	index, err := f.feeds.Index(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, index.Items)
	assert.Empty(t, f.published.events)
}

func TestPostService_EditPostPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	g1 := f.group(t, "g1")
	g2 := f.group(t, "g2")
	post, err := f.posts.CreatePost(ctx, author, CreatePostInput{Text: "Test_post", GroupID: &g1.ID, Image: gifUpload("small.gif")})
	require.NoError(t, err)

	text := "Edited_Test_post"
	edited, err := f.posts.EditPost(ctx, author, post.ID, EditPostInput{Text: &text, GroupID: &g2.ID})
	require.NoError(t, err)
	assert.Equal(t, text, edited.Text)

	stored, err := f.feeds.PostDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, text, stored.Post.Text)
	require.NotNil(t, stored.Post.GroupID)
	assert.Equal(t, g2.ID, *stored.Post.GroupID)
	assert.Equal(t, author.UserID, stored.Post.AuthorID)
	assert.Equal(t, post.Image, stored.Post.Image, "image was not supplied and must be kept")

	old, err := f.feeds.GroupFeed(ctx, "g1", "")
	require.NoError(t, err)
	assert.Empty(t, old.Page.Items)
}

func TestPostService_EditPostClearGroupAndReplaceImage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	g := f.group(t, "g")
	post, err := f.posts.CreatePost(ctx, author, CreatePostInput{Text: "t", GroupID: &g.ID, Image: gifUpload("a.gif")})
	require.NoError(t, err)
	oldImage := post.Image

	edited, err := f.posts.EditPost(ctx, author, post.ID, EditPostInput{ClearGroup: true, Image: gifUpload("b.gif")})
	require.NoError(t, err)
	assert.Nil(t, edited.GroupID)
	assert.NotEqual(t, oldImage, edited.Image)
	assert.Contains(t, f.images.deleted, oldImage)

	stored, err := f.feeds.PostDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "t", stored.Post.Text)
	assert.Nil(t, stored.Post.GroupID)
}

func TestPostService_EditPostByNonAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	other := f.user(t, "other")
	post := f.post(t, author, nil, "Test_post")

	text := "hijacked"
	_, err := f.posts.EditPost(ctx, other, post.ID, EditPostInput{Text: &text})
	assert.ErrorIs(t, err, ErrRedirectToDetail)

	_, err = f.posts.EditPost(ctx, Anonymous, post.ID, EditPostInput{Text: &text})
	assert.ErrorIs(t, err, ErrUnauthorized)

	stored, err := f.feeds.PostDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test_post", stored.Post.Text)

	_, err = f.posts.EditPost(ctx, author, 9999, EditPostInput{Text: &text})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_AddComment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	reader := f.user(t, "reader")
	post := f.post(t, author, nil, "Test_post")

	_, err := f.posts.AddComment(ctx, Anonymous, post.ID, CommentInput{Text: "anon"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	detail, err := f.feeds.PostDetail(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Comments)

	_, err = f.posts.AddComment(ctx, reader, post.ID, CommentInput{Text: "older"})
	require.NoError(t, err)
	c, err := f.posts.AddComment(ctx, reader, post.ID, CommentInput{Text: "Test_comment"})
	require.NoError(t, err)

	detail, err = f.feeds.PostDetail(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, c.ID, detail.Comments[0].ID, "new comment is the most recent entry")
	assert.Equal(t, "reader", detail.Comments[0].Author.Username)

	_, err = f.posts.AddComment(ctx, reader, post.ID, CommentInput{Text: " "})
	_, ok := AsValidationError(err)
	assert.True(t, ok)

	_, err = f.posts.AddComment(ctx, reader, 9999, CommentInput{Text: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostService_PostForEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.user(t, "auth")
	other := f.user(t, "other")
	post := f.post(t, author, nil, "Test_post")

	got, err := f.posts.PostForEdit(ctx, author, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test_post", got.Text)

	_, err = f.posts.PostForEdit(ctx, other, post.ID)
	assert.ErrorIs(t, err, ErrRedirectToDetail)

	_, err = f.posts.PostForEdit(ctx, Anonymous, post.ID)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.posts.PostForEdit(ctx, author, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}
