package repository

import (
	"context"
	"testing"

	"go-blog/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListByPost(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	repo := NewCommentRepository()
	author := createTestUser(t, "commentauthor")
	reader := createTestUser(t, "commentreader")
	post := createTestPost(t, author, nil, "commented", timeAt(0))
	other := createTestPost(t, author, nil, "other", timeAt(1))

	c1 := &model.Comment{PostID: post.ID, AuthorID: reader.ID, Text: "first", CreatedAt: timeAt(2)}
	c2 := &model.Comment{PostID: post.ID, AuthorID: author.ID, Text: "second", CreatedAt: timeAt(3)}
	require.NoError(t, repo.Create(ctx, c1))
	require.NoError(t, repo.Create(ctx, c2))
	require.NoError(t, repo.Create(ctx, &model.Comment{PostID: other.ID, AuthorID: reader.ID, Text: "elsewhere"}))

	comments, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text, "newest comment first")
	assert.Equal(t, "commentauthor", comments[0].Author.Username)

	n, err := repo.CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCommentRepository_DeletePostCascades(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, "cascadepost")
	post := createTestPost(t, author, nil, "bye", timeAt(0))
	require.NoError(t, NewCommentRepository().Create(ctx, &model.Comment{PostID: post.ID, AuthorID: author.ID, Text: "c"}))

	require.NoError(t, NewPostRepository().Delete(ctx, post.ID))

	n, err := NewCommentRepository().CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
