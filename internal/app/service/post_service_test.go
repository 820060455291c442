package service

import (
	"context"
	"testing"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/repository"
	"github.com/ikkim/qna-forum-backend/internal/db"
	"github.com/ikkim/qna-forum-backend/pkg/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostServiceTest(t *testing.T) (PostService, *model.User, *model.User, *model.User) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	votes := repository.NewVoteRepository(testDB)
	svc := NewPostService(
		repository.NewPostRepository(testDB, votes),
		repository.NewReplyRepository(testDB, votes),
		repository.NewUserRepository(testDB),
		votes,
		nil,
		nil,
	)

	author := &model.User{Email: "author@example.com", Name: "Author", Role: model.RoleStudent}
	other := &model.User{Email: "other@example.com", Name: "Other", Role: model.RoleStudent}
	instructor := &model.User{Email: "ta@example.com", Name: "TA", Role: model.RoleInstructor}
	for _, u := range []*model.User{author, other, instructor} {
		require.NoError(t, testDB.Create(u).Error)
	}
	return svc, author, other, instructor
}

func TestPostService_CreateAndGet(t *testing.T) {
	svc, author, _, _ := setupPostServiceTest(t)

	post, err := svc.CreatePost(&model.CreatePostRequest{Title: "  Channels?  ", Content: "How do *buffered* channels block?", Category: "GoLang"}, author.ID)
	require.NoError(t, err)
	assert.Equal(t, "Channels?", post.Title)
	assert.Equal(t, "golang", post.Category)
	assert.False(t, post.LastActivity.IsZero())
	assert.Contains(t, post.ContentHTML, "<em>buffered</em>")

	got, err := svc.GetPost(post.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Author)
	assert.Equal(t, author.ID, got.Author.ID)

	_, err = svc.GetPost(999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestPostService_CreateValidation(t *testing.T) {
	svc, author, _, _ := setupPostServiceTest(t)

	_, err := svc.CreatePost(&model.CreatePostRequest{Title: "ab", Content: "body"}, author.ID)
	var vErr *model.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)

	_, err = svc.CreatePost(&model.CreatePostRequest{Title: "Valid title", Content: "body"}, 999)
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "author", vErr.Field)
}

func TestPostService_UpdateAndDelete(t *testing.T) {
	svc, author, other, instructor := setupPostServiceTest(t)
	post, err := svc.CreatePost(&model.CreatePostRequest{Title: "Original", Content: "body"}, author.ID)
	require.NoError(t, err)

	title := "Edited title"
	_, err = svc.UpdatePost(post.ID, other.ID, &model.UpdatePostRequest{Title: &title})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := svc.UpdatePost(post.ID, author.ID, &model.UpdatePostRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Edited title", updated.Title)
	assert.Equal(t, "body", updated.Content)

	assert.ErrorIs(t, svc.DeletePost(post.ID, other.ID), ErrPermissionDenied)
	require.NoError(t, svc.DeletePost(post.ID, instructor.ID))

	got, err := svc.GetPost(post.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, model.DeletedPostPlaceholder, got.Content)

	list, err := svc.ListPosts(&model.PostListQuery{})
	require.NoError(t, err)
	assert.Empty(t, list.Posts)

	_, err = svc.Vote(post.ID, other.ID, vote.Up)
	assert.ErrorIs(t, err, ErrPostDeleted)
}

func TestPostService_VoteAndList(t *testing.T) {
	svc, author, other, instructor := setupPostServiceTest(t)
	low, err := svc.CreatePost(&model.CreatePostRequest{Title: "Low score", Content: "body", Category: "misc"}, author.ID)
	require.NoError(t, err)
	high, err := svc.CreatePost(&model.CreatePostRequest{Title: "High score", Content: "body", Category: "golang"}, author.ID)
	require.NoError(t, err)

	res, err := svc.Vote(high.ID, other.ID, vote.Up)
	require.NoError(t, err)
	assert.Equal(t, 1, res.VoteScore)
	res, err = svc.Vote(high.ID, instructor.ID, vote.Up)
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID, instructor.ID}, res.Upvotes)

	_, err = svc.Vote(low.ID, other.ID, vote.Down)
	require.NoError(t, err)

	list, err := svc.ListPosts(&model.PostListQuery{Sort: "votes"})
	require.NoError(t, err)
	require.Len(t, list.Posts, 2)
	assert.Equal(t, high.ID, list.Posts[0].ID)
	assert.Equal(t, int64(2), list.Total)
	assert.Len(t, list.Posts[0].Upvotes, 2)

	list, err = svc.ListPosts(&model.PostListQuery{Category: "golang"})
	require.NoError(t, err)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, high.ID, list.Posts[0].ID)

	list, err = svc.ListPosts(&model.PostListQuery{Search: "LOW"})
	require.NoError(t, err)
	require.Len(t, list.Posts, 1)
	assert.Equal(t, low.ID, list.Posts[0].ID)
}

func TestPostService_SetAnswered(t *testing.T) {
	svc, author, other, _ := setupPostServiceTest(t)
	post, err := svc.CreatePost(&model.CreatePostRequest{Title: "Question", Content: "body"}, author.ID)
	require.NoError(t, err)

	_, err = svc.SetAnswered(context.Background(), post.ID, other.ID, true)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	got, err := svc.SetAnswered(context.Background(), post.ID, author.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsAnswered)

	got, err = svc.SetAnswered(context.Background(), post.ID, author.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsAnswered)
	assert.Nil(t, got.AcceptedReplyID)
}
