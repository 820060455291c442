package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/db"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type forumFixture struct {
	db      *gorm.DB
	votes   VoteRepository
	replies ReplyRepository
	posts   PostRepository
	users   []model.User
	post    *model.Post
}

func setupForumTest(t *testing.T, userCount int) *forumFixture {
	t.Helper()

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	votes := NewVoteRepository(testDB)
	f := &forumFixture{
		db:      testDB,
		votes:   votes,
		replies: NewReplyRepository(testDB, votes),
		posts:   NewPostRepository(testDB, votes),
	}

	for i := 0; i < userCount; i++ {
		u := model.User{Email: fmt.Sprintf("user%d@example.com", i), Name: fmt.Sprintf("User %d", i), Role: model.RoleStudent}
		require.NoError(t, testDB.Create(&u).Error)
		f.users = append(f.users, u)
	}

	f.post = &model.Post{
		Title:        "Question",
		Content:      "Body",
		AuthorID:     f.users[0].ID,
		LastActivity: time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, testDB.Create(f.post).Error)
	return f
}

func (f *forumFixture) reply(t *testing.T, content string, authorIdx int, parent *model.Reply) *model.Reply {
	t.Helper()
	r := &model.Reply{Content: content, AuthorID: f.users[authorIdx].ID, PostID: f.post.ID}
	if parent != nil {
		r.ParentReplyID = &parent.ID
		r.Depth = parent.Depth + 1
	}
	require.NoError(t, f.replies.Create(r))
	return r
}

func (f *forumFixture) reloadPost(t *testing.T) *model.Post {
	t.Helper()
	var p model.Post
	require.NoError(t, f.db.First(&p, f.post.ID).Error)
	return &p
}
