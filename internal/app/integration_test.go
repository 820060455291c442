package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/qna-forum-backend/config"
	"github.com/ikkim/qna-forum-backend/internal/app/controller"
	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/repository"
	"github.com/ikkim/qna-forum-backend/internal/app/service"
	"github.com/ikkim/qna-forum-backend/internal/cache"
	"github.com/ikkim/qna-forum-backend/internal/db"
	"github.com/ikkim/qna-forum-backend/internal/middleware"
	"github.com/ikkim/qna-forum-backend/internal/router"
	"github.com/ikkim/qna-forum-backend/internal/websocket"
	"github.com/ikkim/qna-forum-backend/pkg/forumclient"
	rs "github.com/ikkim/qna-forum-backend/pkg/replystore"
	"github.com/ikkim/qna-forum-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type TestServer struct {
	Server *httptest.Server
	Hub    *websocket.Hub

	Student    *model.User
	Other      *model.User
	Instructor *model.User
}

func setupIntegrationTest(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	userRepo := repository.NewUserRepository(testDB)
	voteRepo := repository.NewVoteRepository(testDB)
	postRepo := repository.NewPostRepository(testDB, voteRepo)
	replyRepo := repository.NewReplyRepository(testDB, voteRepo)

	replyCache, err := cache.NewLocal(64, time.Minute)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := websocket.NewHub()
	go hub.Run(ctx)

	replyService := service.NewReplyService(replyRepo, postRepo, userRepo, voteRepo, replyCache, hub)
	postService := service.NewPostService(postRepo, replyRepo, userRepo, voteRepo, replyCache, hub)

	cfg := &config.Config{
		Server:    config.ServerConfig{GinMode: gin.TestMode, MetricsEnabled: true},
		RateLimit: config.RateLimitConfig{WritesPerMinute: 0},
	}
	r := router.NewRouter(
		controller.NewReplyController(replyService),
		controller.NewPostController(postService),
		controller.NewWebsocketController(hub, postService, nil),
		controller.NewHealthController(testDB),
		middleware.NewAuthMiddleware(testSecret),
		cfg,
	)

	srv := httptest.NewServer(r.Setup())
	t.Cleanup(srv.Close)

	ts := &TestServer{Server: srv, Hub: hub}
	for _, u := range []struct {
		dst  **model.User
		user model.User
	}{
		{&ts.Student, model.User{Email: "student@test.com", Name: "Student", Role: model.RoleStudent}},
		{&ts.Other, model.User{Email: "other@test.com", Name: "Other", Role: model.RoleStudent}},
		{&ts.Instructor, model.User{Email: "instructor@test.com", Name: "Instructor", Role: model.RoleInstructor}},
	} {
		user := u.user
		require.NoError(t, userRepo.Create(&user))
		*u.dst = &user
	}
	return ts
}

// client returns an API client authenticated as user, or anonymous when user is nil.
func (ts *TestServer) client(t *testing.T, user *model.User) *forumclient.Client {
	t.Helper()
	cfg := forumclient.Config{BaseURL: ts.Server.URL, Timeout: 5 * time.Second}
	if user != nil {
		pair, err := util.GenerateTokenPair(user.ID, user.Email, string(user.Role), testSecret, time.Hour, time.Hour)
		require.NoError(t, err)
		cfg.Token = pair.AccessToken
	}
	c, err := forumclient.NewClient(cfg)
	require.NoError(t, err)
	return c
}

func (ts *TestServer) createPost(t *testing.T) uint {
	t.Helper()
	res, err := ts.client(t, ts.Student).CreatePost(context.Background(), forumclient.CreatePostRequest{
		Title:    "How do goroutines get scheduled?",
		Content:  "Looking for an explanation of **GOMAXPROCS**.",
		Category: "go",
	})
	require.NoError(t, err)
	return res.Post.ID
}

func TestIntegration_ReplyThreadFlow(t *testing.T) {
	ts := setupIntegrationTest(t)
	ctx := context.Background()
	postID := ts.createPost(t)

	studentStore := rs.NewStore()
	student := forumclient.NewActions(ts.client(t, ts.Student), studentStore)
	otherStore := rs.NewStore()
	other := forumclient.NewActions(ts.client(t, ts.Other), otherStore)

	// Other answers, student asks a follow-up under the answer.
	answer, err := other.CreateReply(ctx, postID, "Use `runtime.GOMAXPROCS`.", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, answer.Depth)
	assert.Contains(t, answer.ContentHTML, "<code>runtime.GOMAXPROCS</code>")

	followUp, err := student.CreateReply(ctx, postID, "Does it change at runtime?", &answer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, followUp.Depth)

	// A fresh view loads the thread level by level.
	_, err = student.FetchReplies(ctx, postID, nil, "")
	require.NoError(t, err)
	_, err = student.FetchReplies(ctx, postID, &answer.ID, "")
	require.NoError(t, err)
	studentStore.View(func(s *rs.State) {
		require.Len(t, s.Replies(postID), 1)
		require.Len(t, s.Replies(postID)[0].Replies, 1)
		assert.Same(t, s.Replies(postID)[0].Replies[0], s.Cache[followUp.ID])
	})

	// Voting toggles.
	vote, err := student.Upvote(ctx, answer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, vote.VoteScore)
	vote, err = student.Downvote(ctx, answer.ID)
	require.NoError(t, err)
	assert.Equal(t, -1, vote.VoteScore)
	assert.Equal(t, []uint{ts.Student.ID}, vote.Downvotes)
	vote, err = student.Downvote(ctx, answer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, vote.VoteScore)

	// The post author accepts the answer.
	accepted, err := student.Accept(ctx, answer.ID)
	require.NoError(t, err)
	assert.True(t, accepted.IsAcceptedAnswer)
	post, err := ts.client(t, nil).GetPost(ctx, postID)
	require.NoError(t, err)
	assert.True(t, post.IsAnswered)
	assert.Equal(t, 2, post.ReplyCount)

	// The answer's author edits it; the student's view is refreshed by refetch.
	_, err = other.Update(ctx, answer.ID, "Use `runtime.GOMAXPROCS(n)`.")
	require.NoError(t, err)

	// Soft delete keeps the follow-up attached.
	deleted, err := other.Delete(ctx, answer.ID)
	require.NoError(t, err)
	assert.True(t, deleted.IsDeleted)
	assert.Equal(t, model.DeletedReplyPlaceholder, deleted.Content)
	assert.False(t, deleted.IsAcceptedAnswer)
	post, err = ts.client(t, nil).GetPost(ctx, postID)
	require.NoError(t, err)
	assert.False(t, post.IsAnswered, "deleting the accepted answer reopens the question")

	_, err = student.FetchReplies(ctx, postID, nil, "")
	require.NoError(t, err)
	studentStore.View(func(s *rs.State) {
		top := s.Replies(postID)
		require.Len(t, top, 1)
		assert.True(t, top[0].IsDeleted)
		assert.Equal(t, rs.DeletedPlaceholder, top[0].Content)
		require.Len(t, top[0].Replies, 1, "children loaded earlier are carried over")
	})

	_, err = other.Upvote(ctx, answer.ID)
	assert.ErrorIs(t, err, forumclient.ErrConflict)

	// Profile listing.
	page, err := student.FetchUserReplies(ctx, ts.Student.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Replies, 1)
	assert.Equal(t, int64(1), page.Pagination.TotalReplies)
}

func TestIntegration_Permissions(t *testing.T) {
	ts := setupIntegrationTest(t)
	ctx := context.Background()
	postID := ts.createPost(t)

	anon := ts.client(t, nil)
	_, err := anon.CreateReply(ctx, postID, forumclient.CreateReplyRequest{Content: "hi"})
	assert.ErrorIs(t, err, forumclient.ErrUnauthorized)

	other := ts.client(t, ts.Other)
	res, err := other.CreateReply(ctx, postID, forumclient.CreateReplyRequest{Content: "An answer"})
	require.NoError(t, err)
	replyID := res.Reply.ID

	_, err = other.AcceptReply(ctx, replyID)
	assert.ErrorIs(t, err, forumclient.ErrForbidden, "only the post author or staff may accept")

	_, err = ts.client(t, ts.Student).UpdateReply(ctx, replyID, "hijacked")
	assert.ErrorIs(t, err, forumclient.ErrForbidden)

	_, err = ts.client(t, ts.Instructor).AcceptReply(ctx, replyID)
	assert.NoError(t, err)

	_, err = other.CreateReply(ctx, postID, forumclient.CreateReplyRequest{Content: "   "})
	assert.ErrorIs(t, err, forumclient.ErrInvalidRequest)

	_, err = other.UpvoteReply(ctx, 9999)
	var apiErr *forumclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, forumclient.CodeReplyNotFound, apiErr.Code)

	list, err := anon.ListReplies(ctx, postID, forumclient.ListRepliesOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
}

func TestIntegration_PostEndpoints(t *testing.T) {
	ts := setupIntegrationTest(t)
	ctx := context.Background()
	postID := ts.createPost(t)
	student := ts.client(t, ts.Student)

	byCategory, err := student.ListPostsByCategory(ctx, "Go", forumclient.ListPostsOptions{})
	require.NoError(t, err)
	require.Len(t, byCategory.Posts, 1)
	assert.Equal(t, postID, byCategory.Posts[0].ID)

	vote, err := ts.client(t, ts.Other).UpvotePost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 1, vote.VoteScore)

	res, err := student.SetAnswered(ctx, postID, true)
	require.NoError(t, err)
	assert.True(t, res.Post.IsAnswered)

	_, err = ts.client(t, ts.Other).SetAnswered(ctx, postID, false)
	assert.ErrorIs(t, err, forumclient.ErrForbidden)

	require.NoError(t, student.DeletePost(ctx, postID))
	_, err = ts.client(t, ts.Other).CreateReply(ctx, postID, forumclient.CreateReplyRequest{Content: "late"})
	assert.Error(t, err)
}

func TestIntegration_WebsocketStream(t *testing.T) {
	ts := setupIntegrationTest(t)
	postID := ts.createPost(t)

	watcherStore := rs.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	watcher := ts.client(t, nil)
	errCh := make(chan error, 1)
	go func() { errCh <- watcher.Subscribe(ctx, postID, watcherStore) }()

	require.Eventually(t, func() bool { return ts.Hub.SubscriberCount(postID) == 1 }, 2*time.Second, 10*time.Millisecond)

	other := ts.client(t, ts.Other)
	res, err := other.CreateReply(context.Background(), postID, forumclient.CreateReplyRequest{Content: "live answer"})
	require.NoError(t, err)
	_, err = other.UpvoteReply(context.Background(), res.Reply.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		score := 0
		watcherStore.View(func(s *rs.State) {
			if n, ok := s.ReplyByID(res.Reply.ID); ok {
				score = n.VoteScore
			}
		})
		return score == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}

func TestIntegration_HealthAndMetrics(t *testing.T) {
	ts := setupIntegrationTest(t)
	require.NoError(t, ts.client(t, nil).Health(context.Background()))

	resp, err := http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}
