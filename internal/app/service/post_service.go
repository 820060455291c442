package service

import (
	"context"
	"errors"
	"strings"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/repository"
	"github.com/ikkim/qna-forum-backend/internal/cache"
	"github.com/ikkim/qna-forum-backend/internal/metrics"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"github.com/ikkim/qna-forum-backend/pkg/vote"
	"gorm.io/gorm"
)

type PostService interface {
	CreatePost(req *model.CreatePostRequest, authorID uint) (*model.Post, error)
	GetPost(id uint) (*model.Post, error)
	ListPosts(query *model.PostListQuery) (*model.PostListResponse, error)
	UpdatePost(id, userID uint, req *model.UpdatePostRequest) (*model.Post, error)
	DeletePost(id, userID uint) error
	Vote(postID, userID uint, dir vote.Direction) (*model.VoteResponse, error)
	SetAnswered(ctx context.Context, postID, userID uint, answered bool) (*model.Post, error)
}

type postService struct {
	posts     repository.PostRepository
	replies   repository.ReplyRepository
	users     repository.UserRepository
	votes     repository.VoteRepository
	cache     cache.ReplyCache
	publisher EventPublisher
}

// NewPostService wires the post use cases. cache and publisher may be nil.
func NewPostService(
	posts repository.PostRepository,
	replies repository.ReplyRepository,
	users repository.UserRepository,
	votes repository.VoteRepository,
	replyCache cache.ReplyCache,
	publisher EventPublisher,
) PostService {
	return &postService{
		posts:     posts,
		replies:   replies,
		users:     users,
		votes:     votes,
		cache:     replyCache,
		publisher: publisher,
	}
}

func (s *postService) CreatePost(req *model.CreatePostRequest, authorID uint) (*model.Post, error) {
	title, err := model.NormalizePostTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := model.NormalizePostContent(req.Content)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindRole(authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewValidationError("author", "author does not exist")
		}
		return nil, err
	}

	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == "" {
		category = "general"
	}

	post := &model.Post{
		Title:    title,
		Content:  content,
		Category: category,
		AuthorID: authorID,
	}
	if err := s.posts.Create(post); err != nil {
		return nil, err
	}

	logger.Info("Post created", map[string]interface{}{
		"post_id":   post.ID,
		"author_id": authorID,
		"category":  category,
	})

	post.Present()
	return post, nil
}

func (s *postService) GetPost(id uint) (*model.Post, error) {
	post, err := s.findPost(id)
	if err != nil {
		return nil, err
	}
	post.Present()
	return post, nil
}

func (s *postService) ListPosts(query *model.PostListQuery) (*model.PostListResponse, error) {
	posts, total, err := s.posts.List(query)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Present()
	}

	page, pageSize := query.Page, query.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return &model.PostListResponse{Posts: posts, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *postService) UpdatePost(id, userID uint, req *model.UpdatePostRequest) (*model.Post, error) {
	post, err := s.findPost(id)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, ErrPostDeleted
	}
	if err := s.requireAuthorOr(post.AuthorID, userID, model.RoleAdmin); err != nil {
		return nil, err
	}

	if req.Title != nil {
		if post.Title, err = model.NormalizePostTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.Content != nil {
		if post.Content, err = model.NormalizePostContent(*req.Content); err != nil {
			return nil, err
		}
	}
	if req.Category != nil {
		if c := strings.ToLower(strings.TrimSpace(*req.Category)); c != "" {
			post.Category = c
		}
	}

	if err := s.posts.Update(post); err != nil {
		return nil, err
	}
	post.Present()
	return post, nil
}

func (s *postService) DeletePost(id, userID uint) error {
	post, err := s.findPost(id)
	if err != nil {
		return err
	}
	if err := s.requireAuthorOr(post.AuthorID, userID, model.RoleInstructor, model.RoleAdmin); err != nil {
		return err
	}
	if post.IsDeleted {
		return nil
	}

	if err := s.posts.SoftDelete(id, userID); err != nil {
		return err
	}
	logger.Info("Post deleted", map[string]interface{}{
		"post_id":    id,
		"deleted_by": userID,
	})
	return nil
}

func (s *postService) Vote(postID, userID uint, dir vote.Direction) (*model.VoteResponse, error) {
	post, err := s.findPost(postID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, ErrPostDeleted
	}

	before := vote.NewTally(post.Upvotes, post.Downvotes).Contribution(userID)
	tally, err := s.votes.Toggle(model.VoteTargetPost, postID, userID, dir)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}

	after := tally.Contribution(userID)
	metrics.VoteTogglesTotal.WithLabelValues(string(model.VoteTargetPost), dir.String(), voteOutcome(before, after)).Inc()

	return &model.VoteResponse{
		Upvotes:   tally.Upvoters(),
		Downvotes: tally.Downvoters(),
		VoteScore: tally.Score(),
		Message:   voteMessage(dir, after),
	}, nil
}

// SetAnswered lets the post author or staff flag a question as answered without accepting a reply.
// Clearing the flag also withdraws the accepted reply.
func (s *postService) SetAnswered(ctx context.Context, postID, userID uint, answered bool) (*model.Post, error) {
	post, err := s.findPost(postID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, ErrPostDeleted
	}
	if err := s.requireAuthorOr(post.AuthorID, userID, model.RoleInstructor, model.RoleAdmin); err != nil {
		return nil, err
	}

	if err := s.posts.SetAnswered(postID, answered); err != nil {
		return nil, err
	}
	if !answered && post.AcceptedReplyID != nil {
		s.replyChanged(ctx, postID, *post.AcceptedReplyID)
	}
	return s.GetPost(postID)
}

// replyChanged drops the post's cached reply lists and pushes the reloaded reply to subscribers
func (s *postService) replyChanged(ctx context.Context, postID, replyID uint) {
	if s.cache != nil {
		if err := s.cache.InvalidatePost(ctx, postID); err != nil {
			logger.Warn("Reply cache invalidation failed", map[string]interface{}{
				"post_id": postID,
				"error":   err.Error(),
			})
		}
	}
	if s.publisher == nil || s.replies == nil {
		return
	}
	reply, err := s.replies.FindByID(replyID)
	if err != nil {
		logger.Warn("Failed to reload reply for event", map[string]interface{}{
			"reply_id": replyID,
			"error":    err.Error(),
		})
		return
	}
	reply.Present()
	s.publisher.PublishReplyEvent(model.ReplyEvent{
		Type:          model.ReplyEventUpdated,
		PostID:        postID,
		ParentReplyID: reply.ParentReplyID,
		Reply:         reply,
	})
}

func (s *postService) findPost(id uint) (*model.Post, error) {
	post, err := s.posts.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPostNotFound
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// requireAuthorOr passes for the author or any user holding one of roles
func (s *postService) requireAuthorOr(authorID, userID uint, roles ...model.UserRole) error {
	if authorID == userID {
		return nil
	}
	role, err := s.users.FindRole(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPermissionDenied
	}
	if err != nil {
		return err
	}
	for _, r := range roles {
		if role == r {
			return nil
		}
	}
	return ErrPermissionDenied
}
