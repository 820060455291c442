package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/internal/app/repository"
	"github.com/ikkim/qna-forum-backend/internal/cache"
	"github.com/ikkim/qna-forum-backend/internal/metrics"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"github.com/ikkim/qna-forum-backend/pkg/vote"
	"gorm.io/gorm"
)

var (
	ErrReplyNotFound    = errors.New("reply not found")
	ErrPostNotFound     = errors.New("post not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrReplyDeleted     = errors.New("reply has been deleted")
	ErrPostDeleted      = errors.New("post has been deleted")
)

// EventPublisher receives reply changes after they are committed
type EventPublisher interface {
	PublishReplyEvent(event model.ReplyEvent)
}

type ReplyService interface {
	Create(ctx context.Context, postID, authorID uint, req *model.CreateReplyRequest) (*model.Reply, error)
	ListByPost(ctx context.Context, postID uint, query *model.ReplyListQuery) ([]model.Reply, error)
	ListByUser(userID uint, page, limit int) (*model.UserRepliesResponse, error)
	Vote(ctx context.Context, replyID, userID uint, dir vote.Direction) (*model.VoteResponse, error)
	MarkAccepted(ctx context.Context, replyID, userID uint) (*model.Reply, error)
	UpdateContent(ctx context.Context, replyID, userID uint, content string) (*model.Reply, error)
	Delete(ctx context.Context, replyID, userID uint) (*model.Reply, error)
}

type replyService struct {
	replies   repository.ReplyRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	votes     repository.VoteRepository
	cache     cache.ReplyCache
	publisher EventPublisher
}

// NewReplyService wires the reply use cases. cache and publisher may be nil.
func NewReplyService(
	replies repository.ReplyRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	votes repository.VoteRepository,
	replyCache cache.ReplyCache,
	publisher EventPublisher,
) ReplyService {
	return &replyService{
		replies:   replies,
		posts:     posts,
		users:     users,
		votes:     votes,
		cache:     replyCache,
		publisher: publisher,
	}
}

func (s *replyService) Create(ctx context.Context, postID, authorID uint, req *model.CreateReplyRequest) (*model.Reply, error) {
	content, err := model.NormalizeReplyContent(req.Content)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.FindByID(postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NewValidationError("post", "post does not exist")
	}
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, model.NewValidationError("post", "cannot reply to a deleted post")
	}

	role, err := s.users.FindRole(authorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.NewValidationError("author", "author does not exist")
	}
	if err != nil {
		return nil, err
	}

	reply := &model.Reply{
		Content:           content,
		AuthorID:          authorID,
		PostID:            postID,
		IsInstructorReply: role == model.RoleInstructor,
	}

	if req.ParentReply != nil {
		parent, err := s.replies.FindByID(*req.ParentReply)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NewValidationError("parentReply", "parent reply does not exist")
		}
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, model.NewValidationError("parentReply", "parent reply belongs to a different post")
		}
		if parent.IsDeleted {
			return nil, model.NewValidationError("parentReply", "cannot reply to a deleted reply")
		}
		depth, err := parent.ChildDepth()
		if err != nil {
			return nil, err
		}
		reply.ParentReplyID = &parent.ID
		reply.Depth = depth
	}

	if err := s.replies.Create(reply); err != nil {
		return nil, err
	}

	metrics.RepliesCreatedTotal.WithLabelValues(strconv.Itoa(reply.Depth)).Inc()
	logger.Info("Reply created", map[string]interface{}{
		"reply_id":  reply.ID,
		"post_id":   postID,
		"author_id": authorID,
		"depth":     reply.Depth,
	})

	reply.Present()
	s.afterWrite(ctx, model.ReplyEventCreated, reply)
	return reply, nil
}

func (s *replyService) ListByPost(ctx context.Context, postID uint, query *model.ReplyListQuery) ([]model.Reply, error) {
	if query == nil {
		query = &model.ReplyListQuery{}
	}

	key := cache.ReplyListKey(postID, query.ParentReply, query.Sort)
	if s.cache != nil {
		var cached []model.Reply
		ok, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.ReplyCacheLookups.WithLabelValues("error").Inc()
			logger.Warn("Reply cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		case ok:
			metrics.ReplyCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.ReplyCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	if _, err := s.posts.FindByID(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	replies, err := s.replies.ListByPost(postID, query.ParentReply, query.Sort)
	if err != nil {
		return nil, err
	}
	for i := range replies {
		replies[i].Present()
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, replies); err != nil {
			logger.Warn("Reply cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
	}
	return replies, nil
}

func (s *replyService) ListByUser(userID uint, page, limit int) (*model.UserRepliesResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	replies, total, err := s.replies.ListByUser(userID, page, limit)
	if err != nil {
		return nil, err
	}
	for i := range replies {
		replies[i].Present()
	}

	return &model.UserRepliesResponse{
		Replies:    replies,
		Pagination: model.NewPagination(page, limit, total),
	}, nil
}

func (s *replyService) Vote(ctx context.Context, replyID, userID uint, dir vote.Direction) (*model.VoteResponse, error) {
	reply, err := s.findReply(replyID)
	if err != nil {
		return nil, err
	}
	if reply.IsDeleted {
		return nil, ErrReplyDeleted
	}

	before := vote.NewTally(reply.Upvotes, reply.Downvotes).Contribution(userID)
	tally, err := s.votes.Toggle(model.VoteTargetReply, replyID, userID, dir)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReplyNotFound
	}
	if err != nil {
		return nil, err
	}

	after := tally.Contribution(userID)
	metrics.VoteTogglesTotal.WithLabelValues(string(model.VoteTargetReply), dir.String(), voteOutcome(before, after)).Inc()

	reply.Upvotes = tally.Upvoters()
	reply.Downvotes = tally.Downvoters()
	reply.VoteScore = tally.Score()
	reply.Present()
	s.afterWrite(ctx, model.ReplyEventVoted, reply)

	return &model.VoteResponse{
		Upvotes:   reply.Upvotes,
		Downvotes: reply.Downvotes,
		VoteScore: reply.VoteScore,
		Message:   voteMessage(dir, after),
	}, nil
}

func (s *replyService) MarkAccepted(ctx context.Context, replyID, userID uint) (*model.Reply, error) {
	reply, err := s.findReply(replyID)
	if err != nil {
		return nil, err
	}
	if reply.IsDeleted {
		return nil, ErrReplyDeleted
	}

	post, err := s.posts.FindByID(reply.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if post.AuthorID != userID {
		role, err := s.actorRole(userID)
		if err != nil {
			return nil, err
		}
		if !role.IsStaff() {
			return nil, ErrPermissionDenied
		}
	}

	if err := s.replies.MarkAccepted(replyID); err != nil {
		return nil, err
	}

	logger.Info("Reply accepted", map[string]interface{}{
		"reply_id": replyID,
		"post_id":  reply.PostID,
		"user_id":  userID,
	})

	reply.IsAcceptedAnswer = true
	reply.Present()
	s.afterWrite(ctx, model.ReplyEventAccepted, reply)
	return reply, nil
}

func (s *replyService) UpdateContent(ctx context.Context, replyID, userID uint, content string) (*model.Reply, error) {
	normalized, err := model.NormalizeReplyContent(content)
	if err != nil {
		return nil, err
	}

	reply, err := s.findReply(replyID)
	if err != nil {
		return nil, err
	}
	if reply.IsDeleted {
		return nil, ErrReplyDeleted
	}

	if reply.AuthorID != userID {
		role, err := s.actorRole(userID)
		if err != nil {
			return nil, err
		}
		if role != model.RoleAdmin {
			return nil, ErrPermissionDenied
		}
	}

	if err := s.replies.UpdateContent(replyID, normalized); err != nil {
		return nil, err
	}

	reply, err = s.findReply(replyID)
	if err != nil {
		return nil, err
	}
	reply.Present()
	s.afterWrite(ctx, model.ReplyEventUpdated, reply)
	return reply, nil
}

func (s *replyService) Delete(ctx context.Context, replyID, userID uint) (*model.Reply, error) {
	reply, err := s.findReply(replyID)
	if err != nil {
		return nil, err
	}

	if reply.AuthorID != userID {
		role, err := s.actorRole(userID)
		if err != nil {
			return nil, err
		}
		if !role.IsStaff() {
			return nil, ErrPermissionDenied
		}
	}

	if err := s.replies.SoftDelete(replyID, userID); err != nil {
		return nil, err
	}

	logger.Info("Reply deleted", map[string]interface{}{
		"reply_id":   replyID,
		"post_id":    reply.PostID,
		"deleted_by": userID,
	})

	reply, err = s.findReply(replyID)
	if err != nil {
		return nil, err
	}
	reply.Present()
	s.afterWrite(ctx, model.ReplyEventDeleted, reply)
	return reply, nil
}

func (s *replyService) findReply(id uint) (*model.Reply, error) {
	reply, err := s.replies.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReplyNotFound
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// actorRole resolves the acting user's role; unknown users get no privileges.
func (s *replyService) actorRole(userID uint) (model.UserRole, error) {
	role, err := s.users.FindRole(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrPermissionDenied
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve user role: %w", err)
	}
	return role, nil
}

func (s *replyService) afterWrite(ctx context.Context, eventType model.ReplyEventType, reply *model.Reply) {
	if s.cache != nil {
		if err := s.cache.InvalidatePost(ctx, reply.PostID); err != nil {
			logger.Warn("Reply cache invalidation failed", map[string]interface{}{
				"post_id": reply.PostID,
				"error":   err.Error(),
			})
		}
	}
	if s.publisher != nil {
		s.publisher.PublishReplyEvent(model.ReplyEvent{
			Type:          eventType,
			PostID:        reply.PostID,
			ParentReplyID: reply.ParentReplyID,
			Reply:         reply,
		})
	}
}

func voteOutcome(before, after int) string {
	switch {
	case after == 0:
		return "retracted"
	case before == 0:
		return "added"
	default:
		return "switched"
	}
}

func voteMessage(dir vote.Direction, after int) string {
	if after == 0 {
		return fmt.Sprintf("%s removed", capitalize(dir.String()))
	}
	return fmt.Sprintf("%s added", capitalize(dir.String()))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
