package forumclient

import (
	"context"

	rs "github.com/ikkim/qna-forum-backend/pkg/replystore"
)

// Actions runs API calls and feeds their outcome into a reply store. Every
// call dispatches RequestStarted for its category, then one Batch with the
// result and RequestSucceeded, or RequestFailed with the server message.
// The error is returned as well.
type Actions struct {
	client *Client
	store  *rs.Store
}

func NewActions(client *Client, store *rs.Store) *Actions {
	return &Actions{client: client, store: store}
}

// FetchReplies loads the top-level replies of a post, or the children of
// parentReply when it is set.
func (a *Actions) FetchReplies(ctx context.Context, postID uint, parentReply *uint, sort string) ([]*rs.Node, error) {
	a.store.Dispatch(rs.RequestStarted{Category: rs.Fetching})

	list, err := a.client.ListReplies(ctx, postID, ListRepliesOptions{ParentReply: parentReply, Sort: sort})
	if err != nil {
		a.fail(rs.Fetching, err)
		return nil, err
	}

	var loaded rs.Action = rs.PostRepliesLoaded{PostID: postID, Replies: list.Replies}
	if parentReply != nil {
		loaded = rs.NestedRepliesLoaded{PostID: postID, ParentReplyID: *parentReply, Replies: list.Replies}
	}
	a.succeed(rs.Fetching, "", loaded)
	return list.Replies, nil
}

func (a *Actions) FetchUserReplies(ctx context.Context, userID uint, page, limit int) (*UserReplies, error) {
	a.store.Dispatch(rs.RequestStarted{Category: rs.UserReplies})

	res, err := a.client.ListUserReplies(ctx, userID, page, limit)
	if err != nil {
		a.fail(rs.UserReplies, err)
		return nil, err
	}

	a.succeed(rs.UserReplies, "", rs.UserRepliesLoaded{Replies: res.Replies, Pagination: res.Pagination})
	return res, nil
}

func (a *Actions) CreateReply(ctx context.Context, postID uint, content string, parentReply *uint) (*rs.Node, error) {
	a.store.Dispatch(rs.RequestStarted{Category: rs.Creating})

	res, err := a.client.CreateReply(ctx, postID, CreateReplyRequest{Content: content, ParentReply: parentReply})
	if err != nil {
		a.fail(rs.Creating, err)
		return nil, err
	}

	a.succeed(rs.Creating, res.Message, rs.ReplyCreated{PostID: postID, Reply: res.Reply, ParentReplyID: parentReply})
	return res.Reply, nil
}

func (a *Actions) Upvote(ctx context.Context, replyID uint) (*VoteResult, error) {
	return a.vote(ctx, replyID, a.client.UpvoteReply)
}

func (a *Actions) Downvote(ctx context.Context, replyID uint) (*VoteResult, error) {
	return a.vote(ctx, replyID, a.client.DownvoteReply)
}

func (a *Actions) vote(ctx context.Context, replyID uint, call func(context.Context, uint) (*VoteResult, error)) (*VoteResult, error) {
	a.store.Dispatch(rs.RequestStarted{Category: rs.Voting})

	res, err := call(ctx, replyID)
	if err != nil {
		a.failReply(rs.Voting, replyID, err)
		return nil, err
	}

	a.succeed(rs.Voting, res.Message, rs.VoteApplied{
		ReplyID:   replyID,
		Upvotes:   res.Upvotes,
		Downvotes: res.Downvotes,
		VoteScore: res.VoteScore,
	})
	return res, nil
}

func (a *Actions) Accept(ctx context.Context, replyID uint) (*rs.Node, error) {
	a.store.Dispatch(rs.RequestStarted{Category: rs.Updating})

	res, err := a.client.AcceptReply(ctx, replyID)
	if err != nil {
		a.failReply(rs.Updating, replyID, err)
		return nil, err
	}

	a.succeed(rs.Updating, res.Message,
		rs.ReplyUpdated{ReplyID: replyID, Patch: rs.PatchFrom(res.Reply)},
		rs.AnswerAccepted{ReplyID: replyID},
	)
	return res.Reply, nil
}

func (a *Actions) Update(ctx context.Context, replyID uint, content string) (*rs.Node, error) {
	a.store.Dispatch(rs.RequestStarted{Category: rs.Updating})

	res, err := a.client.UpdateReply(ctx, replyID, content)
	if err != nil {
		a.failReply(rs.Updating, replyID, err)
		return nil, err
	}

	a.succeed(rs.Updating, res.Message, rs.ReplyUpdated{ReplyID: replyID, Patch: rs.PatchFrom(res.Reply)})
	return res.Reply, nil
}

// Delete soft deletes the reply. Its children stay in the tree.
func (a *Actions) Delete(ctx context.Context, replyID uint) (*rs.Node, error) {
	a.store.Dispatch(rs.RequestStarted{Category: rs.Deleting})

	res, err := a.client.DeleteReply(ctx, replyID)
	if err != nil {
		a.failReply(rs.Deleting, replyID, err)
		return nil, err
	}

	a.succeed(rs.Deleting, res.Message,
		rs.ReplySoftDeleted{ReplyID: replyID},
		rs.ReplyUpdated{ReplyID: replyID, Patch: rs.PatchFrom(res.Reply)},
	)
	return res.Reply, nil
}

func (a *Actions) succeed(c rs.Category, message string, actions ...rs.Action) {
	actions = append(actions, rs.RequestSucceeded{Category: c, Message: message})
	a.store.Dispatch(rs.Batch{Actions: actions})
}

func (a *Actions) fail(c rs.Category, err error) {
	a.store.Dispatch(rs.RequestFailed{Category: c, Message: Message(err)})
}

// failReply records the failure and drops the reply from the store when the
// server no longer knows it.
func (a *Actions) failReply(c rs.Category, replyID uint, err error) {
	failed := rs.RequestFailed{Category: c, Message: Message(err)}
	if !replyNotFound(err) {
		a.store.Dispatch(failed)
		return
	}

	var postID uint
	var cached bool
	a.store.View(func(s *rs.State) {
		if n, ok := s.ReplyByID(replyID); ok {
			postID, cached = n.PostID, true
		}
	})
	if !cached {
		a.store.Dispatch(failed)
		return
	}
	a.store.Dispatch(rs.Batch{Actions: []rs.Action{
		rs.ReplyRemoved{ReplyID: replyID, PostID: postID},
		failed,
	}})
}
