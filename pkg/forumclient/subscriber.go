package forumclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	rs "github.com/ikkim/qna-forum-backend/pkg/replystore"
)

// EventAction converts a websocket event into the store action that mirrors
// it. ok is false for events the store does not track.
func EventAction(ev ReplyEvent) (action rs.Action, ok bool) {
	if ev.Reply == nil {
		return nil, false
	}
	id := ev.Reply.ID

	switch ev.Type {
	case EventReplyCreated:
		return rs.ReplyCreated{PostID: ev.PostID, Reply: ev.Reply, ParentReplyID: ev.ParentReplyID}, true
	case EventReplyUpdated:
		return rs.ReplyUpdated{ReplyID: id, Patch: rs.PatchFrom(ev.Reply)}, true
	case EventReplyDeleted:
		return rs.Batch{Actions: []rs.Action{
			rs.ReplySoftDeleted{ReplyID: id},
			rs.ReplyUpdated{ReplyID: id, Patch: rs.PatchFrom(ev.Reply)},
		}}, true
	case EventReplyVoted:
		return rs.VoteApplied{
			ReplyID:   id,
			Upvotes:   ev.Reply.Upvotes,
			Downvotes: ev.Reply.Downvotes,
			VoteScore: ev.Reply.VoteScore,
		}, true
	case EventReplyAccepted:
		return rs.Batch{Actions: []rs.Action{
			rs.ReplyUpdated{ReplyID: id, Patch: rs.PatchFrom(ev.Reply)},
			rs.AnswerAccepted{ReplyID: id},
		}}, true
	}
	return nil, false
}

// Subscribe streams the reply events of a post into store until ctx is done
// or the server closes the connection. It returns nil when ctx ends the stream.
func (c *Client) Subscribe(ctx context.Context, postID uint, store *rs.Store) error {
	target := strings.Replace(c.config.BaseURL, "http", "ws", 1) + fmt.Sprintf("%s/ws/posts/%d", apiPrefix, postID)

	header := http.Header{}
	if c.config.Token != "" {
		header.Set("Authorization", "Bearer "+c.config.Token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return &APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("websocket handshake failed: %s", resp.Status)}
		}
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev ReplyEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("%w: %v", ErrNetworkError, err)
		}

		action, ok := EventAction(ev)
		if !ok {
			logger.Debug("Ignoring reply event", map[string]interface{}{"type": ev.Type, "post_id": ev.PostID})
			continue
		}
		if !store.Dispatch(action) {
			return nil
		}
	}
}
