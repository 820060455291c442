package forumclient

import (
	"time"

	"github.com/ikkim/qna-forum-backend/pkg/replystore"
)

type CreateReplyRequest struct {
	Content     string `json:"content"`
	ParentReply *uint  `json:"parentReply,omitempty"`
}

// ListRepliesOptions filters GET /replies/post/:id. A nil ParentReply lists
// top-level replies.
type ListRepliesOptions struct {
	ParentReply *uint
	Sort        string // votes or created_at
}

// ReplyResult is the body of create, accept, update and delete.
type ReplyResult struct {
	Reply   *replystore.Node `json:"reply"`
	Message string           `json:"message"`
}

type ReplyList struct {
	Replies []*replystore.Node `json:"replies"`
	Count   int                `json:"count"`
}

type UserReplies struct {
	Replies    []*replystore.Node    `json:"replies"`
	Pagination replystore.Pagination `json:"pagination"`
}

// VoteResult is the body of every upvote/downvote endpoint
type VoteResult struct {
	Upvotes   []uint `json:"upvotes"`
	Downvotes []uint `json:"downvotes"`
	VoteScore int    `json:"vote_score"`
	Message   string `json:"message"`
}

type Post struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	ContentHTML string             `json:"content_html,omitempty"`
	Category    string             `json:"category"`
	AuthorID    uint               `json:"author_id"`
	Author      *replystore.Author `json:"author,omitempty"`

	IsAnswered      bool  `json:"is_answered"`
	AcceptedReplyID *uint `json:"accepted_reply_id,omitempty"`

	Upvotes   []uint `json:"upvotes"`
	Downvotes []uint `json:"downvotes"`
	VoteScore int    `json:"vote_score"`

	ReplyCount   int       `json:"reply_count"`
	LastActivity time.Time `json:"last_activity"`

	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PostResult struct {
	Post    *Post  `json:"post"`
	Message string `json:"message,omitempty"`
}

type PostList struct {
	Posts    []Post `json:"posts"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// ListPostsOptions filters GET /posts. Zero values are omitted.
type ListPostsOptions struct {
	Category   string
	AuthorID   uint
	IsAnswered *bool
	Search     string
	Page       int
	PageSize   int
	Sort       string // newest, votes or activity
}

type CreatePostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty"`
	Content  *string `json:"content,omitempty"`
	Category *string `json:"category,omitempty"`
}

// ReplyEvent is one message of the post websocket stream
type ReplyEvent struct {
	Type          string           `json:"type"`
	PostID        uint             `json:"post_id"`
	ParentReplyID *uint            `json:"parent_reply_id,omitempty"`
	Reply         *replystore.Node `json:"reply"`
}

const (
	EventReplyCreated  = "reply_created"
	EventReplyUpdated  = "reply_updated"
	EventReplyDeleted  = "reply_deleted"
	EventReplyVoted    = "reply_voted"
	EventReplyAccepted = "reply_accepted"
)

type errorBody struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
