package model

import (
	"encoding/json"
	"time"

	"github.com/ikkim/qna-forum-backend/pkg/util"
)

const (
	MaxReplyContentLength = 2000
	MaxReplyDepth         = 5

	// DeletedReplyPlaceholder replaces the content of soft-deleted replies in every response.
	DeletedReplyPlaceholder = "[This reply has been deleted]"
)

// Reply is an answer or comment on a post. Replies form a forest per post
// through ParentReplyID.
type Reply struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `gorm:"index:idx_replies_post_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Content     string `gorm:"type:text;not null" json:"content"`
	ContentHTML string `gorm:"-" json:"content_html,omitempty"`

	AuthorID uint  `gorm:"not null;index" json:"author_id"`
	Author   *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	PostID uint `gorm:"not null;index:idx_replies_post_created,priority:1;index:idx_replies_post_score,priority:1" json:"post_id"`

	// nil for a direct reply to the post
	ParentReplyID *uint `gorm:"index" json:"parent_reply_id"`

	IsAcceptedAnswer  bool `gorm:"default:false;index" json:"is_accepted_answer"`
	IsInstructorReply bool `gorm:"default:false" json:"is_instructor_reply"`

	// Voter sets live in the votes table; VoteScore is kept in sync on every toggle.
	Upvotes   []uint `gorm:"-" json:"upvotes"`
	Downvotes []uint `gorm:"-" json:"downvotes"`
	VoteScore int    `gorm:"default:0;index:idx_replies_post_score,priority:2" json:"vote_score"`

	Depth int `gorm:"default:0" json:"depth"`

	IsDeleted bool       `gorm:"default:false" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uint      `json:"deleted_by,omitempty"`
}

func (Reply) TableName() string {
	return "replies"
}

// NormalizeReplyContent trims content and enforces 1..MaxReplyContentLength characters.
func NormalizeReplyContent(content string) (string, error) {
	return normalizeText("content", content, 1, MaxReplyContentLength)
}

// RecomputeVoteScore sets VoteScore from the voter sets.
func RecomputeVoteScore(r *Reply) {
	r.VoteScore = len(r.Upvotes) - len(r.Downvotes)
}

// ChildDepth returns the depth of a reply to r, or a ValidationError when
// the nesting limit would be exceeded.
func (r *Reply) ChildDepth() (int, error) {
	if r.Depth >= MaxReplyDepth {
		return 0, NewValidationError("parentReply", "maximum reply depth reached")
	}
	return r.Depth + 1, nil
}

// Present prepares a reply for a response: deleted content is masked and
// markdown is rendered.
func (r *Reply) Present() {
	if r.Upvotes == nil {
		r.Upvotes = []uint{}
	}
	if r.Downvotes == nil {
		r.Downvotes = []uint{}
	}
	if r.IsDeleted {
		r.Content = DeletedReplyPlaceholder
		r.ContentHTML = ""
		return
	}
	r.ContentHTML = util.RenderMarkdown(r.Content)
}

// CreateReplyRequest is the body of POST /replies/post/:id. The parent is
// read from "parentReply"; "parent_reply" is accepted as an alias.
type CreateReplyRequest struct {
	Content     string `json:"content" binding:"required,notblank"`
	ParentReply *uint  `json:"parentReply,omitempty"`
}

func (r *CreateReplyRequest) UnmarshalJSON(data []byte) error {
	var body struct {
		Content     string `json:"content"`
		ParentReply *uint  `json:"parentReply"`
		ParentAlias *uint  `json:"parent_reply"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return err
	}
	parent := body.ParentReply
	if body.ParentAlias != nil {
		if parent != nil && *parent != *body.ParentAlias {
			return NewValidationError("parentReply", "parentReply and parent_reply name different replies")
		}
		parent = body.ParentAlias
	}
	r.Content = body.Content
	r.ParentReply = parent
	return nil
}

// UpdateReplyRequest is the body of PUT /replies/:replyId
type UpdateReplyRequest struct {
	Content string `json:"content" binding:"required,notblank"`
}

// ReplyListQuery filters GET /replies/post/:id
type ReplyListQuery struct {
	ParentReply *uint  `form:"parentReply"`
	Sort        string `form:"sort" binding:"omitempty,oneof=votes created_at"`
}

// UserReplyListQuery paginates GET /replies/user/:userId
type UserReplyListQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalReplies int64 `json:"total_replies"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

// NewPagination derives page flags from a total count.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalReplies: total,
		HasNext:      page < totalPages,
		HasPrev:      page > 1,
	}
}

type UserRepliesResponse struct {
	Replies    []Reply    `json:"replies"`
	Pagination Pagination `json:"pagination"`
}
