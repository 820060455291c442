package model

import (
	"time"

	"github.com/ikkim/qna-forum-backend/pkg/util"
)

const (
	MinPostTitleLength   = 3
	MaxPostTitleLength   = 200
	MaxPostContentLength = 10000

	DeletedPostPlaceholder = "[This post has been deleted]"
)

// Post is a question or discussion thread that owns replies
type Post struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title       string `gorm:"type:varchar(200);not null" json:"title"`
	Content     string `gorm:"type:text;not null" json:"content"`
	ContentHTML string `gorm:"-" json:"content_html,omitempty"`
	Category    string `gorm:"type:varchar(50);default:'general';index" json:"category"`

	AuthorID uint  `gorm:"not null;index" json:"author_id"`
	Author   *User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	IsAnswered      bool  `gorm:"default:false" json:"is_answered"`
	AcceptedReplyID *uint `json:"accepted_reply_id,omitempty"`

	Upvotes   []uint `gorm:"-" json:"upvotes"`
	Downvotes []uint `gorm:"-" json:"downvotes"`
	VoteScore int    `gorm:"default:0" json:"vote_score"`

	ReplyCount   int       `gorm:"default:0" json:"reply_count"`
	LastActivity time.Time `gorm:"index" json:"last_activity"`

	IsDeleted bool       `gorm:"default:false;index" json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uint      `json:"deleted_by,omitempty"`
}

func (Post) TableName() string {
	return "posts"
}

func NormalizePostTitle(title string) (string, error) {
	return normalizeText("title", title, MinPostTitleLength, MaxPostTitleLength)
}

func NormalizePostContent(content string) (string, error) {
	return normalizeText("content", content, 1, MaxPostContentLength)
}

// Present masks deleted content and renders markdown.
func (p *Post) Present() {
	if p.Upvotes == nil {
		p.Upvotes = []uint{}
	}
	if p.Downvotes == nil {
		p.Downvotes = []uint{}
	}
	if p.IsDeleted {
		p.Content = DeletedPostPlaceholder
		p.ContentHTML = ""
		return
	}
	p.ContentHTML = util.RenderMarkdown(p.Content)
}

// CreatePostRequest is the body of POST /posts
type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,notblank"`
	Content  string `json:"content" binding:"required,notblank"`
	Category string `json:"category" binding:"omitempty,max=50"`
}

// UpdatePostRequest is the body of PUT /posts/:id
type UpdatePostRequest struct {
	Title    *string `json:"title,omitempty" binding:"omitempty,notblank"`
	Content  *string `json:"content,omitempty" binding:"omitempty,notblank"`
	Category *string `json:"category,omitempty" binding:"omitempty,max=50"`
}

// PostListQuery filters GET /posts
type PostListQuery struct {
	Category   string `form:"category"`
	AuthorID   *uint  `form:"author_id"`
	IsAnswered *bool  `form:"is_answered"`
	Search     string `form:"search"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Sort       string `form:"sort" binding:"omitempty,oneof=newest votes activity"`
}

type PostListResponse struct {
	Posts    []Post `json:"posts"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}
