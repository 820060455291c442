// Package replystore is a client-side cache of threaded replies. It keeps a
// forest of reply nodes per post plus a flat id index that points at the
// same nodes, so a change made through either view is visible in both.
package replystore

import "time"

// DeletedPlaceholder replaces the content of soft-deleted replies.
const DeletedPlaceholder = "[This reply has been deleted]"

// Author is the embedded author summary returned by the API.
type Author struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// Node is one reply as returned by the API. Replies holds the children
// loaded so far; it is nil until a nested fetch or insert fills it.
type Node struct {
	ID          uint    `json:"id"`
	Content     string  `json:"content"`
	ContentHTML string  `json:"content_html,omitempty"`
	AuthorID    uint    `json:"author_id"`
	Author      *Author `json:"author,omitempty"`
	PostID      uint    `json:"post_id"`

	ParentReplyID *uint `json:"parent_reply_id"`

	IsAcceptedAnswer  bool `json:"is_accepted_answer"`
	IsInstructorReply bool `json:"is_instructor_reply"`

	Upvotes   []uint `json:"upvotes"`
	Downvotes []uint `json:"downvotes"`
	VoteScore int    `json:"vote_score"`
	Depth     int    `json:"depth"`

	IsDeleted bool       `json:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *uint      `json:"deleted_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Replies []*Node `json:"replies,omitempty"`
}

// Votes is the vote state of a reply after a toggle.
type Votes struct {
	Upvotes   []uint
	Downvotes []uint
	VoteScore int
}

// ReplyPatch lists the fields an update may touch. Nil fields are left alone.
type ReplyPatch struct {
	Content          *string
	ContentHTML      *string
	IsAcceptedAnswer *bool
	IsDeleted        *bool
	DeletedAt        *time.Time
	DeletedBy        *uint
	UpdatedAt        *time.Time
	Votes            *Votes
}

// PatchFrom builds a patch carrying every mutable field of a server reply.
func PatchFrom(n *Node) ReplyPatch {
	content, html := n.Content, n.ContentHTML
	accepted, deleted := n.IsAcceptedAnswer, n.IsDeleted
	updated := n.UpdatedAt
	return ReplyPatch{
		Content:          &content,
		ContentHTML:      &html,
		IsAcceptedAnswer: &accepted,
		IsDeleted:        &deleted,
		DeletedAt:        n.DeletedAt,
		DeletedBy:        n.DeletedBy,
		UpdatedAt:        &updated,
		Votes: &Votes{
			Upvotes:   n.Upvotes,
			Downvotes: n.Downvotes,
			VoteScore: n.VoteScore,
		},
	}
}

// apply copies the set fields onto n. Applying the same patch twice leaves n
// unchanged the second time.
func (p ReplyPatch) apply(n *Node) {
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.ContentHTML != nil {
		n.ContentHTML = *p.ContentHTML
	}
	if p.IsAcceptedAnswer != nil {
		n.IsAcceptedAnswer = *p.IsAcceptedAnswer
	}
	if p.IsDeleted != nil {
		n.IsDeleted = *p.IsDeleted
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		n.DeletedAt = &t
	}
	if p.DeletedBy != nil {
		by := *p.DeletedBy
		n.DeletedBy = &by
	}
	if p.UpdatedAt != nil {
		n.UpdatedAt = *p.UpdatedAt
	}
	if p.Votes != nil {
		n.Upvotes = append([]uint{}, p.Votes.Upvotes...)
		n.Downvotes = append([]uint{}, p.Votes.Downvotes...)
		n.VoteScore = p.Votes.VoteScore
	}
}

// Pagination mirrors the pagination block of paginated reply listings.
type Pagination struct {
	CurrentPage  int   `json:"current_page"`
	TotalPages   int   `json:"total_pages"`
	TotalReplies int64 `json:"total_replies"`
	HasNext      bool  `json:"has_next"`
	HasPrev      bool  `json:"has_prev"`
}

func defaultPagination() Pagination {
	return Pagination{CurrentPage: 1, TotalPages: 1}
}
