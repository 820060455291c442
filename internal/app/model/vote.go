package model

import "time"

type VoteTarget string

const (
	VoteTargetPost  VoteTarget = "post"
	VoteTargetReply VoteTarget = "reply"
)

// Vote is one user's membership in the upvote (+1) or downvote (-1) set of a target.
// The unique index keeps a user in at most one of the two sets.
type Vote struct {
	ID         uint       `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	TargetType VoteTarget `gorm:"type:varchar(10);not null;uniqueIndex:idx_vote_target_user,priority:1" json:"target_type"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_vote_target_user,priority:2" json:"target_id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_vote_target_user,priority:3;index" json:"user_id"`
	Value      int        `gorm:"not null" json:"value"`
}

func (Vote) TableName() string {
	return "votes"
}

// VoteResponse is returned by every upvote/downvote endpoint
type VoteResponse struct {
	Upvotes   []uint `json:"upvotes"`
	Downvotes []uint `json:"downvotes"`
	VoteScore int    `json:"vote_score"`
	Message   string `json:"message"`
}
