package model

// ReplyEventType names a change pushed to live subscribers of a post
type ReplyEventType string

const (
	ReplyEventCreated  ReplyEventType = "reply_created"
	ReplyEventUpdated  ReplyEventType = "reply_updated"
	ReplyEventDeleted  ReplyEventType = "reply_deleted"
	ReplyEventVoted    ReplyEventType = "reply_voted"
	ReplyEventAccepted ReplyEventType = "reply_accepted"
)

// ReplyEvent is the websocket payload. Reply carries the presented reply after the change.
type ReplyEvent struct {
	Type          ReplyEventType `json:"type"`
	PostID        uint           `json:"post_id"`
	ParentReplyID *uint          `json:"parent_reply_id,omitempty"`
	Reply         *Reply         `json:"reply"`
}
