package repository

import (
	"time"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	ReplySortCreated = "created_at"
	ReplySortVotes   = "votes"
)

// ReplyRepository stores replies. Every write also touches the owning post's last_activity.
type ReplyRepository interface {
	Create(reply *model.Reply) error
	FindByID(id uint) (*model.Reply, error)
	// ListByPost returns top-level replies when parentID is nil, else the direct children of parentID.
	ListByPost(postID uint, parentID *uint, sort string) ([]model.Reply, error)
	ListByUser(userID uint, page, limit int) ([]model.Reply, int64, error)
	UpdateContent(id uint, content string) error
	SoftDelete(id, deletedBy uint) error
	// MarkAccepted makes id the only accepted reply of its post and marks the post answered.
	MarkAccepted(id uint) error
}

type replyRepository struct {
	db    *gorm.DB
	votes VoteRepository
}

// NewReplyRepository creates a reply store; voter sets are read through votes
func NewReplyRepository(db *gorm.DB, votes VoteRepository) ReplyRepository {
	return &replyRepository{db: db, votes: votes}
}

func (r *replyRepository) Create(reply *model.Reply) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(reply).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Post{}).
			Where("id = ?", reply.PostID).
			UpdateColumns(map[string]interface{}{
				"reply_count":   gorm.Expr("reply_count + ?", 1),
				"last_activity": time.Now(),
			}).Error; err != nil {
			return err
		}

		return tx.Preload("Author").First(reply, reply.ID).Error
	})
	if err != nil {
		logger.Error("Failed to create reply in database", err, map[string]interface{}{
			"post_id":   reply.PostID,
			"author_id": reply.AuthorID,
		})
		return err
	}

	model.RecomputeVoteScore(reply)
	return nil
}

func (r *replyRepository) FindByID(id uint) (*model.Reply, error) {
	var reply model.Reply
	if err := r.db.Preload("Author").First(&reply, id).Error; err != nil {
		return nil, err
	}

	tally, err := r.votes.Tally(model.VoteTargetReply, id)
	if err != nil {
		return nil, err
	}
	reply.Upvotes = tally.Upvoters()
	reply.Downvotes = tally.Downvoters()
	return &reply, nil
}

func (r *replyRepository) ListByPost(postID uint, parentID *uint, sort string) ([]model.Reply, error) {
	query := r.db.Model(&model.Reply{}).
		Preload("Author").
		Where("post_id = ?", postID)

	if parentID == nil {
		query = query.Where("parent_reply_id IS NULL")
	} else {
		query = query.Where("parent_reply_id = ?", *parentID)
	}

	if sort == ReplySortVotes {
		query = query.Order("vote_score DESC").Order("created_at ASC")
	} else {
		query = query.Order("created_at ASC")
	}
	query = query.Order("id ASC")

	var replies []model.Reply
	if err := query.Find(&replies).Error; err != nil {
		return nil, err
	}

	if err := r.attachVotes(replies); err != nil {
		return nil, err
	}
	return replies, nil
}

func (r *replyRepository) ListByUser(userID uint, page, limit int) ([]model.Reply, int64, error) {
	var total int64
	base := r.db.Model(&model.Reply{}).
		Where("author_id = ? AND is_deleted = ?", userID, false).
		Session(&gorm.Session{})

	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var replies []model.Reply
	if err := base.
		Preload("Author").
		Order("created_at DESC").
		Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&replies).Error; err != nil {
		return nil, 0, err
	}

	if err := r.attachVotes(replies); err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}

func (r *replyRepository) attachVotes(replies []model.Reply) error {
	if len(replies) == 0 {
		return nil
	}
	ids := make([]uint, len(replies))
	for i := range replies {
		ids[i] = replies[i].ID
	}

	tallies, err := r.votes.TallyMany(model.VoteTargetReply, ids)
	if err != nil {
		return err
	}
	for i := range replies {
		t := tallies[replies[i].ID]
		replies[i].Upvotes = t.Upvoters()
		replies[i].Downvotes = t.Downvoters()
	}
	return nil
}

func (r *replyRepository) UpdateContent(id uint, content string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var reply model.Reply
		if err := tx.Select("id", "post_id").First(&reply, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Reply{}).Where("id = ?", id).
			Update("content", content).Error; err != nil {
			return err
		}
		return touchPost(tx, reply.PostID)
	})
}

func (r *replyRepository) SoftDelete(id, deletedBy uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var reply model.Reply
		if err := forUpdate(tx.Select("id", "post_id", "is_deleted", "is_accepted_answer")).First(&reply, id).Error; err != nil {
			return err
		}
		if reply.IsDeleted {
			return nil
		}

		now := time.Now()
		if err := tx.Model(&model.Reply{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"is_deleted":         true,
				"is_accepted_answer": false,
				"deleted_at":         now,
				"deleted_by":         deletedBy,
			}).Error; err != nil {
			return err
		}

		// a deleted reply cannot stay the post's answer
		if reply.IsAcceptedAnswer {
			if err := tx.Model(&model.Post{}).
				Where("id = ? AND accepted_reply_id = ?", reply.PostID, id).
				Updates(map[string]interface{}{
					"is_answered":       false,
					"accepted_reply_id": nil,
				}).Error; err != nil {
				return err
			}
		}

		return tx.Model(&model.Post{}).
			Where("id = ?", reply.PostID).
			UpdateColumns(map[string]interface{}{
				"reply_count":   gorm.Expr("CASE WHEN reply_count > 0 THEN reply_count - 1 ELSE 0 END"),
				"last_activity": now,
			}).Error
	})
}

func (r *replyRepository) MarkAccepted(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var reply model.Reply
		if err := forUpdate(tx.Select("id", "post_id")).First(&reply, id).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Reply{}).
			Where("post_id = ? AND is_accepted_answer = ? AND id <> ?", reply.PostID, true, id).
			Update("is_accepted_answer", false).Error; err != nil {
			return err
		}

		if err := tx.Model(&model.Reply{}).Where("id = ?", id).
			Update("is_accepted_answer", true).Error; err != nil {
			return err
		}

		return tx.Model(&model.Post{}).
			Where("id = ?", reply.PostID).
			UpdateColumns(map[string]interface{}{
				"is_answered":       true,
				"accepted_reply_id": id,
				"last_activity":     time.Now(),
			}).Error
	})
}
