package repository

import (
	"fmt"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"github.com/ikkim/qna-forum-backend/pkg/vote"
	"gorm.io/gorm"
)

// VoteRepository persists the voter sets of posts and replies
type VoteRepository interface {
	// Toggle applies one button press and rewrites the target's vote_score in the same transaction.
	Toggle(target model.VoteTarget, targetID, userID uint, dir vote.Direction) (*vote.Tally, error)
	Tally(target model.VoteTarget, targetID uint) (*vote.Tally, error)
	TallyMany(target model.VoteTarget, targetIDs []uint) (map[uint]*vote.Tally, error)
	// Reconcile rewrites every vote_score that disagrees with the votes table and returns how many were fixed.
	Reconcile(target model.VoteTarget) (int64, error)
}

type voteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func targetTable(target model.VoteTarget) (string, error) {
	switch target {
	case model.VoteTargetPost:
		return model.Post{}.TableName(), nil
	case model.VoteTargetReply:
		return model.Reply{}.TableName(), nil
	}
	return "", fmt.Errorf("unknown vote target %q", target)
}

func tallyFromRows(rows []model.Vote) *vote.Tally {
	var up, down []uint
	for _, row := range rows {
		switch {
		case row.Value > 0:
			up = append(up, row.UserID)
		case row.Value < 0:
			down = append(down, row.UserID)
		}
	}
	return vote.NewTally(up, down)
}

func (r *voteRepository) Toggle(target model.VoteTarget, targetID, userID uint, dir vote.Direction) (*vote.Tally, error) {
	table, err := targetTable(target)
	if err != nil {
		return nil, err
	}

	var tally *vote.Tally
	err = r.db.Transaction(func(tx *gorm.DB) error {
		// Lock the target row so concurrent toggles on it apply one after another.
		var owner struct {
			ID     uint
			PostID uint
		}
		columns := "id"
		if target == model.VoteTargetReply {
			columns = "id, post_id"
		}
		if err := forUpdate(tx.Table(table).Select(columns)).
			Where("id = ?", targetID).
			Take(&owner).Error; err != nil {
			return err
		}

		var rows []model.Vote
		if err := tx.Where("target_type = ? AND target_id = ?", target, targetID).
			Find(&rows).Error; err != nil {
			return err
		}
		tally = tallyFromRows(rows)

		change := tally.Toggle(userID, dir)
		switch {
		case change.Before == 0:
			row := model.Vote{TargetType: target, TargetID: targetID, UserID: userID, Value: change.After}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		case change.After == 0:
			if err := tx.Where("target_type = ? AND target_id = ? AND user_id = ?", target, targetID, userID).
				Delete(&model.Vote{}).Error; err != nil {
				return err
			}
		default:
			if err := tx.Model(&model.Vote{}).
				Where("target_type = ? AND target_id = ? AND user_id = ?", target, targetID, userID).
				Update("value", change.After).Error; err != nil {
				return err
			}
		}

		if err := tx.Table(table).Where("id = ?", targetID).
			UpdateColumn("vote_score", tally.Score()).Error; err != nil {
			return err
		}

		if target == model.VoteTargetReply {
			return touchPost(tx, owner.PostID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Vote toggled", map[string]interface{}{
		"target_type": target,
		"target_id":   targetID,
		"user_id":     userID,
		"direction":   dir.String(),
		"vote_score":  tally.Score(),
	})
	return tally, nil
}

func (r *voteRepository) Tally(target model.VoteTarget, targetID uint) (*vote.Tally, error) {
	var rows []model.Vote
	if err := r.db.Where("target_type = ? AND target_id = ?", target, targetID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return tallyFromRows(rows), nil
}

func (r *voteRepository) TallyMany(target model.VoteTarget, targetIDs []uint) (map[uint]*vote.Tally, error) {
	result := make(map[uint]*vote.Tally, len(targetIDs))
	if len(targetIDs) == 0 {
		return result, nil
	}

	var rows []model.Vote
	if err := r.db.Where("target_type = ? AND target_id IN ?", target, targetIDs).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	grouped := make(map[uint][]model.Vote, len(targetIDs))
	for _, row := range rows {
		grouped[row.TargetID] = append(grouped[row.TargetID], row)
	}
	for _, id := range targetIDs {
		result[id] = tallyFromRows(grouped[id])
	}
	return result, nil
}

func (r *voteRepository) Reconcile(target model.VoteTarget) (int64, error) {
	table, err := targetTable(target)
	if err != nil {
		return 0, err
	}

	score := fmt.Sprintf(
		"COALESCE((SELECT SUM(votes.value) FROM votes WHERE votes.target_type = ? AND votes.target_id = %s.id), 0)",
		table,
	)
	result := r.db.Exec(
		fmt.Sprintf("UPDATE %s SET vote_score = %s WHERE vote_score <> %s", table, score, score),
		target, target,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
