package repository

import (
	"time"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// forUpdate row-locks the selected rows on PostgreSQL. SQLite serializes
// writers itself and its dialect drops the clause.
func forUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// touchPost bumps the owning post's last_activity. Every reply save goes through here.
func touchPost(tx *gorm.DB, postID uint) error {
	return tx.Model(&model.Post{}).
		Where("id = ?", postID).
		UpdateColumn("last_activity", time.Now()).
		Error
}
