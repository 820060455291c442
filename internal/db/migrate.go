package db

import (
	"fmt"
	"time"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"gorm.io/gorm"
)

// Models lists every table owned by the forum
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Post{},
		&model.Reply{},
		&model.Vote{},
	}
}

// Migrate runs database migrations against the global connection
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs database migrations against conn
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := conn.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// Seed inserts a small demo forum when the users table is empty
func Seed(conn *gorm.DB) error {
	var count int64
	if err := conn.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Users already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding demo forum data...")

	return conn.Transaction(func(tx *gorm.DB) error {
		users := []model.User{
			{Email: "admin@forum.local", Name: "Admin", Role: model.RoleAdmin},
			{Email: "instructor@forum.local", Name: "Instructor", Role: model.RoleInstructor},
			{Email: "student1@forum.local", Name: "Student One", Role: model.RoleStudent},
			{Email: "student2@forum.local", Name: "Student Two", Role: model.RoleStudent},
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		instructor, student1, student2 := users[1], users[2], users[3]

		now := time.Now()
		post := model.Post{
			Title:        "How do goroutines get scheduled?",
			Content:      "I read that goroutines are multiplexed onto threads. What decides **when** one runs?",
			Category:     "golang",
			AuthorID:     student1.ID,
			LastActivity: now,
		}
		if err := tx.Create(&post).Error; err != nil {
			return fmt.Errorf("seed post: %w", err)
		}

		answer := model.Reply{
			Content:           "The runtime scheduler uses an M:N model with per-P run queues.",
			AuthorID:          instructor.ID,
			PostID:            post.ID,
			IsInstructorReply: true,
		}
		if err := tx.Create(&answer).Error; err != nil {
			return fmt.Errorf("seed reply: %w", err)
		}

		followUp := model.Reply{
			Content:       "What is a P here?",
			AuthorID:      student2.ID,
			PostID:        post.ID,
			ParentReplyID: &answer.ID,
			Depth:         1,
		}
		if err := tx.Create(&followUp).Error; err != nil {
			return fmt.Errorf("seed nested reply: %w", err)
		}

		return tx.Model(&model.Post{}).Where("id = ?", post.ID).
			UpdateColumn("reply_count", 2).Error
	})
}
