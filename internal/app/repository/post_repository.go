package repository

import (
	"strings"
	"time"

	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"gorm.io/gorm"
)

// PostRepository stores posts
type PostRepository interface {
	Create(post *model.Post) error
	FindByID(id uint) (*model.Post, error)
	List(query *model.PostListQuery) ([]model.Post, int64, error)
	Update(post *model.Post) error
	SoftDelete(id, deletedBy uint) error
	SetAnswered(id uint, answered bool) error
}

type postRepository struct {
	db    *gorm.DB
	votes VoteRepository
}

func NewPostRepository(db *gorm.DB, votes VoteRepository) PostRepository {
	return &postRepository{db: db, votes: votes}
}

func (r *postRepository) Create(post *model.Post) error {
	if post.LastActivity.IsZero() {
		post.LastActivity = time.Now()
	}
	if err := r.db.Create(post).Error; err != nil {
		return err
	}
	return r.db.Preload("Author").First(post, post.ID).Error
}

func (r *postRepository) FindByID(id uint) (*model.Post, error) {
	var post model.Post
	if err := r.db.Preload("Author").First(&post, id).Error; err != nil {
		return nil, err
	}

	tally, err := r.votes.Tally(model.VoteTargetPost, id)
	if err != nil {
		return nil, err
	}
	post.Upvotes = tally.Upvoters()
	post.Downvotes = tally.Downvoters()
	return &post, nil
}

func (r *postRepository) List(query *model.PostListQuery) ([]model.Post, int64, error) {
	var posts []model.Post
	var total int64

	db := r.db.Model(&model.Post{}).
		Where("is_deleted = ?", false)

	if query.Category != "" {
		db = db.Where("category = ?", query.Category)
	}
	if query.AuthorID != nil {
		db = db.Where("author_id = ?", *query.AuthorID)
	}
	if query.IsAnswered != nil {
		db = db.Where("is_answered = ?", *query.IsAnswered)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		db = db.Where("LOWER(title) LIKE ? OR LOWER(content) LIKE ?", term, term)
	}

	db = db.Session(&gorm.Session{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch query.Sort {
	case "votes":
		db = db.Order("vote_score DESC")
	case "activity":
		db = db.Order("last_activity DESC")
	default:
		db = db.Order("created_at DESC")
	}

	page := 1
	if query.Page > 0 {
		page = query.Page
	}
	pageSize := 20
	if query.PageSize > 0 {
		pageSize = query.PageSize
	}

	if err := db.Preload("Author").
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	if len(posts) > 0 {
		ids := make([]uint, len(posts))
		for i := range posts {
			ids[i] = posts[i].ID
		}
		tallies, err := r.votes.TallyMany(model.VoteTargetPost, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range posts {
			posts[i].Upvotes = tallies[posts[i].ID].Upvoters()
			posts[i].Downvotes = tallies[posts[i].ID].Downvoters()
		}
	}

	return posts, total, nil
}

// Update saves editable columns and bumps last_activity
func (r *postRepository) Update(post *model.Post) error {
	post.LastActivity = time.Now()
	return r.db.Model(&model.Post{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"title":         post.Title,
			"content":       post.Content,
			"category":      post.Category,
			"last_activity": post.LastActivity,
		}).Error
}

func (r *postRepository) SoftDelete(id, deletedBy uint) error {
	return r.db.Model(&model.Post{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": time.Now(),
			"deleted_by": deletedBy,
		}).Error
}

// SetAnswered flips is_answered; clearing it also clears the accepted reply pointer
func (r *postRepository) SetAnswered(id uint, answered bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"is_answered":   answered,
			"last_activity": time.Now(),
		}
		if !answered {
			updates["accepted_reply_id"] = nil
			if err := tx.Model(&model.Reply{}).
				Where("post_id = ? AND is_accepted_answer = ?", id, true).
				Update("is_accepted_answer", false).Error; err != nil {
				return err
			}
		}
		return tx.Model(&model.Post{}).Where("id = ?", id).Updates(updates).Error
	})
}
