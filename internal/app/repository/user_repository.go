package repository

import (
	"github.com/ikkim/qna-forum-backend/internal/app/model"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	"gorm.io/gorm"
)

// UserRepository is the identity lookup used to resolve author roles
type UserRepository interface {
	Create(user *model.User) error
	FindByID(id uint) (*model.User, error)
	FindByEmail(email string) (*model.User, error)
	FindRole(id uint) (model.UserRole, error)
	Update(user *model.User) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	if user.Role == "" {
		user.Role = model.RoleStudent
	}
	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Failed to create user in database", err, map[string]interface{}{
			"email": user.Email,
		})
		return err
	}

	logger.Debug("User created in database", map[string]interface{}{
		"user_id": user.ID,
		"email":   user.Email,
	})
	return nil
}

func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindRole returns only the role column of a user
func (r *userRepository) FindRole(id uint) (model.UserRole, error) {
	var user model.User
	if err := r.db.Select("id", "role").First(&user, id).Error; err != nil {
		return "", err
	}
	return user.Role, nil
}

func (r *userRepository) Update(user *model.User) error {
	return r.db.Save(user).Error
}
