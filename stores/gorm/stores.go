package gorm

import (
	"context"
	"errors"
	"strings"

	ac "github.com/sentinelai/authcore"
	"gorm.io/gorm"
)

// UserStore implements authcore.UserStore on a gorm-managed database.
// Open the DB with gorm.Config{TranslateError: true} so duplicate-key
// violations surface as gorm.ErrDuplicatedKey across drivers.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) (*UserStore, error) {
	if err := db.AutoMigrate(&UserModel{}); err != nil {
		return nil, err
	}
	return &UserStore{db: db}, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*ac.UserIdentity, error) {
	var model UserModel
	err := s.db.WithContext(ctx).Where("email = ?", ac.NormalizeEmail(email)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ac.ErrUserNotFound
		}
		return nil, err
	}
	return model.ToUserIdentity(), nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *ac.UserIdentity) error {
	model := UserIdentityToModel(user)
	model.Email = ac.NormalizeEmail(model.Email)
	err := s.db.WithContext(ctx).Create(model).Error
	if err != nil {
		if isDuplicate(err) {
			return ac.ErrEmailExists
		}
		return err
	}
	return nil
}

func (s *UserStore) UpdateUser(ctx context.Context, user *ac.UserIdentity) error {
	model := UserIdentityToModel(user)
	model.Email = ac.NormalizeEmail(model.Email)
	result := s.db.WithContext(ctx).Save(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ac.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&UserModel{}).Count(&count).Error
	return count, err
}

// isDuplicate also matches on the sqlite error text because the sqlite
// driver predates gorm's error translation for some constraint shapes.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint")
}
