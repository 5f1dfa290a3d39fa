package repo

import (
	"context"

	"github.com/Skotchmaster/campus_food/internal/models"
)

// CreateUser inserts u. A username or student id collision returns ErrDuplicateKey.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	return mapErr(r.DB.WithContext(ctx).Create(u).Error)
}

func (r *GormRepo) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, mapErr(err)
	}
	return &user, nil
}

func (r *GormRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", username).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SetUserStatus expects id to exist; callers load the user first.
func (r *GormRepo) SetUserStatus(ctx context.Context, id uint, status string) error {
	// RowsAffected is not checked: MySQL reports changed rows, so an unchanged status counts zero.
	return r.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("status", status).Error
}
