package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/campus_food/internal/models"
)

func (r *GormRepo) AddRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return mapErr(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *GormRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&rt).Error; err != nil {
		return nil, mapErr(err)
	}
	return &rt, nil
}

func (r *GormRepo) DeleteRefreshTokenByID(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Delete(&models.RefreshToken{}, id).Error
}

// DeleteRefreshToken removes every row holding token and reports how many went.
func (r *GormRepo) DeleteRefreshToken(ctx context.Context, token string) (int64, error) {
	res := r.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (r *GormRepo) DeleteExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	return res.RowsAffected, res.Error
}
