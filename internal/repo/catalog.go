package repo

import (
	"context"

	"github.com/Skotchmaster/campus_food/internal/models"
)

func (r *GormRepo) GetMerchant(ctx context.Context, id uint) (*models.Merchant, error) {
	var m models.Merchant
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapErr(err)
	}
	return &m, nil
}

func (r *GormRepo) ListStalls(ctx context.Context, merchantID uint) ([]models.Stall, error) {
	items := make([]models.Stall, 0)
	if err := r.DB.WithContext(ctx).Where("merchant_id = ?", merchantID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetStall(ctx context.Context, id uint) (*models.Stall, error) {
	var s models.Stall
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *GormRepo) ListDishes(ctx context.Context, stallID uint) ([]models.Dish, error) {
	items := make([]models.Dish, 0)
	if err := r.DB.WithContext(ctx).Where("stall_id = ?", stallID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetDish(ctx context.Context, id uint) (*models.Dish, error) {
	var d models.Dish
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

// PageDishes walks every dish in id order; used when rebuilding the search index.
func (r *GormRepo) PageDishes(ctx context.Context, offset, limit int) ([]models.Dish, error) {
	items := make([]models.Dish, 0, limit)
	if err := r.DB.WithContext(ctx).Model(&models.Dish{}).Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
