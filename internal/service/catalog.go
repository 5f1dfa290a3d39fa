package service

import (
	"context"
	"errors"

	"github.com/Skotchmaster/campus_food/internal/models"
	"github.com/Skotchmaster/campus_food/internal/repo"
	"github.com/Skotchmaster/campus_food/pkg/logging"
)

// ErrUnavailable marks a dependency that is not configured or not reachable.
var ErrUnavailable = errors.New("service unavailable")

type CatalogRepo interface {
	GetMerchant(ctx context.Context, id uint) (*models.Merchant, error)
	ListStalls(ctx context.Context, merchantID uint) ([]models.Stall, error)
	GetStall(ctx context.Context, id uint) (*models.Stall, error)
	ListDishes(ctx context.Context, stallID uint) ([]models.Dish, error)
	GetDish(ctx context.Context, id uint) (*models.Dish, error)
	PageDishes(ctx context.Context, offset, limit int) ([]models.Dish, error)
}

type DishSearcher interface {
	Search(ctx context.Context, query string, from, size int) (int64, []models.Dish, error)
	IndexDish(ctx context.Context, dish models.Dish) error
}

type CatalogService struct {
	Repo   CatalogRepo
	Search DishSearcher
}

func lookup[T any](ctx context.Context, what string, get func() (*T, error)) (*T, error) {
	v, err := get()
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, newErr(ErrNotFound, what+" not found")
		}
		logging.FromContext(ctx).Error("catalog_lookup_failed", "entity", what, "error", err)
		return nil, internal("cannot load "+what, err)
	}
	return v, nil
}

func list[T any](ctx context.Context, what string, get func() ([]T, error)) ([]T, error) {
	v, err := get()
	if err != nil {
		logging.FromContext(ctx).Error("catalog_list_failed", "entity", what, "error", err)
		return nil, internal("cannot load "+what, err)
	}
	return v, nil
}

func (s *CatalogService) GetMerchant(ctx context.Context, id uint) (*models.Merchant, error) {
	return lookup(ctx, "merchant", func() (*models.Merchant, error) { return s.Repo.GetMerchant(ctx, id) })
}

func (s *CatalogService) ListStalls(ctx context.Context, merchantID uint) ([]models.Stall, error) {
	return list(ctx, "stalls", func() ([]models.Stall, error) { return s.Repo.ListStalls(ctx, merchantID) })
}

func (s *CatalogService) GetStall(ctx context.Context, id uint) (*models.Stall, error) {
	return lookup(ctx, "stall", func() (*models.Stall, error) { return s.Repo.GetStall(ctx, id) })
}

func (s *CatalogService) ListDishes(ctx context.Context, stallID uint) ([]models.Dish, error) {
	return list(ctx, "dishes", func() ([]models.Dish, error) { return s.Repo.ListDishes(ctx, stallID) })
}

func (s *CatalogService) GetDish(ctx context.Context, id uint) (*models.Dish, error) {
	return lookup(ctx, "dish", func() (*models.Dish, error) { return s.Repo.GetDish(ctx, id) })
}

func (s *CatalogService) SearchDishes(ctx context.Context, query string, offset, limit int) (int64, []models.Dish, error) {
	if query == "" {
		return 0, nil, newErr(ErrValidation, "query is required")
	}
	if s.Search == nil {
		return 0, nil, newErr(ErrUnavailable, "search is not configured")
	}
	total, items, err := s.Search.Search(ctx, query, offset, limit)
	if err != nil {
		logging.FromContext(ctx).Error("search_dishes_failed", "query", query, "error", err)
		return 0, nil, &Error{Kind: ErrUnavailable, Message: "search is unavailable", Err: err}
	}
	return total, items, nil
}

// ReindexDishes copies every stored dish into the search index.
func (s *CatalogService) ReindexDishes(ctx context.Context, batch int) (int, error) {
	if s.Search == nil {
		return 0, newErr(ErrUnavailable, "search is not configured")
	}
	if batch <= 0 {
		batch = 100
	}

	indexed := 0
	for offset := 0; ; offset += batch {
		page, err := s.Repo.PageDishes(ctx, offset, batch)
		if err != nil {
			return indexed, internal("cannot load dishes", err)
		}
		for _, d := range page {
			if err := s.Search.IndexDish(ctx, d); err != nil {
				return indexed, &Error{Kind: ErrUnavailable, Message: "search is unavailable", Err: err}
			}
			indexed++
		}
		if len(page) < batch {
			return indexed, nil
		}
	}
}
