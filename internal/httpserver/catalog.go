package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/campus_food/internal/models"
	"github.com/Skotchmaster/campus_food/internal/service"
	"github.com/Skotchmaster/campus_food/internal/transport"
	"github.com/Skotchmaster/campus_food/internal/util"
	"github.com/Skotchmaster/campus_food/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return uint(id), nil
}

func (h *CatalogHTTP) GetMerchant(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, err := h.Svc.GetMerchant(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Warn("get_merchant_failed", "status", statusOf(err), "merchant_id", id)
		return fail(err)
	}
	return ok(c, http.StatusOK, "ok", m)
}

func (h *CatalogHTTP) ListStalls(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	items, err := h.Svc.ListStalls(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, "ok", items)
}

func (h *CatalogHTTP) GetStall(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	s, err := h.Svc.GetStall(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Warn("get_stall_failed", "status", statusOf(err), "stall_id", id)
		return fail(err)
	}
	return ok(c, http.StatusOK, "ok", s)
}

func (h *CatalogHTTP) ListDishes(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	items, err := h.Svc.ListDishes(c.Request().Context(), id)
	if err != nil {
		return fail(err)
	}
	return ok(c, http.StatusOK, "ok", items)
}

func (h *CatalogHTTP) GetDish(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := parseID(c)
	if err != nil {
		return err
	}

	d, err := h.Svc.GetDish(ctx, id)
	if err != nil {
		logging.FromContext(ctx).Warn("get_dish_failed", "status", statusOf(err), "dish_id", id)
		return fail(err)
	}
	return ok(c, http.StatusOK, "ok", d)
}

func (h *CatalogHTTP) SearchDishes(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "catalog.search_dishes")

	q := c.QueryParam("q")
	page, offset, limit := util.Calculate(
		util.ParseIntDefault(c.QueryParam("page"), 1),
		util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize),
	)

	total, items, err := h.Svc.SearchDishes(ctx, q, offset, limit)
	if err != nil {
		l.Warn("search_dishes_failed", "status", statusOf(err), "error", err)
		return fail(err)
	}

	return ok(c, http.StatusOK, "ok", transport.Page[models.Dish]{
		Items: items,
		Meta: transport.PageMeta{
			Page:       page,
			Size:       limit,
			Total:      total,
			TotalPages: util.TotalPages(total, limit),
			HasPrev:    page > 1,
			HasNext:    int64(offset+limit) < total,
		},
	})
}
