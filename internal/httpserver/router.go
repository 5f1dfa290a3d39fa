package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/campus_food/internal/models"
	middleware "github.com/Skotchmaster/campus_food/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/campus_food/pkg/middleware/logging"
	"github.com/Skotchmaster/campus_food/pkg/middleware/metrics"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	Verifier       middleware.Verifier
	Metrics        *metrics.HTTPMetrics
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health", func(c echo.Context) error {
		return ok(c, http.StatusOK, "ok", echo.Map{"status": "up"})
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	api := e.Group("/api")

	bearer := middleware.NewBearerAuth(d.Verifier)

	api.POST("/register", d.AuthHandler.Register)
	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)
	api.POST("/logout", d.AuthHandler.Logout)
	api.GET("/user", d.AuthHandler.GetUser, bearer.RequireAuth)

	admin := api.Group("/admin", bearer.RequireAuth, middleware.RequireRole(models.RoleAdmin))
	admin.PUT("/users/:username/status", d.AuthHandler.SetUserStatus)

	if d.CatalogHandler != nil {
		api.GET("/merchants/:id", d.CatalogHandler.GetMerchant)
		api.GET("/merchants/:id/stalls", d.CatalogHandler.ListStalls)
		api.GET("/stalls/:id", d.CatalogHandler.GetStall)
		api.GET("/stalls/:id/dishes", d.CatalogHandler.ListDishes)
		api.GET("/dishes/search", d.CatalogHandler.SearchDishes)
		api.GET("/dishes/:id", d.CatalogHandler.GetDish)
	}
}

// New builds the echo instance with the shared middleware stack and all routes.
func New(logger *slog.Logger, corsOrigin string, d *Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
	}
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{corsOrigin},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	Register(e, d)
	return e
}
