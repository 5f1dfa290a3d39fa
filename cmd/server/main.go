package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/Skotchmaster/campus_food/internal/httpserver"
	"github.com/Skotchmaster/campus_food/internal/models"
	"github.com/Skotchmaster/campus_food/internal/repo"
	"github.com/Skotchmaster/campus_food/internal/search"
	"github.com/Skotchmaster/campus_food/internal/service"
	"github.com/Skotchmaster/campus_food/pkg/config"
	pkgdb "github.com/Skotchmaster/campus_food/pkg/db"
	"github.com/Skotchmaster/campus_food/pkg/hash"
	"github.com/Skotchmaster/campus_food/pkg/logging"
	"github.com/Skotchmaster/campus_food/pkg/middleware/metrics"
	"github.com/Skotchmaster/campus_food/pkg/mykafka"
	"github.com/Skotchmaster/campus_food/pkg/tokens"
)

func main() {
	purge := flag.Bool("purge-expired", false, "delete expired refresh tokens and exit")
	reindex := flag.Bool("reindex-dishes", false, "copy all dishes into the search index and exit")
	disable := flag.String("disable-user", "", "disable the named account and exit")
	enable := flag.String("enable-user", "", "re-enable the named account and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	ctx := logging.IntoContext(context.Background(), logger)

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := pkgdb.Open(openCtx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := pkgdb.Migrate(ctx, db, cfg.DBDriver); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	store := repo.New(db)
	issuer := tokens.NewIssuer(cfg.JWTSecret)

	auth := &service.AuthService{
		Repo:   store,
		Hasher: hash.NewBcrypt(),
		Tokens: issuer,
		Topic:  cfg.KafkaUserTopic,
	}
	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		auth.Events = producer
	}

	catalog := &service.CatalogService{Repo: store}
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.Config{URL: cfg.ESURL, Username: cfg.ESUser, Password: cfg.ESPassword}, logger)
		if err != nil {
			logger.Warn("search disabled", "error", err)
		} else {
			catalog.Search = &search.DishIndex{ES: es, Index: cfg.ESDishIndex}
		}
	}

	if code, done := runTask(ctx, auth, catalog, *purge, *reindex, *disable, *enable); done {
		closeAll(db, producer)
		os.Exit(code)
	}

	if cfg.AdminPassword != "" {
		created, err := auth.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		if created {
			logger.Info("admin account created", "username", cfg.AdminUsername)
		}
	}

	e := httpserver.New(logger, cfg.CORSOrigin, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: auth},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		Verifier:       issuer,
		Metrics:        metrics.New(cfg.ServiceName),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	closeAll(db, producer)
	logger.Info("stopped")
}

// runTask performs a one-shot maintenance flag. done is false when no flag was set.
func runTask(ctx context.Context, auth *service.AuthService, catalog *service.CatalogService,
	purge, reindex bool, disable, enable string) (code int, done bool) {
	switch {
	case purge:
		n, err := auth.PurgeExpired(ctx)
		if err != nil {
			slog.Error("purge expired tokens", "error", err)
			return 1, true
		}
		slog.Info("expired refresh tokens purged", "count", n)
	case reindex:
		n, err := catalog.ReindexDishes(ctx, 200)
		if err != nil {
			slog.Error("reindex dishes", "indexed", n, "error", err)
			return 1, true
		}
		slog.Info("dishes reindexed", "count", n)
	case disable != "":
		if err := auth.SetUserStatus(ctx, disable, models.StatusDisabled); err != nil {
			slog.Error("disable user", "username", disable, "error", err)
			return 1, true
		}
	case enable != "":
		if err := auth.SetUserStatus(ctx, enable, models.StatusActive); err != nil {
			slog.Error("enable user", "username", enable, "error", err)
			return 1, true
		}
	default:
		return 0, false
	}
	return 0, true
}

func closeAll(db *gorm.DB, producer *mykafka.Producer) {
	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("db close", "error", err)
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			slog.Error("kafka close", "error", err)
		}
	}
}
