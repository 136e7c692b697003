package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/findmelab/findme/internal/api"
	"github.com/findmelab/findme/internal/auth"
	"github.com/findmelab/findme/internal/config"
	"github.com/findmelab/findme/internal/db"
	"github.com/findmelab/findme/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?cache=shared&_busy_timeout=5000", filepath.ToSlash(cfg.SQLitePath))
	sqliteDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}
	defer func() {
		if cerr := sqliteDB.Close(); cerr != nil {
			logger.Warn("close sqlite", zap.Error(cerr))
		}
	}()

	if err := db.RunMigrations(sqliteDB); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	store, err := db.NewSQLiteStore(sqliteDB)
	if err != nil {
		return fmt.Errorf("init sqlite store: %w", err)
	}

	codec := auth.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	definitions := services.NewDefinitionService(store)
	results := services.NewResultService(store)
	submissions := services.NewSubmissionService(definitions, results)
	billing := services.NewBillingService(store)
	accounts := services.NewAccountService(store, codec.Issue)

	if err := definitions.Seed(context.Background()); err != nil {
		return fmt.Errorf("seed definitions: %w", err)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		Codec:       codec,
		Accounts:    accounts,
		Definitions: definitions,
		Submissions: submissions,
		Results:     results,
		Billing:     billing,
		DevLogin:    cfg.DevLogin,
	})

	logger.Info("findme server listening", zap.String("addr", cfg.Addr), zap.Bool("dev_login", cfg.DevLogin))
	return http.ListenAndServe(cfg.Addr, router.Handler(cfg.CORSOrigin))
}
