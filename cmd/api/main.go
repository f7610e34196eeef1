package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/timesheet-backend-go/internal/config"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/timesheet"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/domain/user"
	appHTTP "github.com/cmlabs-hris/timesheet-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/logger"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/pkg/storage"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/memory"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/repository/postgresql"
	"github.com/cmlabs-hris/timesheet-backend-go/internal/service/file"
	timesheetService "github.com/cmlabs-hris/timesheet-backend-go/internal/service/timesheet"
	"github.com/redis/go-redis/v9"
)

const appVersion = "v1.0.0"

// repositories is the storage backend selected by DB_DRIVER.
type repositories struct {
	tx        timesheet.Transactor
	versions  timesheet.VersionRepository
	entries   timesheet.EntryRepository
	documents timesheet.DocumentRepository
	presets   timesheet.PresetRepository
	directory user.Directory
	close     func()
}

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(os.Stdout, logger.Options{
		Level:   cfg.App.LogLevel,
		Format:  cfg.App.LogFormat,
		Env:     cfg.App.Env,
		App:     "timesheet-cmlabs",
		Version: appVersion,
	})
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.close()

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(cfg.Storage.BasePath)
		if err != nil {
			return fmt.Errorf("initialize local storage: %w", err)
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	fileService := file.NewFileService(fileStorage)

	var redisClient *redis.Client
	if cfg.Cache.RedisAddr != "" {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		slog.Info("approval summary cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)
	}
	summaryCache := cache.New(redisClient, "timesheet", cfg.Cache.TTL)

	scheduler := cron.NewScheduler()
	if redisClient != nil {
		rollover := cron.NewSummaryRollover(summaryCache)
		if err := scheduler.AddJob("approval-summary-rollover", cfg.Cache.RolloverSchedule, rollover.Run); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	timesheetSvc := timesheetService.NewTimesheetService(
		repos.tx,
		repos.versions,
		repos.entries,
		repos.documents,
		repos.presets,
		repos.directory,
		fileService,
		summaryCache,
	)
	approvalSvc := timesheetService.NewApprovalService(
		repos.tx,
		repos.versions,
		repos.entries,
		repos.documents,
		repos.directory,
		summaryCache,
	)

	router := appHTTP.NewRouter(
		JWTService,
		appHTTP.NewTimesheetHandler(timesheetSvc),
		appHTTP.NewApprovalHandler(approvalSvc),
		appHTTP.RouterOptions{
			Logger:             log,
			AllowedOrigins:     cfg.HTTP.AllowedOrigins,
			RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
			IsProduction:       cfg.IsProduction(),
		},
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		if cfg.App.SeedFile != "" {
			users, err := memory.LoadSeedFile(cfg.App.SeedFile)
			if err != nil {
				return nil, err
			}
			store.Seed(users)
		}
		slog.Warn("using in-memory storage, data is lost on restart")
		return &repositories{
			tx:        store,
			versions:  memory.NewVersionRepository(store),
			entries:   memory.NewEntryRepository(store),
			documents: memory.NewDocumentRepository(store),
			presets:   memory.NewPresetRepository(store),
			directory: memory.NewUserDirectory(store),
			close:     func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return &repositories{
			tx:        postgresql.NewTransactor(db),
			versions:  postgresql.NewVersionRepository(db),
			entries:   postgresql.NewEntryRepository(db),
			documents: postgresql.NewDocumentRepository(db),
			presets:   postgresql.NewPresetRepository(db),
			directory: postgresql.NewUserDirectory(db),
			close:     db.Close,
		}, nil
	}
}
