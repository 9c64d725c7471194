package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"

	"github.com/cmlabs-hris/hris-approval-go/internal/config"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/approval"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-approval-go/internal/domain/timesheet"
	appHTTP "github.com/cmlabs-hris/hris-approval-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/email"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-approval-go/internal/pkg/tracing"
	"github.com/cmlabs-hris/hris-approval-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-approval-go/internal/repository/postgresql"
	approvalService "github.com/cmlabs-hris/hris-approval-go/internal/service/approval"
	leaveService "github.com/cmlabs-hris/hris-approval-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-approval-go/internal/service/notification"
	timesheetService "github.com/cmlabs-hris/hris-approval-go/internal/service/timesheet"
)

// repositories is the storage backend selected by DB_DRIVER
type repositories struct {
	users         directory.Repository
	requests      approval.RequestRepository
	ledger        approval.LedgerRepository
	tx            approval.TxManager
	leaves        leave.LeaveRequestRepository
	timesheets    timesheet.TimesheetRepository
	notifications notification.Repository
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.App.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env == "development")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("env", cfg.App.Env),
	)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		if err := tracing.Init(cfg.App.Name, cfg.App.Version, cfg.Tracing.OutputFile); err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
	}

	seed, err := config.LoadDirectorySeed(cfg.Database.SeedPath)
	if err != nil {
		return err
	}

	repos, err := openRepositories(ctx, cfg, seed, logger)
	if err != nil {
		return err
	}
	defer repos.close()

	routes, err := config.LoadRoutingTable(cfg.Routing.TablePath)
	if err != nil {
		return err
	}

	JWTService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration, cfg.JWT.SSEExpiration)
	if err != nil {
		return err
	}

	emailService, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("init email service: %w", err)
	}

	hub := sse.NewHub(32)
	notifier := notificationService.NewNotificationService(repos.notifications, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.WorkerCount,
		QueueSize:     cfg.Notification.QueueSize,
	}, logger)

	resolver := approvalService.NewResolver(repos.users, routes, logger)
	dispatcher := approvalService.NewDispatcher(resolver, repos.users, notifier, emailService, approvalService.DispatcherConfig{
		Workers:        cfg.Notification.DispatchWorkers,
		QueueSize:      cfg.Notification.DispatchQueue,
		EmailEnabled:   cfg.Notification.EmailEnabled && cfg.SMTP.Host != "",
		LinkBase:       cfg.Notification.RequestLinkBase,
		HandlerTimeout: 30 * time.Second,
	}, logger)
	dispatcher.Start()

	engine := approvalService.NewEngine(approvalService.EngineDeps{
		Requests:  repos.requests,
		Ledger:    repos.ledger,
		Users:     repos.users,
		Tx:        repos.tx,
		Publisher: dispatcher,
		Routes:    routes,
		Logger:    logger,
	})

	leaveSvc := leaveService.NewLeaveService(repos.leaves, repos.users, engine)
	timesheetSvc := timesheetService.NewTimesheetService(repos.timesheets, repos.users, engine)

	scheduler := cron.NewScheduler(logger)
	err = scheduler.AddJob(cron.Job{
		Name:     "notification-retention",
		Interval: cfg.Notification.RetentionCheck,
		Fn: func(ctx context.Context) error {
			removed, err := notifier.PurgeRead(ctx, cfg.Notification.Retention)
			if err != nil {
				return err
			}
			if removed > 0 {
				logger.Info("Purged read notifications", "count", removed)
			}
			return nil
		},
	})
	if err != nil {
		return err
	}
	scheduler.Start()

	routerOpts := appHTTP.RouterOptions{
		AllowedOrigins: strings.Split(cfg.App.FrontendURL, ","),
		Logger:         logger,
		LogLevel:       slog.LevelInfo,
	}
	if cfg.RateLimit.Enabled {
		routerOpts.RateLimit, err = middleware.RateLimit(cfg.RateLimit.Rate)
		if err != nil {
			return err
		}
	}

	router := appHTTP.NewRouter(
		routerOpts,
		JWTService,
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewTimesheetHandler(timesheetSvc),
		appHTTP.NewNotificationHandler(notifier, JWTService),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", server.Addr, "driver", cfg.Database.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Notification.ShutdownDeadline)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	scheduler.Stop()
	dispatcher.Stop()
	notifier.Stop()
	hub.Close()
	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("Tracing shutdown failed", "error", err)
	}

	logger.Info("Server stopped")
	return nil
}

func openRepositories(ctx context.Context, cfg *config.Config, seed []directory.User, logger *slog.Logger) (*repositories, error) {
	switch cfg.Database.Driver {
	case "memory":
		store := memory.NewStore()
		for _, u := range seed {
			store.PutUser(u)
		}
		logger.Info("Using in-memory storage", "users", len(seed))
		return &repositories{
			users:         memory.NewUserRepository(store),
			requests:      memory.NewRequestRepository(store),
			ledger:        memory.NewLedgerRepository(store),
			tx:            memory.NewTxManager(),
			leaves:        memory.NewLeaveRequestRepository(store),
			timesheets:    memory.NewTimesheetRepository(store),
			notifications: memory.NewNotificationRepository(store),
			close:         func() {},
		}, nil

	case "postgres":
		dsn := cfg.DatabaseURL()
		if err := database.Migrate(dsn, cfg.Database.MigrationsPath, logger); err != nil {
			return nil, err
		}

		db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolOptions{})
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}

		for _, u := range seed {
			if err := postgresql.UpsertUser(ctx, db, u); err != nil {
				db.Close()
				return nil, fmt.Errorf("seed user %s: %w", u.ID, err)
			}
		}
		if len(seed) > 0 {
			logger.Info("Directory seed applied", "users", len(seed))
		}

		return &repositories{
			users:         postgresql.NewUserRepository(db),
			requests:      postgresql.NewRequestRepository(db),
			ledger:        postgresql.NewLedgerRepository(db),
			tx:            postgresql.NewTxManager(db),
			leaves:        postgresql.NewLeaveRequestRepository(db),
			timesheets:    postgresql.NewTimesheetRepository(db),
			notifications: postgresql.NewNotificationRepository(db),
			close:         db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
}
