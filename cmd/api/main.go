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
	"time"

	"github.com/wecare/escalas-backend/internal/config"
	"github.com/wecare/escalas-backend/internal/domain/notification"
	appHTTP "github.com/wecare/escalas-backend/internal/handler/http"
	"github.com/wecare/escalas-backend/internal/pkg/broker"
	"github.com/wecare/escalas-backend/internal/pkg/cron"
	"github.com/wecare/escalas-backend/internal/pkg/database"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
	"github.com/wecare/escalas-backend/internal/pkg/position"
	"github.com/wecare/escalas-backend/internal/pkg/sse"
	"github.com/wecare/escalas-backend/internal/pkg/wsclient"
	"github.com/wecare/escalas-backend/internal/repository/postgresql"
	"github.com/wecare/escalas-backend/internal/repository/redis"
	attendanceService "github.com/wecare/escalas-backend/internal/service/attendance"
	notificationService "github.com/wecare/escalas-backend/internal/service/notification"
	shiftService "github.com/wecare/escalas-backend/internal/service/shift"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redis.NewClient(ctx, redis.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer rdb.Close()

	// Repositories
	tx := postgresql.NewTransactor(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	establishmentRepo := postgresql.NewEstablishmentRepository(db)
	checkinRepo := postgresql.NewCheckInRepository(db)
	personRepo := postgresql.NewPersonRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)

	// Notifications
	var publisher notification.Publisher
	if cfg.RabbitMQ.URL != "" {
		p, err := broker.Dial(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue, cfg.RabbitMQ.PublishTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	hub := sse.NewHub()
	notifService := notificationService.NewNotificationService(notificationRepo, hub, publisher, notificationService.Config{
		WorkerCount: cfg.Notification.Workers,
		QueueSize:   cfg.Notification.QueueSize,
	})
	defer notifService.Close()

	if cfg.Notification.WSURL != "" {
		listener := wsclient.New(wsclient.Config{
			URL:   cfg.Notification.WSURL,
			Token: cfg.Notification.WSToken,
		}, notifService.Deliver, logger)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Notification listener stopped", "error", err)
			}
		}()
	}

	// Services
	window := attendanceService.WindowPolicy{
		Before:   cfg.CheckIn.WindowBefore,
		After:    cfg.CheckIn.WindowAfter,
		Location: loc,
	}
	checkInService := attendanceService.NewCheckInService(
		tx,
		shiftRepo,
		establishmentRepo,
		checkinRepo,
		redis.NewCheckInGuard(rdb, cfg.Redis.LockTTL),
		personRepo,
		notifService,
		attendanceService.NewCoordinator(window),
		position.Options{
			Timeout: cfg.CheckIn.PositionTimeout,
			MaxAge:  cfg.CheckIn.PositionMaxAge,
		},
	)
	shiftSvc := shiftService.NewShiftService(tx, shiftRepo, establishmentRepo, personRepo, notifService, loc)

	// Background jobs
	scheduler := cron.NewScheduler(logger.With("component", "cron"))
	jobs := cron.NewCheckInJobs(
		shiftRepo,
		checkinRepo,
		personRepo,
		notifService,
		redis.NewReminderLog(rdb),
		window,
		loc,
		logger.With("component", "checkin_jobs"),
	)
	jobs.Register(scheduler, cron.Intervals{
		Stats:   cfg.CheckIn.StatsPollInterval,
		Pending: cfg.Notification.PollInterval,
		Absent:  cfg.CheckIn.AbsentInterval,
	})
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP
	JWTService := jwt.NewJWTService(cfg.JWT.Secret)
	router := appHTTP.NewRouter(
		appHTTP.RouterConfig{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			LogLevel:       level,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
		},
		JWTService,
		appHTTP.NewCheckInHandler(checkInService),
		appHTTP.NewShiftHandler(shiftSvc),
		appHTTP.NewNotificationHandler(notifService, hub, JWTService),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
