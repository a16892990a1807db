package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/uninest/internal/config"
	"github.com/iliyamo/uninest/internal/database"
	"github.com/iliyamo/uninest/internal/handler"
	"github.com/iliyamo/uninest/internal/logger"
	"github.com/iliyamo/uninest/internal/metrics"
	"github.com/iliyamo/uninest/internal/middleware"
	"github.com/iliyamo/uninest/internal/payment"
	"github.com/iliyamo/uninest/internal/queue"
	"github.com/iliyamo/uninest/internal/repository"
	"github.com/iliyamo/uninest/internal/router"
	"github.com/iliyamo/uninest/internal/service"
	"github.com/iliyamo/uninest/internal/subscription"
)

const shutdownTimeout = 10 * time.Second

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load() // Load environment config
	if err != nil {
		logger.New("").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg.DSN())
	if err != nil {
		log.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		if err := database.Migrate(db); err != nil {
			log.Error("migrate database", "err", err)
			os.Exit(1)
		}
	}

	plans := subscription.MustDefault()
	if cfg.PlansFile != "" {
		if plans, err = subscription.Load(cfg.PlansFile); err != nil {
			log.Error("load plan catalog", "file", cfg.PlansFile, "err", err)
			os.Exit(1)
		}
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), log) // nil when Redis is unavailable
	if rdb != nil {
		defer rdb.Close()
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	libRepo := repository.NewLibraryRepo(db)
	slotRepo := repository.NewTimeSlotRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	subRepo := repository.NewSubscriptionRepo(db)
	orderRepo := repository.NewPaymentOrderRepo(db)
	tx := repository.NewTransactor(db)

	// Services
	m := metrics.New()
	opts := []service.Option{
		service.WithLogger(log),
		service.WithPublisher(queue.NewPublisher(cfg.RabbitURL, log)),
		service.WithRecorder(m),
	}
	ledger := service.NewLedger(subRepo, plans, opts...)
	slots := service.NewSlotService(libRepo, slotRepo, ledger, opts...)
	bookings := service.NewBookingService(tx, slots, slotRepo, libRepo, bookingRepo, opts...)
	libraries := service.NewLibraryService(tx, libRepo, ledger, opts...)
	payments := service.NewPaymentService(tx, orderRepo, subRepo, libRepo, ledger, plans,
		payment.NewClient(cfg.RazorpayBaseURL, cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		service.PaymentConfig{
			KeyID:         cfg.RazorpayKeyID,
			KeySecret:     cfg.RazorpayKeySecret,
			WebhookSecret: cfg.RazorpayWebhookSecret,
		}, opts...)

	// Handlers
	libHandler := handler.NewLibraryHandler(libraries, slots, log)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))
	e.Use(m.Middleware())
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log))

	router.RegisterRoutes(e, handler.Health(db), m)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens, log), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewPlansHandler(plans), libHandler,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterLibrary(e, router.LibraryHandlers{
		Libraries:     libHandler,
		TimeSlots:     handler.NewTimeSlotHandler(slots, log),
		Subscriptions: handler.NewSubscriptionHandler(libraries, ledger, log),
		Payments:      handler.NewPaymentHandler(payments, log),
	}, cfg.JWTSecret)
	router.RegisterBookings(e, handler.NewBookingHandler(bookings, log), cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RunConsumer {
		go func() {
			if err := queue.StartBookingConsumer(ctx, cfg.RabbitURL, cfg.BookingLogPath, log); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("booking consumer stopped", "err", err)
			}
		}()
	}

	addr := ":" + cfg.Port // Address string with port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
	log.Info("server stopped")
}
