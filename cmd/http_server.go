package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pendakian/trip-service/internal"
	"github.com/pendakian/trip-service/internal/auth"
	"github.com/pendakian/trip-service/internal/booking"
	bookingpg "github.com/pendakian/trip-service/internal/booking/postgres"
	"github.com/pendakian/trip-service/internal/core/events"
	"github.com/pendakian/trip-service/internal/earning"
	earningpg "github.com/pendakian/trip-service/internal/earning/postgres"
	"github.com/pendakian/trip-service/internal/gateway"
	"github.com/pendakian/trip-service/internal/notification"
	"github.com/pendakian/trip-service/internal/payment"
	paymentpg "github.com/pendakian/trip-service/internal/payment/postgres"
	"github.com/pendakian/trip-service/internal/transport"
	"github.com/pendakian/trip-service/internal/transport/rest"
	"github.com/pendakian/trip-service/internal/trip"
	trippg "github.com/pendakian/trip-service/internal/trip/postgres"
	"github.com/pendakian/trip-service/internal/withdrawal"
	withdrawalpg "github.com/pendakian/trip-service/internal/withdrawal/postgres"
	"github.com/pendakian/trip-service/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

func startHTTPServer() {
	cfg, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Format)
	lg := logger.L()

	db, err := initDB(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize ORM: %v\n", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	wireRoutes(router, cfg, db, gormDB, lg)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		slog.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		if err := db.Close(); err != nil {
			slog.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

// wireRoutes builds the object graph. Construction order follows the money:
// ledgers first, then the settlement engine, then the surfaces that feed it.
func wireRoutes(router *chi.Mux, cfg *internal.Config, db *sqlx.DB, gormDB *gorm.DB, lg *slog.Logger) {
	baseHandler := transport.NewBaseHandler(lg)
	eventBus := events.NewEventBus(lg)
	gatewayClient := gateway.NewClient(cfg.Gateway, lg)

	// repositories
	paymentRepo := paymentpg.NewPaymentRepository(gormDB)
	earningRepo := earningpg.NewEarningRepository(gormDB)
	withdrawalRepo := withdrawalpg.NewWithdrawalRepository(gormDB)
	bookingRepo := bookingpg.NewBookingRepository(gormDB)
	userRepo := bookingpg.NewUserRepository(gormDB)
	tripRepo := trippg.NewTripRepository(gormDB)
	guideRepo := trippg.NewGuideRepository(gormDB)

	// services
	earningService := earning.NewService(earningRepo, withdrawalRepo, bookingRepo, tripRepo, eventBus, cfg.Payment.GuideSharePercentage, lg)
	paymentService := payment.NewService(paymentRepo, gatewayClient, earningService, bookingRepo, eventBus, cfg.Payment.CheckoutExpiry, cfg.Gateway.CallbackURL, lg)
	withdrawalService := withdrawal.NewService(withdrawalRepo, earningService, guideRepo, gatewayClient, eventBus, cfg.Payment.MinimumWithdrawal, lg)
	bookingService := booking.NewService(bookingRepo, tripRepo, userRepo, paymentService, lg)
	tripService := trip.NewService(tripRepo, bookingRepo, paymentService, earningService, lg)

	// best-effort side effects
	notifier := notification.NewNotifier(lg)
	notifier.RegisterEventHandlers(eventBus)

	// auth
	tokens := auth.NewTokenManager(cfg.Security)
	authMW := auth.NewMiddleware(baseHandler, tokens, lg)

	handlers := rest.Handlers{
		Booking:    booking.NewHandler(baseHandler, bookingService, lg),
		Payment:    payment.NewHandler(baseHandler, paymentService, lg),
		Webhook:    payment.NewWebhookHandler(baseHandler, paymentService, lg),
		Earning:    earning.NewHandler(baseHandler, earningService, lg),
		Withdrawal: withdrawal.NewHandler(baseHandler, withdrawalService, lg),
		Trip:       trip.NewHandler(baseHandler, tripService, lg),
	}

	rest.RegisterAllRoutes(router, db.DB, authMW, handlers, lg)
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
