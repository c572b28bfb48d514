package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/pendakian/trip-service/internal/auth"
	"github.com/pendakian/trip-service/internal/booking"
	"github.com/pendakian/trip-service/internal/earning"
	"github.com/pendakian/trip-service/internal/payment"
	"github.com/pendakian/trip-service/internal/transport/middleware"
	"github.com/pendakian/trip-service/internal/transport/swagger"
	"github.com/pendakian/trip-service/internal/trip"
	"github.com/pendakian/trip-service/internal/withdrawal"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

type Handlers struct {
	Booking    *booking.Handler
	Payment    *payment.Handler
	Webhook    *payment.WebhookHandler
	Earning    *earning.Handler
	Withdrawal *withdrawal.Handler
	Trip       *trip.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authMW *auth.Middleware, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Gateway-facing routes: authenticated by signature, not by JWT
		if h.Webhook != nil {
			r.Post("/payments/callback", h.Webhook.HandleCallback)
		}

		// Routes for any authenticated user
		r.Group(func(ur chi.Router) {
			ur.Use(authMW.Authenticate)

			if h.Booking != nil {
				ur.Post("/trips/{id}/book", h.Booking.BookTrip)
				ur.Get("/bookings", h.Booking.UserBookings)
				ur.Get("/bookings/{id}/payment-status", h.Booking.PaymentStatus)
			}

			if h.Webhook != nil {
				ur.Post("/payments/return", h.Webhook.HandleReturn)
			}
			if h.Payment != nil {
				ur.Get("/payments/{orderId}/verify", h.Payment.VerifyStatus)
			}

			// Guide-only routes
			ur.Group(func(gr chi.Router) {
				gr.Use(authMW.RequireGuide)

				if h.Earning != nil {
					gr.Get("/guide/earnings", h.Earning.Overview)
					gr.Get("/guide/earnings/summary", h.Earning.Summary)
				}
				if h.Withdrawal != nil {
					gr.Post("/guide/withdrawals/request", h.Withdrawal.Request)
					gr.Get("/guide/withdrawals", h.Withdrawal.History)
					gr.Get("/guide/withdrawals/{id}/status", h.Withdrawal.CheckStatus)
				}
				if h.Trip != nil {
					gr.Post("/guide/trips/{id}/finish", h.Trip.Finish)
				}
			})

			// Admin-only routes
			ur.Group(func(ar chi.Router) {
				ar.Use(authMW.RequireAdmin)

				if h.Withdrawal != nil {
					ar.Get("/admin/withdrawals", h.Withdrawal.ListPending)
					ar.Post("/admin/withdrawals/{id}/process", h.Withdrawal.AdminProcess)
					ar.Post("/admin/withdrawals/{id}/reject", h.Withdrawal.AdminReject)
				}
				if h.Earning != nil {
					ar.Get("/admin/guides/{id}/balance", h.Earning.GuideBalance)
				}
			})
		})
	})
}
