// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/engine"
	authfeature "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/auth"
	deliveriesfeature "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/deliveries"
	healthfeature "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/health"
	notificationsfeature "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/notifications"
	requestsfeature "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/features/requests"
	deliverystore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/deliveries"
	notificationstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/notifications"
	requeststore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/requests"
	userstore "github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/store/users"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/auth"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/metrics"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. It assembles the stores, the matching
// engine, and the feature routers into the API surface:
//
//	POST   /api/v1/auth/register, /api/v1/auth/login
//	CRUD   /api/v1/requests (+ match, accept, decline, escalate, cancel, nearby-donors)
//	CRUD   /api/v1/deliveries (+ status)
//	GET    /api/v1/notifications (+ stream, read, read-all)
//	GET    /health, /metrics
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	requests := requeststore.New(db)
	deliveries := deliverystore.New(db)
	notifications := notificationstore.New(db)

	met := metrics.New()
	notifier := engine.NewNotifier(notifications, hub, met, logger)
	eng := engine.New(engine.Config{
		SearchRadiusKm:    appCfg.SearchRadiusKm,
		CandidatePoolSize: int64(appCfg.CandidatePoolSize),
		MatchListSize:     appCfg.MatchListSize,
	}, users, requests, deliveries, notifier, met, logger)

	tokens := auth.NewTokenService(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.TokenTTL)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		authHandler := authfeature.NewHandler(users, tokens, logger)
		r.Route("/auth", authHandler.MountRoutes)

		// Everything below requires a valid bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens, logger))

			requestsHandler := requestsfeature.NewHandler(eng, logger)
			r.Route("/requests", requestsHandler.MountRoutes)

			deliveriesHandler := deliveriesfeature.NewHandler(eng, logger)
			r.Route("/deliveries", deliveriesHandler.MountRoutes)

			notificationsHandler := notificationsfeature.NewHandler(notifications, hub, logger)
			r.Route("/notifications", notificationsHandler.MountRoutes)
		})
	})

	return r, nil
}
