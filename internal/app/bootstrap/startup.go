// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/realtime"
)

// hub is the process-wide realtime registry. Created at startup, shared by
// the engine's fanout and the notification stream, torn down at shutdown.
var hub *realtime.Hub

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	hub = realtime.NewHub()
	logger.Info("matching engine configured",
		zap.Float64("search_radius_km", appCfg.SearchRadiusKm),
		zap.Int("candidate_pool_size", appCfg.CandidatePoolSize),
		zap.Int("match_list_size", appCfg.MatchListSize))
	return nil
}
