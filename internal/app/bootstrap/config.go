// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for BloodStream.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: BLOODSTREAM_MONGO_URI, BLOODSTREAM_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "bloodstream", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Access tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "JWT signing key (must be strong in production)"},
	{Name: "jwt_issuer", Default: "bloodstream", Desc: "JWT issuer claim"},
	{Name: "token_ttl", Default: "24h", Desc: "Access token lifetime (e.g., 24h, 90m)"},

	// Matching engine
	{Name: "search_radius_km", Default: 50, Desc: "Candidate donor search radius in kilometers"},
	{Name: "candidate_pool_size", Default: 50, Desc: "Max donors fetched per candidate search"},
	{Name: "match_list_size", Default: 20, Desc: "Max matches kept per request"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, BLOODSTREAM_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "BLOODSTREAM", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	// Some system packages log through zap's global logger.
	zap.ReplaceGlobals(logger)

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),
		TokenTTL:  appValues.Duration("token_ttl", 24*time.Hour),

		SearchRadiusKm:    float64(appValues.Int("search_radius_km")),
		CandidatePoolSize: appValues.Int("candidate_pool_size"),
		MatchListSize:     appValues.Int("match_list_size"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// BloodStream validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and refuses nonsensical
// engine tunables.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if coreCfg.Env == "prod" && appCfg.JWTSecret == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("jwt_secret must be set in production")
	}
	if appCfg.SearchRadiusKm <= 0 {
		return fmt.Errorf("search_radius_km must be positive")
	}
	if appCfg.CandidatePoolSize < 1 || appCfg.MatchListSize < 1 {
		return fmt.Errorf("candidate_pool_size and match_list_size must be at least 1")
	}
	return nil
}
