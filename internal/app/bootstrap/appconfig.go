// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS, logging,
// CORS, request limits). AppConfig is everything specific to BloodStream:
// database connection, token signing, and the matching engine tunables.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Max connection pool size
	MongoMinPoolSize uint64 // Min connection pool size

	// Access token configuration
	JWTSecret string        // HS256 signing key (must be strong in production)
	JWTIssuer string        // Token issuer claim
	TokenTTL  time.Duration // Access token lifetime

	// Matching engine tunables
	SearchRadiusKm    float64 // Candidate donor search radius in kilometers
	CandidatePoolSize int     // Max donors fetched per candidate search
	MatchListSize     int     // Max matches kept per request
}
