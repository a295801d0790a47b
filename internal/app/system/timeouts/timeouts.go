// Package timeouts provides centralized timeout values for handler operations.
//
// These are used with context.WithTimeout for database work and other I/O in
// HTTP handlers. Centralizing the values keeps them consistent and easy to
// adjust.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: simple single-document reads or lookups
//   - Medium: list queries, moderate writes, geospatial searches
//   - Long: multi-collection flows such as matching plus notification fanout
package timeouts

import "time"

const (
	ping   = 2 * time.Second
	short  = 5 * time.Second
	medium = 10 * time.Second
	long   = 30 * time.Second
)

// Ping returns the timeout for health checks and connectivity verification.
func Ping() time.Duration { return ping }

// Short returns the timeout for simple operations like single-document reads.
func Short() time.Duration { return short }

// Medium returns the timeout for list queries and moderate writes.
func Medium() time.Duration { return medium }

// Long returns the timeout for operations touching multiple collections,
// such as building a match list and fanning out notifications.
func Long() time.Duration { return long }
