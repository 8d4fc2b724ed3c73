// Package cache stores computed responses for a limited time.
package cache

import (
	"strings"
	"time"

	"PatternSentinel/internal/model"
)

// Store is a keyed byte cache with per-entry expiry.
type Store interface {
	// Get returns the value and true on a live hit. Expired entries are misses.
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	// Cleanup removes expired entries and returns how many were dropped.
	Cleanup() (int, error)
	// Len returns the number of stored entries, expired ones included.
	Len() (int, error)
	Close() error
}

// Response lifetimes.
const (
	LiveTTL    = 60 * time.Second
	AnalyzeTTL = 120 * time.Second
)

var intervalTTLs = map[model.Interval]time.Duration{
	model.Interval1m:  30 * time.Second,
	model.Interval5m:  2 * time.Minute,
	model.Interval15m: 5 * time.Minute,
	model.Interval1h:  15 * time.Minute,
	model.Interval4h:  30 * time.Minute,
}

// TTLForInterval returns how long candle-derived data of the interval stays
// fresh. Unknown intervals use the 15m lifetime.
func TTLForInterval(interval model.Interval) time.Duration {
	if ttl, ok := intervalTTLs[interval]; ok {
		return ttl
	}
	return intervalTTLs[model.Interval15m]
}

// Key joins the operation and its parameters with ':'.
func Key(operation string, parts ...string) string {
	return strings.Join(append([]string{operation}, parts...), ":")
}
