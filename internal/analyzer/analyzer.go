// Package analyzer runs the similarity and pattern operations against live
// provider data, caching responses in an injected store.
package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"PatternSentinel/internal/cache"
	"PatternSentinel/internal/collector"
	"PatternSentinel/internal/model"
)

var (
	// ErrInvalidInput marks a request the caller must fix.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientData means the provider returned too few points to answer.
	ErrInsufficientData = errors.New("insufficient data")
)

// Error classes for callers that map failures onto a transport status.
const (
	ClassClient   = "client"
	ClassUpstream = "upstream"
)

// ErrorClass returns ClassClient for validation failures, ClassUpstream for
// everything else, and "" for nil.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInsufficientData),
		errors.Is(err, collector.ErrInvalidRequest):
		return ClassClient
	default:
		return ClassUpstream
	}
}

// DefaultLookback is how far back historical searches reach.
const DefaultLookback = 365 * 24 * time.Hour

// Service answers analysis requests. It is safe for concurrent use.
type Service struct {
	retriever *collector.Retriever
	cache     cache.Store
	lookback  time.Duration
	now       func() time.Time
}

// NewService creates a Service. A nil store disables caching; a non-positive
// lookback uses DefaultLookback.
func NewService(retriever *collector.Retriever, store cache.Store, lookback time.Duration) *Service {
	if store == nil {
		store = cache.NewNoopStore()
	}
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	return &Service{retriever: retriever, cache: store, lookback: lookback, now: time.Now}
}

// Cache exposes the response store for maintenance jobs.
func (s *Service) Cache() cache.Store { return s.cache }

// cached returns the stored value under key or computes, stores and returns it.
// Cache failures are logged and never fail the request.
func cached[T any](s *Service, key string, ttl time.Duration, compute func() (T, error)) (T, error) {
	if raw, ok, err := s.cache.Get(key); err != nil {
		log.Printf("[WARN] cache get %s: %v", key, err)
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.Printf("[WARN] cache entry %s unreadable, recomputing", key)
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err != nil {
		log.Printf("[WARN] cache encode %s: %v", key, err)
	} else if err := s.cache.Set(key, raw, ttl); err != nil {
		log.Printf("[WARN] cache set %s: %v", key, err)
	}
	return v, nil
}

func validInterval(interval model.Interval) error {
	if !interval.Valid() {
		return fmt.Errorf("%w: unsupported interval %q", ErrInvalidInput, interval)
	}
	return nil
}

// indexTime maps a series index to wall-clock time from the covered start.
func indexTime(cov model.Coverage, interval model.Interval, idx int) time.Time {
	base := cov.CoveredStart
	if base.IsZero() {
		base = cov.RequestedStart
	}
	return base.Add(time.Duration(idx) * interval.Duration())
}

// orDefault returns v when it lies in [lo, hi], else def.
func orDefault[T int | float64](v, lo, hi, def T) T {
	if v < lo || v > hi {
		return def
	}
	return v
}
