package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"net/url"
	"time"

	"PatternSentinel/internal/model"
)

// Fetcher returns candles for one bounded chunk, ordered by time ascending.
type Fetcher interface {
	FetchCandles(ctx context.Context, req model.ChunkRequest) ([]model.OHLCV, error)
	Name() string
}

var (
	// ErrProviderUnreachable aborts a retrieval that failed repeatedly before
	// collecting any data.
	ErrProviderUnreachable = errors.New("provider unreachable")
	// ErrInvalidRequest rejects a retrieval with an unknown interval or an empty span.
	ErrInvalidRequest = errors.New("invalid retrieval request")
)

// ProviderError is a definitive answer from the provider, such as a non-2xx
// status or an unreadable body. Retrying it is pointless.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: provider error", e.Provider)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a transport failure or attempt timeout
// worth retrying.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// newHTTPClient builds a client that optionally routes through a proxy.
func newHTTPClient(proxyURL string) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   30 * time.Second,
		Transport: transport,
	}
}

// MockFetcher serves synthetic candles for development and testing.
type MockFetcher struct {
	Price float64
}

func (m *MockFetcher) Name() string { return "mock" }

// FetchCandles generates one bar per interval step between req.Start and req.End.
// Prices oscillate deterministically around Price, keyed on the bar time.
func (m *MockFetcher) FetchCandles(ctx context.Context, req model.ChunkRequest) ([]model.OHLCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	step := req.Interval.Duration()
	if step <= 0 {
		return nil, &ProviderError{Provider: m.Name(), Status: http.StatusBadRequest, Body: "unknown interval " + req.Interval.String()}
	}
	base := m.Price
	if base <= 0 {
		base = 100
	}

	var bars []model.OHLCV
	for t := req.Start; !t.After(req.End); t = t.Add(step) {
		if req.Limit > 0 && len(bars) >= req.Limit {
			break
		}
		x := float64(t.Unix()) / step.Seconds()
		p := base * (1 + 0.05*math.Sin(x/24) + 0.01*math.Sin(x/5))
		bars = append(bars, model.OHLCV{
			Time:   t,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
	}
	return bars, nil
}
