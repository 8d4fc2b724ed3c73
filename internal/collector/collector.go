package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"PatternSentinel/internal/model"
	"PatternSentinel/internal/retry"
)

// DefaultChunkCeilings bounds the number of provider calls per retrieval.
// Finer intervals need more calls to cover the same wall-clock span.
func DefaultChunkCeilings() map[model.Interval]int {
	return map[model.Interval]int{
		model.Interval1m:  100,
		model.Interval5m:  120,
		model.Interval15m: 40,
		model.Interval1h:  12,
		model.Interval4h:  4,
	}
}

// Options tunes a Retriever.
type Options struct {
	ChunkLimit             int
	RequestTimeout         time.Duration
	RateLimitDelay         time.Duration
	MaxConsecutiveFailures int
	ChunkCeilings          map[model.Interval]int
	DefaultCeiling         int
	Retry                  retry.Policy
}

// DefaultOptions returns the provider limits for Binance spot klines.
func DefaultOptions() Options {
	return Options{
		ChunkLimit:             1000,
		RequestTimeout:         10 * time.Second,
		RateLimitDelay:         150 * time.Millisecond,
		MaxConsecutiveFailures: 5,
		ChunkCeilings:          DefaultChunkCeilings(),
		DefaultCeiling:         50,
		Retry:                  retry.DefaultPolicy(),
	}
}

// RetrievalRequest asks for closes of one symbol between Start and End.
type RetrievalRequest struct {
	Symbol   string
	Interval model.Interval
	Start    time.Time
	End      time.Time
}

// State tracks one retrieval as it walks the chunks.
type State struct {
	ChunksAttempted     int
	ChunksSucceeded     int
	ConsecutiveFailures int
	PointsCollected     int
}

// ShouldAbort reports whether the provider looks unreachable: nothing has
// been collected and more than maxConsecutive chunks failed in a row.
func (s State) ShouldAbort(maxConsecutive int) bool {
	return s.PointsCollected == 0 && s.ConsecutiveFailures > maxConsecutive
}

func (s *State) record(o chunkOutcome) {
	s.ChunksAttempted++
	if o.status != chunkOK {
		s.ConsecutiveFailures++
		return
	}
	s.ChunksSucceeded++
	s.ConsecutiveFailures = 0
	s.PointsCollected += len(o.points)
}

type chunkStatus int

const (
	chunkOK chunkStatus = iota
	chunkEmpty
	chunkFailed
)

// chunkOutcome is the result of one chunk: points on success, err on failure.
type chunkOutcome struct {
	status chunkStatus
	points model.Series
	err    error
}

// Retriever assembles a long close series from a chunk-capped provider.
// Chunks are fetched sequentially, oldest first.
type Retriever struct {
	fetcher Fetcher
	opts    Options
}

// NewRetriever creates a Retriever. Zero option fields fall back to DefaultOptions.
func NewRetriever(fetcher Fetcher, opts Options) *Retriever {
	def := DefaultOptions()
	if opts.ChunkLimit <= 0 {
		opts.ChunkLimit = def.ChunkLimit
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = def.RequestTimeout
	}
	if opts.RateLimitDelay < 0 {
		opts.RateLimitDelay = 0
	}
	if opts.MaxConsecutiveFailures <= 0 {
		opts.MaxConsecutiveFailures = def.MaxConsecutiveFailures
	}
	if opts.ChunkCeilings == nil {
		opts.ChunkCeilings = def.ChunkCeilings
	}
	if opts.DefaultCeiling <= 0 {
		opts.DefaultCeiling = def.DefaultCeiling
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry = def.Retry
	}
	return &Retriever{fetcher: fetcher, opts: opts}
}

// Fetcher returns the underlying provider.
func (r *Retriever) Fetcher() Fetcher { return r.fetcher }

// ChunkLimit returns the maximum number of bars per provider call.
func (r *Retriever) ChunkLimit() int { return r.opts.ChunkLimit }

func (r *Retriever) ceiling(interval model.Interval) int {
	if c, ok := r.opts.ChunkCeilings[interval]; ok && c > 0 {
		return c
	}
	return r.opts.DefaultCeiling
}

// Plan splits the request into chunks, oldest first, capped by the interval's
// ceiling. It also returns the number of chunks the full span would need.
func (r *Retriever) Plan(req RetrievalRequest) (chunks []model.ChunkRequest, ideal int, err error) {
	step := req.Interval.Duration()
	if step <= 0 {
		return nil, 0, fmt.Errorf("%w: unknown interval %q", ErrInvalidRequest, req.Interval)
	}
	if !req.End.After(req.Start) {
		return nil, 0, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidRequest, req.End, req.Start)
	}

	chunkDuration := step * time.Duration(r.opts.ChunkLimit)
	span := req.End.Sub(req.Start)
	ideal = int((span + chunkDuration - 1) / chunkDuration)
	actual := ideal
	if c := r.ceiling(req.Interval); actual > c {
		actual = c
	}

	chunks = make([]model.ChunkRequest, 0, actual)
	for i := 0; i < actual; i++ {
		start := req.Start.Add(time.Duration(i) * chunkDuration)
		end := start.Add(chunkDuration - step)
		if end.After(req.End) {
			end = req.End
		}
		chunks = append(chunks, model.ChunkRequest{
			Symbol:   req.Symbol,
			Interval: req.Interval,
			Start:    start,
			End:      end,
			Limit:    r.opts.ChunkLimit,
		})
	}
	return chunks, ideal, nil
}

// Retrieve fetches every planned chunk and concatenates the closes in time
// order. Failed or empty chunks are skipped. It fails with
// ErrProviderUnreachable when too many chunks fail before any data arrives,
// and with ctx.Err() when the caller gives up; in that case the points
// collected so far are still returned.
func (r *Retriever) Retrieve(ctx context.Context, req RetrievalRequest) (model.RetrievalResult, error) {
	result := model.RetrievalResult{Symbol: req.Symbol, Interval: req.Interval}
	chunks, ideal, err := r.Plan(req)
	if err != nil {
		return result, err
	}

	cov := &result.Coverage
	cov.RequestedStart = req.Start
	cov.RequestedEnd = req.End
	cov.IdealChunks = ideal
	cov.ActualChunks = len(chunks)
	cov.Truncated = len(chunks) < ideal

	log.Printf("[INFO] Retrieving %s %s from %s: %d/%d chunks", req.Symbol, req.Interval, r.fetcher.Name(), len(chunks), ideal)

	var state State
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome := r.fetchChunk(ctx, chunk)
		if err := ctx.Err(); err != nil {
			return result, err
		}
		state.record(outcome)

		switch outcome.status {
		case chunkOK:
			result.Series = append(result.Series, outcome.points...)
			if cov.CoveredStart.IsZero() {
				cov.CoveredStart = chunk.Start
			}
			cov.CoveredEnd = chunk.End
		case chunkEmpty:
			log.Printf("[WARN] Chunk %d/%d empty, skipping", i+1, len(chunks))
		case chunkFailed:
			log.Printf("[WARN] Chunk %d/%d failed, skipping: %v", i+1, len(chunks), outcome.err)
		}

		if state.ShouldAbort(r.opts.MaxConsecutiveFailures) {
			log.Printf("[ERROR] %d consecutive chunk failures with no data, aborting", state.ConsecutiveFailures)
			r.fillCounts(cov, state)
			return result, fmt.Errorf("%w: %s after %d failed chunks", ErrProviderUnreachable, r.fetcher.Name(), state.ConsecutiveFailures)
		}

		if (i+1)%5 == 0 {
			log.Printf("[INFO] %d/%d chunks processed, %d points", i+1, len(chunks), state.PointsCollected)
		}

		if outcome.status == chunkOK && i < len(chunks)-1 {
			if err := sleepCtx(ctx, r.opts.RateLimitDelay); err != nil {
				r.fillCounts(cov, state)
				return result, err
			}
		}
	}

	r.fillCounts(cov, state)
	log.Printf("[INFO] Retrieved %d points for %s %s (%d/%d chunks ok, truncated=%v)",
		cov.Points, req.Symbol, req.Interval, cov.ChunksSucceeded, cov.ActualChunks, cov.Truncated)
	return result, nil
}

func (r *Retriever) fillCounts(cov *model.Coverage, s State) {
	cov.ChunksSucceeded = s.ChunksSucceeded
	cov.ChunksFailed = s.ChunksAttempted - s.ChunksSucceeded
	cov.Points = s.PointsCollected
}

// Fetch runs one chunk request through the retry policy, each attempt
// bounded by RequestTimeout. Only transient errors are retried.
func (r *Retriever) Fetch(ctx context.Context, chunk model.ChunkRequest) ([]model.OHLCV, error) {
	if chunk.Limit <= 0 || chunk.Limit > r.opts.ChunkLimit {
		chunk.Limit = r.opts.ChunkLimit
	}
	var bars []model.OHLCV
	err := retry.Do(ctx, r.opts.Retry, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
		defer cancel()
		var err error
		bars, err = r.fetcher.FetchCandles(attemptCtx, chunk)
		return err
	}, func(err error) bool {
		return ctx.Err() == nil && IsTransient(err)
	})
	if err != nil {
		return nil, err
	}
	return bars, nil
}

func (r *Retriever) fetchChunk(ctx context.Context, chunk model.ChunkRequest) chunkOutcome {
	bars, err := r.Fetch(ctx, chunk)
	if err != nil {
		return chunkOutcome{status: chunkFailed, err: err}
	}
	if len(bars) == 0 {
		return chunkOutcome{status: chunkEmpty}
	}
	return chunkOutcome{status: chunkOK, points: model.Closes(bars)}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
