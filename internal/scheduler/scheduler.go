package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"PatternSentinel/internal/analyzer"
	"PatternSentinel/internal/model"
	"PatternSentinel/internal/notifier"
	"PatternSentinel/internal/retry"

	"github.com/robfig/cron/v3"
)

// Options selects what the periodic jobs watch.
type Options struct {
	Symbols       []string
	Interval      model.Interval
	Window        int
	TrendHours    int
	TrendMinScore float64
	CacheDriver   string
	SendPolicy    retry.Policy
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron     *cron.Cron
	Analyzer *analyzer.Service
	Notifier notifier.Notifier
	Opts     Options
	Ctx      context.Context

	mu          sync.Mutex
	lastSimilar map[string]bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *analyzer.Service, n notifier.Notifier, opts Options) *Scheduler {
	if opts.SendPolicy.MaxAttempts <= 0 {
		opts.SendPolicy = retry.Policy{MaxAttempts: 4, BaseDelay: time.Second, Multiplier: 2, MaxDelay: 8 * time.Second}
	}
	return &Scheduler{
		Cron:        cron.New(cron.WithSeconds()),
		Analyzer:    svc,
		Notifier:    n,
		Opts:        opts,
		Ctx:         ctx,
		lastSimilar: make(map[string]bool),
	}
}

// RegisterAll registers the similarity watch, the trend scan and cache cleanup.
func (s *Scheduler) RegisterAll(watchCron, trendCron, cleanupCron string) error {
	if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
		return fmt.Errorf("register watch task: %w", err)
	}
	if _, err := s.Cron.AddFunc(trendCron, s.trendTask); err != nil {
		return fmt.Errorf("register trend task: %w", err)
	}
	if _, err := s.Cron.AddFunc(cleanupCron, s.cleanupTask); err != nil {
		return fmt.Errorf("register cleanup task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunWatchNow executes the watch task immediately (for RUN_ON_START).
func (s *Scheduler) RunWatchNow() {
	s.watchTask()
}

// watchTask alerts when a symbol's latest window starts echoing the one
// five days earlier. A verdict that stays similar is reported once.
func (s *Scheduler) watchTask() {
	log.Println("[INFO] running watch task")
	for _, symbol := range s.Opts.Symbols {
		res, err := s.Analyzer.Analyze(s.Ctx, analyzer.AnalyzeRequest{
			Symbol:   symbol,
			Interval: s.Opts.Interval,
			Window:   s.Opts.Window,
		})
		if err != nil {
			log.Printf("[ERROR] watch %s: %v", symbol, err)
			continue
		}
		log.Printf("[INFO] %s %s corr=%.4f cos=%.4f similar=%v",
			symbol, s.Opts.Interval, res.Similarity.Correlation, res.Similarity.Cosine, res.Similarity.IsSimilar)

		if s.flipped(symbol, res.Similarity.IsSimilar) {
			s.trySend(notifier.FormatAnalyze(res))
		}
	}
}

// flipped records the verdict and reports whether it just became similar.
func (s *Scheduler) flipped(symbol string, similar bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.lastSimilar[symbol]
	s.lastSimilar[symbol] = similar
	return similar && !was
}

// trendTask reports symbols whose recent hours closely follow a historical period.
func (s *Scheduler) trendTask() {
	log.Println("[INFO] running trend task")
	for _, symbol := range s.Opts.Symbols {
		res, err := s.Analyzer.TrendAnalysis(s.Ctx, analyzer.TrendRequest{
			Symbol:   symbol,
			Interval: s.Opts.Interval,
			Hours:    s.Opts.TrendHours,
		})
		if err != nil {
			log.Printf("[ERROR] trend %s: %v", symbol, err)
			continue
		}
		if len(res.Matches) == 0 || res.Matches[0].Similarity < s.Opts.TrendMinScore {
			log.Printf("[INFO] trend %s: %d matches, none above %.2f", symbol, len(res.Matches), s.Opts.TrendMinScore)
			continue
		}
		s.trySend(notifier.FormatTrend(res, 3))
	}
}

func (s *Scheduler) cleanupTask() {
	n, err := s.Analyzer.Cache().Cleanup()
	if err != nil {
		log.Printf("[ERROR] cache cleanup: %v", err)
		return
	}
	if n > 0 {
		log.Printf("[INFO] cache cleanup removed %d expired entries", n)
	}
}

// HandleCommand processes a user command and returns a reply. Commands take
// an optional symbol and interval, e.g. "/analyze ETHUSDT 1h".
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.HelpText
	}
	symbol, interval := s.defaultSymbol(), s.Opts.Interval
	if len(fields) > 1 {
		symbol = strings.ToUpper(fields[1])
	}
	if len(fields) > 2 {
		interval = model.Interval(fields[2])
	}

	switch fields[0] {
	case "/analyze":
		res, err := s.Analyzer.Analyze(ctx, analyzer.AnalyzeRequest{Symbol: symbol, Interval: interval, Window: s.Opts.Window})
		if err != nil {
			return notifier.FormatError("analyze", err)
		}
		return notifier.FormatAnalyze(res)
	case "/trend":
		res, err := s.Analyzer.TrendAnalysis(ctx, analyzer.TrendRequest{Symbol: symbol, Interval: interval, Hours: s.Opts.TrendHours})
		if err != nil {
			return notifier.FormatError("trend", err)
		}
		return notifier.FormatTrend(res, 5)
	case "/snapshot":
		snap, err := s.Analyzer.Snapshot(ctx, symbol, interval, 24)
		if err != nil {
			return notifier.FormatError("snapshot", err)
		}
		return notifier.FormatSnapshot(snap)
	case "/cache":
		n, err := s.Analyzer.Cache().Len()
		if err != nil {
			return notifier.FormatError("cache", err)
		}
		return notifier.FormatCacheStatus(s.Opts.CacheDriver, n)
	default:
		return notifier.HelpText
	}
}

func (s *Scheduler) defaultSymbol() string {
	if len(s.Opts.Symbols) > 0 {
		return s.Opts.Symbols[0]
	}
	return "BTCUSDT"
}

func (s *Scheduler) trySend(text string) {
	if err := s.Notifier.SendWithRetry(s.Ctx, text, s.Opts.SendPolicy); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
