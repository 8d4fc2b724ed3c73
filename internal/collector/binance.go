package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"

	"PatternSentinel/internal/model"
)

// BinanceFetcher implements Fetcher on the Binance spot klines endpoint.
type BinanceFetcher struct {
	client *binance.Client
}

// NewBinanceFetcher creates a fetcher. An empty baseURL keeps the SDK default.
func NewBinanceFetcher(baseURL, apiKey, proxyURL string) *BinanceFetcher {
	client := binance.NewClient(apiKey, "")
	if baseURL != "" {
		client.BaseURL = baseURL
	}
	client.HTTPClient = newHTTPClient(proxyURL)
	return &BinanceFetcher{client: client}
}

func (f *BinanceFetcher) Name() string { return "binance" }

// FetchCandles requests klines with inclusive start and end times in milliseconds.
func (f *BinanceFetcher) FetchCandles(ctx context.Context, req model.ChunkRequest) ([]model.OHLCV, error) {
	svc := f.client.NewKlinesService().
		Symbol(req.Symbol).
		Interval(req.Interval.String()).
		StartTime(req.Start.UnixMilli()).
		EndTime(req.End.UnixMilli())
	if req.Limit > 0 {
		svc = svc.Limit(req.Limit)
	}

	klines, err := svc.Do(ctx)
	if err != nil {
		return nil, f.classify(err)
	}

	bars := make([]model.OHLCV, 0, len(klines))
	for _, k := range klines {
		bar, err := klineToBar(k)
		if err != nil {
			return nil, &ProviderError{Provider: f.Name(), Err: err}
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// classify keeps transport failures retryable and turns everything else,
// API error bodies included, into a ProviderError.
func (f *BinanceFetcher) classify(err error) error {
	if IsTransient(err) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("binance klines: %w", err)
	}
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: f.Name(), Body: fmt.Sprintf("code %d: %s", apiErr.Code, apiErr.Message), Err: err}
	}
	return &ProviderError{Provider: f.Name(), Err: err}
}

func klineToBar(k *binance.Kline) (model.OHLCV, error) {
	fields := [...]string{k.Open, k.High, k.Low, k.Close, k.Volume}
	var vals [5]float64
	for i, s := range fields {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return model.OHLCV{}, fmt.Errorf("parse kline value %q: %w", s, err)
		}
		vals[i] = d.InexactFloat64()
	}
	return model.OHLCV{
		Time:   time.UnixMilli(k.OpenTime).UTC(),
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}
