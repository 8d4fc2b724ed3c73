package model

import "time"

// Series is an ordered sequence of values sampled at a fixed interval.
// Index i is time step i; timestamps are reconstructed by the caller.
type Series []float64

// Clone returns an independent copy.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// Match is one window of a long series that resembles a query pattern.
// Continuation holds the points right after the window and may be shorter
// than requested, or empty at the tail of the data.
type Match struct {
	StartIndex             int     `json:"start_index"`
	EndIndex               int     `json:"end_index"`
	Similarity             float64 `json:"similarity"`
	Data                   Series  `json:"data"`
	Continuation           Series  `json:"continuation"`
	ContinuationStartIndex int     `json:"continuation_start_index"`
	ContinuationEndIndex   int     `json:"continuation_end_index"`
}

// Coverage describes how much of a requested span a retrieval actually covered.
type Coverage struct {
	RequestedStart  time.Time `json:"requested_start"`
	RequestedEnd    time.Time `json:"requested_end"`
	CoveredStart    time.Time `json:"covered_start"`
	CoveredEnd      time.Time `json:"covered_end"`
	IdealChunks     int       `json:"ideal_chunks"`
	ActualChunks    int       `json:"actual_chunks"`
	ChunksSucceeded int       `json:"chunks_succeeded"`
	ChunksFailed    int       `json:"chunks_failed"`
	Points          int       `json:"points"`
	Truncated       bool      `json:"truncated"`
}

// CoveredDays returns the covered span in whole days.
func (c Coverage) CoveredDays() int {
	return int(c.CoveredEnd.Sub(c.CoveredStart) / (24 * time.Hour))
}

// RetrievalResult is the best-effort series assembled from provider chunks.
type RetrievalResult struct {
	Symbol   string   `json:"symbol"`
	Interval Interval `json:"interval"`
	Series   Series   `json:"series"`
	Coverage Coverage `json:"coverage"`
}
