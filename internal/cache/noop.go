package cache

import "time"

// NoopStore never stores anything. Used when caching is disabled.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) Get(_ string) ([]byte, bool, error)            { return nil, false, nil }
func (n *NoopStore) Set(_ string, _ []byte, _ time.Duration) error { return nil }
func (n *NoopStore) Delete(_ string) error                         { return nil }
func (n *NoopStore) Cleanup() (int, error)                         { return 0, nil }
func (n *NoopStore) Len() (int, error)                             { return 0, nil }
func (n *NoopStore) Close() error                                  { return nil }
