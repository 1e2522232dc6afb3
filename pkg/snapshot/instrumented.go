package snapshot

import (
	"context"

	"github.com/dd0wney/graphem/pkg/metrics"
)

// InstrumentedStore records every operation of the wrapped store.
type InstrumentedStore struct {
	Store
	name    string
	codec   Codec
	metrics *metrics.Registry
}

// Instrument wraps s; name labels the store kind in metrics.
func Instrument(s Store, name string, codec Codec, m *metrics.Registry) *InstrumentedStore {
	return &InstrumentedStore{Store: s, name: name, codec: codec, metrics: m}
}

func (s *InstrumentedStore) Put(ctx context.Context, key string, snap Snapshot) (int, error) {
	n, err := s.Store.Put(ctx, key, snap)
	s.metrics.RecordSnapshot(s.name, "put", s.codec.String(), n, err)
	return n, err
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) (Snapshot, error) {
	snap, err := s.Store.Get(ctx, key)
	s.metrics.RecordSnapshot(s.name, "get", s.codec.String(), 0, err)
	return snap, err
}
