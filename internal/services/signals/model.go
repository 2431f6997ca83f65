package signals

import (
	"sync"
	"time"

	"augur/internal/domain/market_data"
	"augur/internal/ml"
)

// TrainedModel binds a fitted classifier, the scaler it was trained with and
// the feature-column list into one immutable unit. The three are only valid
// together; the store swaps whole models, never individual parts.
type TrainedModel struct {
	Forest        *ml.Forest
	Scaler        *ml.StandardScaler
	Columns       []string
	TrainAccuracy float64
	TestAccuracy  float64
	Samples       int
	TrainedAt     time.Time
}

type modelKey struct {
	symbol    string
	timeframe market_data.Timeframe
}

// ModelStore holds the active trained model per (symbol, timeframe). Reads
// see either the previous or the new model, never a partial one.
type ModelStore struct {
	mu     sync.RWMutex
	models map[modelKey]*TrainedModel
}

// NewModelStore creates an empty model store
func NewModelStore() *ModelStore {
	return &ModelStore{models: make(map[modelKey]*TrainedModel)}
}

// Get returns the active model for a symbol and timeframe
func (s *ModelStore) Get(symbol string, timeframe market_data.Timeframe) (*TrainedModel, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.models[modelKey{symbol, timeframe}]
	return m, ok
}

// Put atomically replaces the active model for a symbol and timeframe
func (s *ModelStore) Put(symbol string, timeframe market_data.Timeframe, m *TrainedModel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[modelKey{symbol, timeframe}] = m
}

// Len returns the number of stored models
func (s *ModelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models)
}
