package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"overworld/pkg/navgraph"
	"overworld/pkg/tilemap"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	areaMaps  map[tilemap.AreaID][]byte
	graph     []byte
	decisions map[string][]Decision
	pingError error
	saveError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		areaMaps:  make(map[tilemap.AreaID][]byte),
		decisions: make(map[string][]Decision),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError configures the mock to fail on every save
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveAreaMap stores a deep copy via JSON, so later mutations of the
// live map do not leak into the stored record.
func (m *MockStorage) SaveAreaMap(ctx context.Context, am *tilemap.AreaMap) error {
	if am == nil {
		return errors.New("area map cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	data, err := json.Marshal(am)
	if err != nil {
		return err
	}
	m.areaMaps[am.ID] = data
	return nil
}

// LoadAreaMap mocks loading an area map
func (m *MockStorage) LoadAreaMap(ctx context.Context, id tilemap.AreaID) (*tilemap.AreaMap, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.areaMaps[id]
	if !ok {
		return nil, nil
	}
	var am tilemap.AreaMap
	if err := json.Unmarshal(data, &am); err != nil {
		return nil, err
	}
	return &am, nil
}

// ListAreaMaps mocks listing stored area ids
func (m *MockStorage) ListAreaMaps(ctx context.Context) ([]tilemap.AreaID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]tilemap.AreaID, 0, len(m.areaMaps))
	for id := range m.areaMaps {
		ids = append(ids, id)
	}
	return ids, nil
}

// SaveGraph mocks saving the connectivity graph
func (m *MockStorage) SaveGraph(ctx context.Context, g *navgraph.Graph) error {
	if g == nil {
		return errors.New("graph cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	m.graph = data
	return nil
}

// LoadGraph mocks loading the connectivity graph
func (m *MockStorage) LoadGraph(ctx context.Context) (*navgraph.Graph, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g := navgraph.New()
	if m.graph == nil {
		return g, nil
	}
	if err := json.Unmarshal(m.graph, g); err != nil {
		return nil, err
	}
	return g, nil
}

// AppendDecision mocks appending a decision record
func (m *MockStorage) AppendDecision(ctx context.Context, d *Decision) error {
	if d == nil {
		return errors.New("decision cannot be nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	recs := append([]Decision{*d}, m.decisions[d.Session]...)
	if len(recs) > DecisionHistoryCap {
		recs = recs[:DecisionHistoryCap]
	}
	m.decisions[d.Session] = recs
	return nil
}

// RecentDecisions mocks reading back decision records, newest first
func (m *MockStorage) RecentDecisions(ctx context.Context, sessionID string, n int) ([]Decision, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.decisions[sessionID]
	if n < len(recs) {
		recs = recs[:n]
	}
	out := make([]Decision, len(recs))
	copy(out, recs)
	return out, nil
}
