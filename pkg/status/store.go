// Package status keeps the latest status reported by every node.
package status

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dukex/weatherflow/pkg/models"
)

var ErrNotFound = errors.New("no status reported for node")

// Store retains the most recent status per node.
type Store interface {
	Set(ctx context.Context, status models.NodeStatus) error
	Get(ctx context.Context, nodeID string) (models.NodeStatus, error)
	List(ctx context.Context) ([]models.NodeStatus, error)
	Close() error
}

type MemoryStore struct {
	mu       sync.RWMutex
	statuses map[string]models.NodeStatus
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{statuses: make(map[string]models.NodeStatus)}
}

func (s *MemoryStore) Set(_ context.Context, status models.NodeStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.statuses[status.NodeID] = status

	return nil
}

func (s *MemoryStore) Get(_ context.Context, nodeID string) (models.NodeStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	status, ok := s.statuses[nodeID]
	if !ok {
		return models.NodeStatus{}, ErrNotFound
	}

	return status, nil
}

// List returns every stored status ordered by node ID.
func (s *MemoryStore) List(_ context.Context) ([]models.NodeStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statuses := make([]models.NodeStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		statuses = append(statuses, status)
	}

	sortByNode(statuses)

	return statuses, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func sortByNode(statuses []models.NodeStatus) {
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].NodeID < statuses[j].NodeID
	})
}
