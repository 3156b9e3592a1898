// Package store holds the authoritative echo table. All mutation paths go
// through one exclusive lock so the capacity invariant is never observed
// violated by a concurrent reader.
package store

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/gftdcojp/echo-memory/internal/config"
	"github.com/gftdcojp/echo-memory/internal/layer"
	"github.com/gftdcojp/echo-memory/internal/types"
)

// Store is the in-memory echo table with layer and author indexes.
type Store struct {
	mu      sync.RWMutex
	weights config.WeightConfig
	policy  *layer.PolicyEngine
	logger  *zap.Logger

	echoes   map[string]*types.Echo
	layers   map[types.Layer]map[string]struct{}
	byAuthor map[string]map[string]struct{}

	entropy *ulid.MonotonicEntropy
}

// AddRequest carries the caller-supplied fields of a new echo.
type AddRequest struct {
	Content  string
	Author   string
	Type     types.EchoType
	Weight   float64
	Metadata map[string]string
}

// New creates an empty store.
func New(policy *layer.PolicyEngine, weights config.WeightConfig, logger *zap.Logger) *Store {
	s := &Store{
		weights:  weights,
		policy:   policy,
		logger:   logger,
		echoes:   make(map[string]*types.Echo),
		layers:   make(map[types.Layer]map[string]struct{}),
		byAuthor: make(map[string]map[string]struct{}),
		entropy:  ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
	for _, l := range types.Layers {
		s.layers[l] = make(map[string]struct{})
	}
	return s
}

// Add validates and stores a new echo in the immediate layer. If the
// immediate layer overflows its capacity, a compaction pass runs before Add
// returns, so the capacity invariant holds on every exit path.
func (s *Store) Add(req AddRequest) (*types.Echo, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown echo type %q", types.ErrInvalidInput, req.Type)
	}
	if req.Weight < 0 || math.IsNaN(req.Weight) || math.IsInf(req.Weight, 0) {
		return nil, fmt.Errorf("%w: initial weight must be a finite value >= 0", types.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	echo := &types.Echo{
		ID:        ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Content:   req.Content,
		Author:    req.Author,
		Type:      req.Type,
		Weight:    math.Min(req.Weight, s.weights.Max),
		Resonance: 0,
		CreatedAt: now,
		Layer:     types.LayerImmediate,
		Metadata:  cloneMetadata(req.Metadata),
	}

	s.echoes[echo.ID] = echo
	s.layers[types.LayerImmediate][echo.ID] = struct{}{}
	s.indexAuthor(echo.Author, echo.ID)

	if limit := s.policy.CapacityFor(types.LayerImmediate); limit > 0 && len(s.layers[types.LayerImmediate]) > limit {
		evicted := s.compactLocked(types.LayerImmediate)
		s.logger.Debug("immediate layer compacted after add",
			zap.Int("evicted", len(evicted)))
	}

	s.logger.Debug("echo added",
		zap.String("id", echo.ID),
		zap.String("type", string(echo.Type)),
		zap.Float64("weight", echo.Weight),
	)

	return echo.Clone(), nil
}

// Get returns a copy of the echo, without touching resonance.
func (s *Store) Get(id string) (*types.Echo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	echo, ok := s.echoes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}
	return echo.Clone(), nil
}

// Touch atomically bumps resonance by one and scales weight by the
// configured retrieval factor, capped at the maximum. This is the only path
// that changes weight and resonance together.
func (s *Store) Touch(id string) (*types.Echo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	echo, ok := s.echoes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrNotFound, id)
	}

	echo.Resonance++
	echo.Weight = math.Min(echo.Weight*s.weights.RetrievalFactor, s.weights.Max)

	return echo.Clone(), nil
}

// Delete removes an echo. It is idempotent: deleting an absent id is a no-op.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Len returns the total echo count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.echoes)
}

// Sweep relabels every echo whose age-derived layer differs from its stored
// layer, then reports how many echoes each layer gained. Only gaining layers
// can overflow, so callers compact exactly those.
//
// Re-running a sweep with no elapsed time is a no-op; the pass converges.
func (s *Store) Sweep(now time.Time) map[types.Layer]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	gained := make(map[types.Layer]int)
	for id, echo := range s.echoes {
		target := s.policy.LayerAt(echo.CreatedAt, now)
		if target == echo.Layer {
			continue
		}
		// Age-monotonic drift only; never regress to a hotter layer.
		if target < echo.Layer {
			continue
		}
		delete(s.layers[echo.Layer], id)
		s.layers[target][id] = struct{}{}
		echo.Layer = target
		gained[target]++
	}
	return gained
}

// Compact enforces the capacity of one layer, returning copies of the
// evicted echoes. Layers with capacity 0 (eternal by default) are exempt.
func (s *Store) Compact(l types.Layer) []*types.Echo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compactLocked(l)
}

// OverCapacity returns the layers currently violating their capacity. Under
// correct compaction this is always empty; the lifecycle manager uses it as
// a defensive check and self-heals with a forced compaction pass.
func (s *Store) OverCapacity() []types.Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var over []types.Layer
	for _, l := range types.Layers {
		if limit := s.policy.CapacityFor(l); limit > 0 && len(s.layers[l]) > limit {
			over = append(over, l)
		}
	}
	return over
}

func (s *Store) compactLocked(l types.Layer) []*types.Echo {
	capacity := s.policy.CapacityFor(l)
	if capacity <= 0 {
		return nil
	}

	members := make([]*types.Echo, 0, len(s.layers[l]))
	for id := range s.layers[l] {
		members = append(members, s.echoes[id])
	}

	var evicted []*types.Echo
	for _, id := range layer.EvictionCandidates(members, capacity) {
		if echo, ok := s.echoes[id]; ok {
			evicted = append(evicted, echo.Clone())
		}
		s.removeLocked(id)
	}
	return evicted
}

func (s *Store) removeLocked(id string) {
	echo, ok := s.echoes[id]
	if !ok {
		return
	}
	delete(s.echoes, id)
	delete(s.layers[echo.Layer], id)
	if ids, ok := s.byAuthor[echo.Author]; ok {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.byAuthor, echo.Author)
		}
	}
}

func (s *Store) indexAuthor(author, id string) {
	if author == "" {
		return
	}
	ids, ok := s.byAuthor[author]
	if !ok {
		ids = make(map[string]struct{})
		s.byAuthor[author] = ids
	}
	ids[id] = struct{}{}
}

func cloneMetadata(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
