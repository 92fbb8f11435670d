// Package registry maps files to applicable checking agents and owns the
// lazy agent cache. Agents are declared in a static factory table; there is
// no runtime discovery of plugin directories.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fyrsmithlabs/enforcerd/internal/agent"
)

// ErrAgentNotFound indicates a request for an unregistered agent name.
var ErrAgentNotFound = errors.New("agent not found")

// Factory constructs one agent instance. Called at most once per name for
// the registry's lifetime unless the cache is cleared.
type Factory func(ctx context.Context) (agent.Agent, error)

// PerformanceMetrics is a snapshot of cache behavior since the last clear.
type PerformanceMetrics struct {
	CacheHits          int64         `json:"cache_hits"`
	CacheMisses        int64         `json:"cache_misses"`
	TotalDiscoveryTime time.Duration `json:"total_discovery_time"`
	AvgDiscoveryTime   time.Duration `json:"avg_discovery_time"`
}

// Registry owns the agent catalog, the instance cache, and load metrics.
// All methods are safe for concurrent use.
type Registry struct {
	logger *zap.Logger
	otel   *loadMetrics

	mu        sync.RWMutex
	order     []string
	metadata  map[string]agent.Metadata
	factories map[string]Factory
	cache     map[string]agent.Agent

	hits      int64
	misses    int64
	totalLoad time.Duration

	group singleflight.Group
}

// New creates an empty registry. Register agents before use, or start from
// Default.
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		logger:    logger,
		otel:      newLoadMetrics(logger),
		metadata:  make(map[string]agent.Metadata),
		factories: make(map[string]Factory),
		cache:     make(map[string]agent.Agent),
	}
}

// Register adds an agent to the catalog. Registration order is preserved in
// Discover and Applicable results. Duplicate names are rejected.
func (r *Registry) Register(md agent.Metadata, factory Factory) error {
	if md.Name == "" {
		return fmt.Errorf("agent metadata requires a name")
	}
	if factory == nil {
		return fmt.Errorf("agent %q requires a factory", md.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[md.Name]; exists {
		return fmt.Errorf("agent %q already registered", md.Name)
	}
	r.order = append(r.order, md.Name)
	r.metadata[md.Name] = md
	r.factories[md.Name] = factory
	return nil
}

// Discover returns the full agent catalog in registration order.
func (r *Registry) Discover() []agent.Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]agent.Metadata, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.metadata[name])
	}
	return out
}

// Applicable returns the names of agents that handle the file's extension,
// in registration order. Pure and total: an unrecognized extension yields an
// empty set, never an error.
func (r *Registry) Applicable(filePath string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if r.metadata[name].Supports(filePath) {
			out = append(out, name)
		}
	}
	return out
}

// Get returns the cached agent instance for name, constructing it on first
// request. Concurrent first requests share a single construction; the cache
// is written only after the factory fully succeeds, so a cancelled load
// never leaves a partial entry. Repeated calls return the identical
// instance.
func (r *Registry) Get(ctx context.Context, name string) (agent.Agent, error) {
	r.mu.RLock()
	cached, ok := r.cache[name]
	_, known := r.factories[name]
	r.mu.RUnlock()

	if ok {
		r.recordHit(ctx)
		return cached, nil
	}
	if !known {
		return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, name)
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		// A racing caller may have completed the load already.
		r.mu.RLock()
		if a, ok := r.cache[name]; ok {
			r.mu.RUnlock()
			return a, nil
		}
		factory := r.factories[name]
		r.mu.RUnlock()

		start := time.Now()
		a, err := factory(ctx)
		elapsed := time.Since(start)
		if err != nil {
			r.otel.recordLoad(ctx, name, elapsed, err)
			return nil, fmt.Errorf("failed to load agent %q: %w", name, err)
		}

		r.mu.Lock()
		r.cache[name] = a
		r.misses++
		r.totalLoad += elapsed
		r.mu.Unlock()

		r.otel.recordLoad(ctx, name, elapsed, nil)
		r.logger.Debug("agent loaded",
			zap.String("agent", name),
			zap.Duration("duration", elapsed))
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(agent.Agent), nil
}

// LoadForFile resolves and hydrates every agent applicable to the file.
func (r *Registry) LoadForFile(ctx context.Context, filePath string) ([]agent.Agent, error) {
	names := r.Applicable(filePath)
	agents := make([]agent.Agent, 0, len(names))
	for _, name := range names {
		a, err := r.Get(ctx, name)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, nil
}

// ClearCache drops all cached instances and resets performance metrics.
// Used for test isolation and explicit invalidation.
func (r *Registry) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]agent.Agent)
	r.hits = 0
	r.misses = 0
	r.totalLoad = 0
}

// CachedAgents returns the number of hydrated instances.
func (r *Registry) CachedAgents() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// Metrics returns a snapshot of cache performance since the last clear.
func (r *Registry) Metrics() PerformanceMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := PerformanceMetrics{
		CacheHits:          r.hits,
		CacheMisses:        r.misses,
		TotalDiscoveryTime: r.totalLoad,
	}
	if r.misses > 0 {
		m.AvgDiscoveryTime = r.totalLoad / time.Duration(r.misses)
	}
	return m
}

func (r *Registry) recordHit(ctx context.Context) {
	r.mu.Lock()
	r.hits++
	r.mu.Unlock()
	r.otel.recordHit(ctx)
}
