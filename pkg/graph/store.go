package graph

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var log = logrus.WithField("module", "graph")

// ErrGraphUnavailable indicates the road network source could not be fetched.
// The failed build is not cached; the next request retries.
var ErrGraphUnavailable = errors.New("road network unavailable")

// BuildFunc fetches and builds the weighted graph for a city. It runs at most
// once per city at a time; the store caches its result on success.
type BuildFunc func(ctx context.Context, cityKey string) (*Graph, error)

// Store owns the per-city graph cache. The first request for a city triggers
// the build; concurrent first-callers share that single build and its result.
type Store struct {
	build   BuildFunc
	timeout time.Duration

	graphs *xsync.MapOf[string, *Graph]
	group  singleflight.Group
	builds atomic.Int64
}

// NewStore creates a Store. timeout bounds each build attempt; the network
// fetch is the slowest operation in the service, order tens of seconds.
func NewStore(build BuildFunc, timeout time.Duration) *Store {
	return &Store{
		build:   build,
		timeout: timeout,
		graphs:  xsync.NewMapOf[string, *Graph](),
	}
}

// Get returns the graph for the city, building it on first use. Safe for
// concurrent callers; exactly one build runs per city and all waiters share
// the outcome. Failed builds are not cached.
func (s *Store) Get(ctx context.Context, cityKey string) (*Graph, error) {
	if g, ok := s.graphs.Load(cityKey); ok {
		return g, nil
	}

	ch := s.group.DoChan(cityKey, func() (any, error) {
		// Re-check: a previous flight may have populated the cache between
		// our Load miss and joining this flight.
		if g, ok := s.graphs.Load(cityKey); ok {
			return g, nil
		}

		// The build is detached from any single caller's context so that one
		// impatient request cannot abort the shared build for everyone else.
		buildCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		log.Infof("building road network for %q", cityKey)

		g, err := s.build(buildCtx, cityKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrGraphUnavailable, err)
		}

		s.builds.Add(1)
		s.graphs.Store(cityKey, g)
		log.Infof("road network for %q ready in %s: %d nodes, %d edges, %d components",
			cityKey, time.Since(start).Round(time.Millisecond),
			g.NumNodes, g.NumEdges, ComponentCount(g))
		return g, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Graph), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// BuildCount reports how many builds have completed successfully.
func (s *Store) BuildCount() int64 {
	return s.builds.Load()
}
