package multiplexer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/errors"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/logging"
	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/system"
)

// DefaultCacheTTL is how long a session listing stays fresh.
const DefaultCacheTTL = 2 * time.Second

// ListCache is a SessionCache backed by `tmux list-sessions`.
type ListCache struct {
	exec system.CommandExecutor
	ttl  time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	names   map[string]struct{}
	fetched time.Time
	valid   bool

	group singleflight.Group
}

// NewListCache returns an empty cache; the first Lookup misses.
func NewListCache(exec system.CommandExecutor) *ListCache {
	return &ListCache{
		exec: exec,
		ttl:  DefaultCacheTTL,
		now:  time.Now,
	}
}

// SetTTL changes the freshness window.
func (c *ListCache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}

func (c *ListCache) freshLocked() bool {
	return c.valid && c.now().Sub(c.fetched) <= c.ttl
}

// Lookup implements SessionCache.
func (c *ListCache) Lookup(name string) (bool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.freshLocked() {
		return false, false
	}
	_, exists := c.names[name]
	return exists, true
}

// Refresh implements SessionCache. Concurrent callers share one tmux call.
func (c *ListCache) Refresh(ctx context.Context) {
	_, _, _ = c.group.Do("list-sessions", func() (interface{}, error) {
		names, err := listSessions(ctx, c.exec)

		c.mu.Lock()
		defer c.mu.Unlock()
		if err != nil {
			logging.Debug("tmux session listing failed", "error", err)
			c.names, c.valid = nil, false
			return nil, err
		}
		c.names = make(map[string]struct{}, len(names))
		for _, n := range names {
			c.names[n] = struct{}{}
		}
		c.fetched, c.valid = c.now(), true
		return nil, nil
	})
}

// ListSessions returns the sorted names of all tmux sessions, refreshing
// the cache first when it is stale.
func (c *ListCache) ListSessions(ctx context.Context) []string {
	c.mu.RLock()
	fresh := c.freshLocked()
	c.mu.RUnlock()
	if !fresh {
		c.Refresh(ctx)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.names))
	for n := range c.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// noServerMarkers identify the list-sessions failures that just mean no
// tmux server is running, which is an empty listing rather than an error.
var noServerMarkers = []string{"no server running", "error connecting to"}

func listSessions(ctx context.Context, exec system.CommandExecutor) ([]string, error) {
	result, err := exec.Run(ctx, tmuxBinary, "list-sessions", "-F", "#{session_name}")
	if err != nil {
		return nil, err
	}
	if !result.Success() {
		stderr := string(result.Stderr)
		for _, marker := range noServerMarkers {
			if strings.Contains(stderr, marker) {
				return nil, nil
			}
		}
		return nil, errors.CommandFailed("tmux list-sessions", strings.TrimSpace(stderr))
	}

	var names []string
	for _, line := range strings.Split(string(result.Stdout), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

var _ SessionCache = (*ListCache)(nil)
