// internal/component/registry.go
//
// Component registry (cycle-free).
//
// Each concrete component lives under components/<name> and calls
// component.Register() in an init() function.  cmd/web imports the
// components for their side effect, then calls Mount, which runs every
// Init(Deps) and lets each component add its routes to the shared router.
// Components are visited in name order so startup logs and route
// conflicts are deterministic.

package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Component contract.
//
// Init receives the process-wide dependencies once, before Routes.
// Routes registers page and API endpoints on r, e.g:
//
//	r.Get("/access/{token}", c.handleLink)
//	r.Route("/api/sermons", func(api chi.Router) { ... })
type Component interface {
	Name() string
	Init(Deps) error
	Routes(r chi.Router)
}

var (
	mu       sync.RWMutex
	registry = map[string]Component{}
)

// Register is invoked from component init() functions.  Registering the
// same name twice replaces the earlier entry.
func Register(c Component) {
	mu.Lock()
	registry[c.Name()] = c
	mu.Unlock()
}

// All returns every registered component sorted by name.
func All() []Component {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Component, 0, len(registry))
	for _, c := range registry {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Mount initialises every registered component with d and adds its routes
// to r.  The first Init error aborts startup.
func Mount(r chi.Router, d Deps) error {
	for _, c := range All() {
		if err := c.Init(d); err != nil {
			return fmt.Errorf("component %s: %w", c.Name(), err)
		}
		r.Group(c.Routes)
		d.logger().Info("component mounted", zap.String("component", c.Name()))
	}
	return nil
}
