package service

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrNotInitialized is returned by StartAll before a successful InitAll
var ErrNotInitialized = errors.New("services not initialized")

// Hub owns a set of services and drives them through their lifecycle in
// dependency order
type Hub struct {
	mu       sync.RWMutex
	services map[string]Service
	order    []string // dependency order, set by a successful InitAll
	running  []string // started services, in start order
}

// NewHub creates an empty service hub
func NewHub() *Hub {
	return &Hub{services: make(map[string]Service)}
}

// Register adds svc under its Name
func (h *Hub) Register(svc Service) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	name := svc.Name()
	if _, dup := h.services[name]; dup {
		return fmt.Errorf("service already registered: %s", name)
	}
	h.services[name] = svc
	h.order = nil
	return nil
}

// Get retrieves a service by name
func (h *Hub) Get(name string) (Service, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	svc, ok := h.services[name]
	return svc, ok
}

// MustGet retrieves a service and asserts its type
// Panics if the service is missing or of another type
func MustGet[T any](h *Hub, name string) T {
	svc, ok := h.Get(name)
	if !ok {
		panic(fmt.Sprintf("service not found: %s", name))
	}
	typed, ok := svc.(T)
	if !ok {
		panic(fmt.Sprintf("service %s: type mismatch, got %T", name, svc))
	}
	return typed
}

// InitAll resolves the dependency order and calls Init on every service
// args maps a service name to its Init arguments; missing entries init with none.
// A failing Init stops the services initialized before it, newest first.
func (h *Hub) InitAll(args map[string][]any) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	order, err := h.resolve()
	if err != nil {
		return err
	}

	for i, name := range order {
		if err := h.services[name].Init(args[name]...); err != nil {
			h.stopReverse(order[:i])
			return fmt.Errorf("service %s init failed: %w", name, err)
		}
	}
	h.order = order
	return nil
}

// StartAll starts every service in dependency order
// A failing Start stops the services started before it, newest first.
func (h *Hub) StartAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.order == nil {
		return ErrNotInitialized
	}

	h.running = h.running[:0]
	for _, name := range h.order {
		if err := h.services[name].Start(); err != nil {
			h.stopReverse(h.running)
			h.running = nil
			return fmt.Errorf("service %s start failed: %w", name, err)
		}
		h.running = append(h.running, name)
	}
	return nil
}

// StopAll stops started services in reverse start order
// Every service gets its Stop call; the errors are joined.
func (h *Hub) StopAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	err := h.stopReverse(h.running)
	h.running = nil
	return err
}

// Order returns the dependency order computed by InitAll
func (h *Hub) Order() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.order)
}

// Names returns all registered service names, sorted
func (h *Hub) Names() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sortedNames()
}

func (h *Hub) sortedNames() []string {
	names := make([]string, 0, len(h.services))
	for name := range h.services {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (h *Hub) stopReverse(names []string) error {
	var errs []error
	for i := len(names) - 1; i >= 0; i-- {
		if err := h.services[names[i]].Stop(); err != nil {
			errs = append(errs, fmt.Errorf("service %s stop: %w", names[i], err))
		}
	}
	return errors.Join(errs...)
}

// resolve orders services so each follows its dependencies
// Depth-first from names in sorted order, so the result is deterministic.
// A cycle is reported with its path.
func (h *Hub) resolve() ([]string, error) {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(h.services))
	order := make([]string, 0, len(h.services))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			start := slices.Index(path, name)
			cycle := append(slices.Clone(path[start:]), name)
			return fmt.Errorf("circular service dependency: %s", strings.Join(cycle, " -> "))
		}

		state[name] = visiting
		path = append(path, name)

		deps := slices.Clone(h.services[name].Dependencies())
		slices.Sort(deps)
		for _, dep := range deps {
			if _, ok := h.services[dep]; !ok {
				return fmt.Errorf("service %s depends on unregistered service: %s", name, dep)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		state[name] = done
		order = append(order, name)
		return nil
	}

	for _, name := range h.sortedNames() {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
