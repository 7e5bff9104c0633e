// Package session tracks one cart engine per open terminal session. Carts
// are ephemeral in-process state: they exist from Open to Close (or
// checkout) and are never persisted.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/currency"

	"github.com/salespoint/pos/internal/cart"
)

var ErrSessionNotFound = errors.New("cart session not found")

type Registry struct {
	mu      sync.RWMutex
	engines map[uuid.UUID]*cart.Engine
	unit    currency.Unit
}

func NewRegistry(unit currency.Unit) *Registry {
	return &Registry{
		engines: make(map[uuid.UUID]*cart.Engine),
		unit:    unit,
	}
}

// Open creates a fresh cart and returns its session ID.
func (r *Registry) Open() (uuid.UUID, *cart.Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	engine := cart.New(r.unit)
	r.engines[id] = engine
	return id, engine
}

func (r *Registry) Get(id uuid.UUID) (*cart.Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	engine, ok := r.engines[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return engine, nil
}

// Close discards the session. Closing an unknown session is a no-op.
func (r *Registry) Close(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.engines, id)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.engines)
}
