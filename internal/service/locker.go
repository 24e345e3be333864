package service

import (
	"sync"

	"github.com/google/uuid"
)

// TenantLocker serializes imports and pushes per tenant. Two concurrent runs
// against the same tenant would race on the cache and the remote API; runs
// against different tenants proceed in parallel.
type TenantLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewTenantLocker() *TenantLocker {
	return &TenantLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// TryLock acquires the tenant's lock without blocking. Returns an unlock
// func, or false when another operation holds the lock.
func (l *TenantLocker) TryLock(tenantID uuid.UUID) (func(), bool) {
	l.mu.Lock()
	lock, ok := l.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[tenantID] = lock
	}
	l.mu.Unlock()

	if !lock.TryLock() {
		return nil, false
	}
	return lock.Unlock, true
}

// Lock blocks until the tenant's lock is available.
func (l *TenantLocker) Lock(tenantID uuid.UUID) func() {
	l.mu.Lock()
	lock, ok := l.locks[tenantID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[tenantID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
