package service

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantLockerSerializesSameTenant(t *testing.T) {
	locker := NewTenantLocker()
	tenantID := uuid.New()

	unlock, ok := locker.TryLock(tenantID)
	require.True(t, ok)

	_, ok = locker.TryLock(tenantID)
	assert.False(t, ok)

	unlock()
	unlock2, ok := locker.TryLock(tenantID)
	assert.True(t, ok)
	unlock2()
}

func TestTenantLockerAllowsDifferentTenants(t *testing.T) {
	locker := NewTenantLocker()

	unlockA, ok := locker.TryLock(uuid.New())
	require.True(t, ok)
	defer unlockA()

	unlockB, ok := locker.TryLock(uuid.New())
	require.True(t, ok)
	defer unlockB()
}

func TestTenantLockerBlockingLock(t *testing.T) {
	locker := NewTenantLocker()
	tenantID := uuid.New()

	unlock := locker.Lock(tenantID)

	var wg sync.WaitGroup
	acquired := false
	wg.Add(1)
	go func() {
		defer wg.Done()
		inner := locker.Lock(tenantID)
		acquired = true
		inner()
	}()

	unlock()
	wg.Wait()
	assert.True(t, acquired)
}
