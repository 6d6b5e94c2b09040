package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockState_ConfirmPaths(t *testing.T) {
	// Builder first, then lawyer.
	s := LockStateUnlocked.Confirm(ConfirmRoleBuilder)
	assert.Equal(t, LockStateAwaitingLawyer, s)
	s = s.Confirm(ConfirmRoleLawyer)
	assert.Equal(t, LockStateReadyToLock, s)

	// Lawyer first, then builder.
	s = LockStateUnlocked.Confirm(ConfirmRoleLawyer)
	assert.Equal(t, LockStateAwaitingBuilder, s)
	s = s.Confirm(ConfirmRoleBuilder)
	assert.Equal(t, LockStateReadyToLock, s)
}

func TestLockState_ConfirmIsIdempotent(t *testing.T) {
	s := LockStateUnlocked.Confirm(ConfirmRoleBuilder)
	assert.Equal(t, s, s.Confirm(ConfirmRoleBuilder))

	s = s.Confirm(ConfirmRoleLawyer)
	assert.Equal(t, s, s.Confirm(ConfirmRoleBuilder))
	assert.Equal(t, s, s.Confirm(ConfirmRoleLawyer))
}

func TestLockState_LockRequiresBothConfirmations(t *testing.T) {
	for _, s := range []LockState{LockStateUnlocked, LockStateAwaitingBuilder, LockStateAwaitingLawyer} {
		next, ok := s.Lock()
		assert.False(t, ok, "lock from %s should be refused", s)
		assert.Equal(t, s, next)
	}

	next, ok := LockStateReadyToLock.Lock()
	assert.True(t, ok)
	assert.Equal(t, LockStateLocked, next)

	// Locking a locked statement is a no-op success.
	next, ok = LockStateLocked.Lock()
	assert.True(t, ok)
	assert.Equal(t, LockStateLocked, next)
}

func TestLockState_LockedNeverWithoutBothConfirmations(t *testing.T) {
	states := []LockState{
		LockStateUnlocked, LockStateAwaitingBuilder, LockStateAwaitingLawyer,
		LockStateReadyToLock, LockStateLocked,
	}
	roles := []ConfirmRole{ConfirmRoleBuilder, ConfirmRoleLawyer}

	for _, s := range states {
		for _, r := range roles {
			next := s.Confirm(r)
			if next.Locked() && (!next.BuilderConfirmed() || !next.LawyerConfirmed()) {
				t.Fatalf("reached locked without both confirmations from %s via %s", s, r)
			}
		}
		if next, ok := s.Lock(); ok && (!next.BuilderConfirmed() || !next.LawyerConfirmed()) {
			t.Fatalf("lock from %s produced locked without both confirmations", s)
		}
	}
}

func TestLockState_UnlockClearsConfirmations(t *testing.T) {
	s, _ := LockStateReadyToLock.Lock()
	s = s.Unlock()
	assert.Equal(t, LockStateUnlocked, s)
	assert.False(t, s.BuilderConfirmed())
	assert.False(t, s.LawyerConfirmed())

	assert.Equal(t, LockStateUnlocked, LockStateAwaitingLawyer.Unlock())
}

func TestLockState_ConfirmOnLockedIsNoop(t *testing.T) {
	assert.Equal(t, LockStateLocked, LockStateLocked.Confirm(ConfirmRoleBuilder))
	assert.Equal(t, LockStateLocked, LockStateLocked.Confirm(ConfirmRoleLawyer))
}
