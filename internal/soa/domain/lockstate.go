package domain

// LockState is the confirmation/lock machine for a statement. A statement
// can only reach Locked through both party confirmations, which makes
// locked-without-both-confirmations unrepresentable.
//
//	unlocked -> awaiting_lawyer    (builder confirms first)
//	unlocked -> awaiting_builder   (lawyer confirms first)
//	awaiting_* -> ready_to_lock    (second confirmation lands)
//	ready_to_lock -> locked        (explicit lock request)
//	any -> unlocked                (privileged unlock, clears confirmations)
type LockState string

const (
	LockStateUnlocked        LockState = "unlocked"
	LockStateAwaitingBuilder LockState = "awaiting_builder"
	LockStateAwaitingLawyer  LockState = "awaiting_lawyer"
	LockStateReadyToLock     LockState = "ready_to_lock"
	LockStateLocked          LockState = "locked"
)

// ConfirmRole identifies which party is confirming a statement.
type ConfirmRole string

const (
	ConfirmRoleBuilder ConfirmRole = "builder"
	ConfirmRoleLawyer  ConfirmRole = "lawyer"
)

// Locked reports whether the statement is immutable.
func (s LockState) Locked() bool { return s == LockStateLocked }

// BuilderConfirmed reports whether the builder confirmation is on record.
func (s LockState) BuilderConfirmed() bool {
	return s == LockStateAwaitingLawyer || s == LockStateReadyToLock || s == LockStateLocked
}

// LawyerConfirmed reports whether the lawyer confirmation is on record.
func (s LockState) LawyerConfirmed() bool {
	return s == LockStateAwaitingBuilder || s == LockStateReadyToLock || s == LockStateLocked
}

// Confirm records one party's confirmation. Confirming twice is a no-op;
// confirming a locked statement never changes state.
func (s LockState) Confirm(role ConfirmRole) LockState {
	if s == LockStateLocked {
		return s
	}
	switch role {
	case ConfirmRoleBuilder:
		switch s {
		case LockStateUnlocked:
			return LockStateAwaitingLawyer
		case LockStateAwaitingBuilder:
			return LockStateReadyToLock
		}
	case ConfirmRoleLawyer:
		switch s {
		case LockStateUnlocked:
			return LockStateAwaitingBuilder
		case LockStateAwaitingLawyer:
			return LockStateReadyToLock
		}
	}
	return s
}

// Lock attempts the transition to Locked. It succeeds only when both
// confirmations are on record; otherwise the state is unchanged and the
// second return is false.
func (s LockState) Lock() (LockState, bool) {
	if s == LockStateLocked {
		return s, true
	}
	if s != LockStateReadyToLock {
		return s, false
	}
	return LockStateLocked, true
}

// Unlock always resets to Unlocked, dropping both confirmations.
func (s LockState) Unlock() LockState { return LockStateUnlocked }
