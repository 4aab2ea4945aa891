package state_validation

import "errors"

// Vote and round errors. All of them leave the round untouched.
var (
	ErrDuplicateVote       = errors.New("duplicate vote")
	ErrOutOfRangeValidator = errors.New("validator index out of range")
	ErrSignatureMismatch   = errors.New("signature mismatch")
	ErrStaleRound          = errors.New("vote for a stale round")
	ErrNotAValidator       = errors.New("local signer is not a committee member")
	ErrRootNotReady        = errors.New("local state root not ready")
	ErrNotInitialized      = errors.New("validation round not initialized")
)

var (
	ErrEmptyCommittee     = errors.New("empty committee")
	ErrDuplicateValidator = errors.New("duplicate validator key")
	ErrNoCommittee        = errors.New("no committee for height")
	ErrWitnessCommittee   = errors.New("witness committee does not match")
)
