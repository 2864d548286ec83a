package game

import "errors"

// Every operation fails with exactly one of these kinds. None are
// retried internally; callers decide whether an error is a usage bug
// (SelfJoin, MalformedCommitmentInput) or an expected race
// (IllegalState, AlreadyResolved, NotYetClaimable).
var (
	ErrInvalidAmount            = errors.New("invalid stake amount")
	ErrInvalidGameID            = errors.New("invalid game id")
	ErrDuplicateGame            = errors.New("game already exists")
	ErrGameNotFound             = errors.New("game not found")
	ErrIllegalState             = errors.New("illegal game state")
	ErrSelfJoin                 = errors.New("first player can't join as second player")
	ErrInvalidReveal            = errors.New("reveal does not match commitment")
	ErrMalformedCommitmentInput = errors.New("malformed commitment input")
	ErrNotYetClaimable          = errors.New("not yet claimable")
	ErrAlreadyResolved          = errors.New("game already resolved")
	ErrUnauthorized             = errors.New("unauthorized")
	ErrInsufficientBalance      = errors.New("amount exceeds balance")
)
