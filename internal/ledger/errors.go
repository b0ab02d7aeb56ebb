package ledger

import "errors"

var (
	ErrUnauthorized        = errors.New("caller is not the operator")
	ErrRootAlreadySet      = errors.New("root already set")
	ErrInvalidRoot         = errors.New("invalid root")
	ErrPeriodNotSeeded     = errors.New("period not seeded")
	ErrAlreadyClaimed      = errors.New("already claimed")
	ErrInvalidProof        = errors.New("invalid proof")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrAllocationExceeded  = errors.New("claim exceeds period allocation")
	ErrEmptyBatch          = errors.New("empty claim batch")
	ErrInvalidRange        = errors.New("invalid period range")
	ErrInsufficientBalance = errors.New("insufficient balance")
)
