package stake

import "errors"

var (
	ErrOutOfOrder      = errors.New("stake change records out of order")
	ErrNegativeBalance = errors.New("negative stake balance")
	ErrInvalidWindow   = errors.New("invalid snapshot window")
)
