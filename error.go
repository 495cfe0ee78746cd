package lobby

import "errors"

var (
	ErrInvalidRequest = errors.New("the order request is invalid")
	ErrNotFound       = errors.New("not found")
	ErrTimeout        = errors.New("timeout")
	ErrShutdown       = errors.New("order book is shutting down")
)
