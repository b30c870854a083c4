package engine

import "errors"

var (
	ErrInvalidEngineConfig = errors.New("invalid engine configuration")
	ErrNodeNotFound        = errors.New("node not found")
	ErrNotInputNode        = errors.New("node does not accept input messages")
	ErrAlreadyStarted      = errors.New("engine already started")
	ErrNotStarted          = errors.New("engine not started")
	ErrClosed              = errors.New("engine closed")
)
