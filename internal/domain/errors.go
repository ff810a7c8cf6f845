package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrTransport           = errors.New("transport failure")
	ErrMalformedEvent      = errors.New("malformed event")
	ErrUnknownPhase        = fmt.Errorf("%w: unknown phase", ErrMalformedEvent)
	ErrChannelClosed       = errors.New("channel closed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrWSDisconnect        = errors.New("websocket disconnected")
	ErrLockHeld            = errors.New("lock already held")
)
