package feed

import (
	"errors"

	"github.com/fredo994/coinbase-feed/internal/connection"
)

// outcome is the result of one worker step.
type outcome int

const (
	outcomeContinue outcome = iota
	outcomeReconnect
	outcomeTerminal
)

func (o outcome) String() string {
	switch o {
	case outcomeContinue:
		return "continue"
	case outcomeReconnect:
		return "reconnect"
	case outcomeTerminal:
		return "terminal"
	}
	return "unknown"
}

// classify maps a transport error to the worker's next move.
func classify(err error) outcome {
	var ioErr *connection.IOError

	switch {
	case err == nil:
		return outcomeContinue
	case errors.Is(err, connection.ErrConnectionClosed):
		return outcomeTerminal
	case errors.Is(err, connection.ErrAlreadyClosed):
		return outcomeReconnect
	case errors.As(err, &ioErr):
		return outcomeReconnect
	}
	return outcomeContinue
}
