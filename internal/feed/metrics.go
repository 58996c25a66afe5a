package feed

// Metrics receives worker connection statistics.
type Metrics interface {
	// ConnectAttempt records one transport connect attempt.
	ConnectAttempt(success bool)

	// Reconnect records a reconnect cycle triggered by a close frame or
	// transport failure.
	Reconnect()

	// Frame records a received frame by kind ("text", "close", ...).
	Frame(kind string)

	// DecodeFailure records a text frame that could not be decoded.
	DecodeFailure()
}

type nopMetrics struct{}

func (nopMetrics) ConnectAttempt(bool) {}
func (nopMetrics) Reconnect()          {}
func (nopMetrics) Frame(string)        {}
func (nopMetrics) DecodeFailure()      {}
