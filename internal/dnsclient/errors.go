package dnsclient

import "errors"

// errTruncated marks responses cut short by the transport buffer.
var errTruncated = errors.New("response truncated")

// ProtocolError reports a failed DNS exchange: a timeout, a connection
// failure, or a malformed or truncated response. Callers treat it as
// transient and retry or record an empty answer.
type ProtocolError struct {
	Server string
	Err    error
}

func (e *ProtocolError) Error() string {
	return "dns exchange with " + e.Server + " failed: " + e.Err.Error()
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// IsProtocolError reports whether err is or wraps a *ProtocolError.
func IsProtocolError(err error) bool {
	var protoErr *ProtocolError
	return errors.As(err, &protoErr)
}
