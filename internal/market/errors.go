package market

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks transport-level failures reaching the provider.
var ErrUnavailable = errors.New("market data provider unreachable")

// ProviderError is a well-formed rejection reported by the provider itself
// (bad symbol, unsupported range, quota). Not retried.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("provider rejected request (code %d): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("provider rejected request: %s", e.Message)
}

// PayloadError marks a response whose shape or field values could not be
// interpreted.
type PayloadError struct {
	Reason string
}

func (e *PayloadError) Error() string {
	return "unparseable provider response: " + e.Reason
}

func payloadErrorf(format string, args ...any) error {
	return &PayloadError{Reason: fmt.Sprintf(format, args...)}
}
