package ecm

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Sentinel errors mapped from the server's wire codes. Match with
// errors.Is.
var (
	ErrInvalidInput = errors.New("ecm: invalid input")
	ErrNotFound     = errors.New("ecm: not found")
	ErrRateLimited  = errors.New("ecm: rate limited")
	ErrServer       = errors.New("ecm: server error")
)

type wireError struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// decodeError inspects a reply for the error envelope and converts it into
// a typed error. It returns nil when the reply is not an error.
func decodeError(data []byte) error {
	var we wireError
	if err := json.Unmarshal(data, &we); err != nil || we.Code == "" {
		return nil
	}

	var sentinel error
	switch we.Code {
	case "invalid_input":
		sentinel = ErrInvalidInput
	case "not_found":
		sentinel = ErrNotFound
	case "rate_limited":
		sentinel = ErrRateLimited
	default:
		sentinel = ErrServer
	}
	return fmt.Errorf("%w: %s", sentinel, we.Error)
}
