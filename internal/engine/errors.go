package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/dobble/internal/session"
)

// ErrClosed is returned by actions issued after the engine stopped.
var ErrClosed = errors.New("engine closed")

// ActionErrorCode categorizes action errors.
type ActionErrorCode string

const (
	// ErrCodeNotPermitted indicates the gate refused the action locally;
	// no request was sent.
	ErrCodeNotPermitted ActionErrorCode = "NOT_PERMITTED"

	// ErrCodeGatewayFailed indicates the request was sent and failed.
	ErrCodeGatewayFailed ActionErrorCode = "GATEWAY_FAILED"
)

// ActionError reports why a client-initiated action did not succeed.
//
// In both cases the session state is as it was before the action: a refused
// action never reached the reducer's gate bookkeeping, and a failed one was
// rolled back with session.ActionFailed.
type ActionError struct {
	Code    ActionErrorCode
	Action  session.ActionKind
	Message string

	// Err is the underlying gate or gateway error.
	Err error
}

// Error implements the error interface.
func (e *ActionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Code, e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Code, e.Action, e.Message)
}

// Unwrap returns the underlying error.
func (e *ActionError) Unwrap() error {
	return e.Err
}

// IsNotPermitted reports whether err is a locally refused action.
// Uses errors.As to handle wrapped errors.
func IsNotPermitted(err error) bool {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeNotPermitted
	}
	return false
}

// IsGatewayError reports whether err is a failed gateway request.
// Uses errors.As to handle wrapped errors.
func IsGatewayError(err error) bool {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Code == ErrCodeGatewayFailed
	}
	return false
}

func newNotPermitted(action session.ActionKind, err error) *ActionError {
	return &ActionError{
		Code:    ErrCodeNotPermitted,
		Action:  action,
		Message: "action not permitted in current state",
		Err:     err,
	}
}

func newGatewayFailed(action session.ActionKind, err error) *ActionError {
	return &ActionError{
		Code:    ErrCodeGatewayFailed,
		Action:  action,
		Message: "request failed",
		Err:     err,
	}
}
