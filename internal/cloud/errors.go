package cloud

import (
	"errors"
	"fmt"
)

// Sentinel errors for cloud API failures.
var (
	// ErrReauthRequired indicates the access token was rejected (401/403)
	// and the account must log in again.
	ErrReauthRequired = errors.New("access credentials expired, login required")

	// ErrAccountNotFound indicates the account does not exist (code 1003).
	ErrAccountNotFound = errors.New("account does not exist")

	// ErrBadCredentials indicates a wrong account or password
	// (codes 10001, 10014).
	ErrBadCredentials = errors.New("account or password incorrect")

	// ErrUnreachable indicates the cloud could not be reached (code 500 or
	// transport failure).
	ErrUnreachable = errors.New("cloud unreachable")
)

// APIError is a cloud response with a non-success code not covered by a
// sentinel.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cloud api error %d: %s", e.Code, e.Msg)
}

// Login-specific and shared response codes.
const (
	codeOK              = 0
	codeNoConnection    = 500
	codeAccountNotFound = 1003
	codeBadPassword     = 10001
	codeBadAccount      = 10014
)

// checkResponse maps the common response envelope codes to errors.
func checkResponse(code int, msg string) error {
	switch code {
	case codeOK:
		return nil
	case 401, 403:
		return fmt.Errorf("%w: %s", ErrReauthRequired, msg)
	default:
		return &APIError{Code: code, Msg: msg}
	}
}
