package domain

import (
	"errors"
	"fmt"
)

// Error kinds exchanged in the "error" field of service responses.
const (
	KindLoginIncorrect = "login incorrect"
	KindTokenMissing   = "token not specified"
	KindTokenInvalid   = "invalid token"
	KindTokenExpired   = "token expired"
	KindMissingFields  = "all fields must be specified"
	KindInvalidEmail   = "invalid email"
	KindUserExists     = "user already exists"
	KindUserNotFound   = "user not found"
	KindForbidden      = "forbidden"
	KindInvalidLevel   = "invalid level"
	KindNoSuchServer   = "no such server"
	KindInvalidPort    = "invalid port"
)

var ErrLoginIncorrect = errors.New(KindLoginIncorrect)
var ErrTokenMissing = errors.New(KindTokenMissing)
var ErrTokenInvalid = errors.New(KindTokenInvalid)
var ErrTokenExpired = errors.New(KindTokenExpired)
var ErrMissingFields = errors.New(KindMissingFields)
var ErrInvalidEmail = errors.New(KindInvalidEmail)
var ErrUserExists = errors.New(KindUserExists)
var ErrUserNotFound = errors.New(KindUserNotFound)
var ErrForbidden = errors.New(KindForbidden)
var ErrInvalidLevel = errors.New(KindInvalidLevel)
var ErrNoSuchServer = errors.New(KindNoSuchServer)
var ErrInvalidPort = errors.New(KindInvalidPort)

// ValidationError reports a required form field that was left empty. It is
// raised before any network I/O.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// RemoteError carries the error kind returned by the master server.
type RemoteError struct {
	Kind string
}

func (e *RemoteError) Error() string {
	return "remote: " + e.Kind
}

// IsLoginIncorrect reports whether err is a credential rejection.
func IsLoginIncorrect(err error) bool {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind == KindLoginIncorrect
	}
	return errors.Is(err, ErrLoginIncorrect)
}
