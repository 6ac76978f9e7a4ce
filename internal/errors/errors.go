package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure the user can see.
type Kind int

const (
	// KindUnknown is any error that did not come through the API wrapper or a validator.
	KindUnknown Kind = iota
	// KindAuthExpired is any 401 from the backend or a locally expired token.
	KindAuthExpired
	// KindValidation is a client-side field check failure; no request was made.
	KindValidation
	// KindRejected is a non-401 error response from the backend.
	KindRejected
	// KindNetwork means the request could not complete.
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuthExpired:
		return "auth_expired"
	case KindValidation:
		return "validation_failed"
	case KindRejected:
		return "server_rejected"
	case KindNetwork:
		return "network_failure"
	default:
		return "unknown"
	}
}

var (
	// ErrSessionMissing is returned when a request has no usable session.
	ErrSessionMissing = errors.New("session missing")
	// ErrInvalidRole is returned when the backend reports a role the client does not know.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNotFound is returned by session stores for unknown session IDs.
	ErrNotFound = errors.New("not found")
)

// Error is the single failure value returned by the API wrapper and the field validators.
type Error struct {
	Kind    Kind
	Status  int    // backend HTTP status, 0 when no response was received
	Action  string // e.g. "load cars"
	Message string // human-readable, safe to display
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// AuthExpired builds an AuthExpired error.
func AuthExpired(action string) *Error {
	return &Error{
		Kind:    KindAuthExpired,
		Status:  http.StatusUnauthorized,
		Action:  action,
		Message: "your session has expired, please log in again",
	}
}

// Validation builds a ValidationFailed error carrying the message to show.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Rejected builds a ServerRejected error. An empty message falls back to "failed to <action>".
func Rejected(status int, action, message string) *Error {
	if message == "" {
		message = failedTo(action)
	}
	return &Error{Kind: KindRejected, Status: status, Action: action, Message: message}
}

// Network builds a NetworkFailure error.
func Network(action string, err error) *Error {
	return &Error{Kind: KindNetwork, Action: action, Message: failedTo(action), Err: err}
}

func failedTo(action string) string {
	if action == "" {
		return "request failed"
	}
	return "failed to " + action
}

// KindOf reports the kind of err, KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// StatusOf returns the backend status carried by err, 0 when there is none.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

// IsAuthExpired reports whether err requires clearing the session.
func IsAuthExpired(err error) bool {
	return KindOf(err) == KindAuthExpired
}

// UserMessage returns the text to show for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "something went wrong"
}

// ToHTTP maps a failure onto the status code the dashboard answers with.
func ToHTTP(err error) int {
	switch KindOf(err) {
	case KindAuthExpired:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindRejected:
		if s := StatusOf(err); s >= 400 && s < 500 {
			return s
		}
		return http.StatusBadGateway
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
