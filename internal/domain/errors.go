package domain

import "errors"

// ErrorKind classifies domain failures so transports can map them uniformly.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindAuthorization
	KindForbidden
	KindNotFound
	KindState
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindState:
		return "state"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a typed domain failure. Sentinels below are compared with errors.Is.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// Validation errors
var (
	ErrInvalidInput          = newError(KindValidation, "invalid input")
	ErrSelfInterest          = newError(KindValidation, "cannot express interest in yourself")
	ErrNotRegistered         = newError(KindValidation, "user is not registered for this event")
	ErrCounterpartNotPresent = newError(KindValidation, "target user is not registered for this event")
	ErrEmptyMessage          = newError(KindValidation, "message content cannot be empty")
	ErrMessageTooLong        = newError(KindValidation, "message content is too long")
	ErrBioTooLong            = newError(KindValidation, "bio must be at most 500 characters")
)

// Authorization errors
var (
	ErrUnauthorized   = newError(KindAuthorization, "unauthorized")
	ErrInvalidToken   = newError(KindAuthorization, "invalid token")
	ErrTokenRevoked   = newError(KindAuthorization, "token has been revoked")
	ErrNotParticipant = newError(KindForbidden, "user is not a participant of this match")
	ErrNotAttendee    = newError(KindForbidden, "user is not attending this event")
)

// Not found errors
var (
	ErrProfileNotFound      = newError(KindNotFound, "profile not found")
	ErrEventNotFound        = newError(KindNotFound, "event not found")
	ErrRegistrationNotFound = newError(KindNotFound, "registration not found")
	ErrMatchNotFound        = newError(KindNotFound, "match not found")
)

// State errors
var (
	ErrMatchNotMutual   = newError(KindState, "match is not mutual")
	ErrMatchDeclined    = newError(KindState, "match has been declined")
	ErrNothingToDecline = newError(KindState, "no pending interest to decline")
	ErrEventNotOpen     = newError(KindState, "event is not open for registration")
	ErrEventFull        = newError(KindState, "event is full")
)

// Conflict errors
var (
	ErrProfileAlreadyExists = newError(KindConflict, "profile already exists")
	ErrAlreadyRegistered    = newError(KindConflict, "already registered for this event")
)
