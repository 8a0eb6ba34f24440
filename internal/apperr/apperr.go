package apperr

import (
	"errors"
	"net"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Kind is the closed set of application error categories. Every failure that
// crosses a service boundary is classified into exactly one of these.
type Kind string

const (
	Authentication Kind = "AUTHENTICATION"
	Authorization  Kind = "AUTHORIZATION"
	Database       Kind = "DATABASE"
	Storage        Kind = "STORAGE"
	Validation     Kind = "VALIDATION"
	Network        Kind = "NETWORK"
	NotFound       Kind = "NOT_FOUND"
	Unknown        Kind = "UNKNOWN"
)

var defaultMessages = map[Kind]string{
	Authentication: "Authentication failed. Please verify your credentials.",
	Authorization:  "You do not have permission to perform this action.",
	Database:       "There was a problem processing the data. Please try again.",
	Storage:        "There was a problem processing files. Check size and format.",
	Validation:     "Please verify that all fields are correct.",
	Network:        "Connection error. Check your network and try again.",
	NotFound:       "The requested resource was not found.",
	Unknown:        "An unexpected error occurred. Please try again.",
}

// Error carries a user-facing message alongside the technical one, so
// handlers can show the former and log the latter.
type Error struct {
	Kind      Kind
	Message   string
	Technical string
	Code      string
	Timestamp time.Time
}

func (e *Error) Error() string {
	if e.Technical != "" {
		return e.Technical
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New builds an error of the given kind with an explicit user message.
func New(kind Kind, message, technical string) *Error {
	if message == "" {
		message = defaultMessages[kind]
	}
	return &Error{
		Kind:      kind,
		Message:   message,
		Technical: technical,
		Timestamp: time.Now(),
	}
}

// Wrap classifies an arbitrary error. Already-classified errors pass through.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return New(classify(err), "", err.Error())
}

// FromDB classifies an error returned by a repository call, with overrides
// for the handful of conditions users can actually act on.
func FromDB(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	e := New(Database, "", err.Error())
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		e.Kind = NotFound
		e.Message = defaultMessages[NotFound]
		e.Code = "not_found"
	case isUniqueViolation(err):
		e.Message = "This record already exists."
		e.Code = "23505"
	case isForeignKeyViolation(err):
		e.Message = "Cannot delete: related records exist."
		e.Code = "23503"
	case isNetworkError(err):
		e.Kind = Network
		e.Message = defaultMessages[Network]
	}
	return e
}

// FromAuth classifies a credential-check failure.
func FromAuth(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	e := New(Authentication, "", err.Error())
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission") || strings.Contains(msg, "unauthorized"):
		e.Kind = Authorization
		e.Message = defaultMessages[Authorization]
	case strings.Contains(msg, "invalid login credentials") ||
		strings.Contains(msg, "hashedpassword is not the hash"):
		e.Message = "Wrong email or password."
	case strings.Contains(msg, "user not found"):
		e.Message = "No account exists with this email."
	}
	return e
}

func classify(err error) Kind {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "auth"):
		if strings.Contains(msg, "permission") || strings.Contains(msg, "unauthorized") {
			return Authorization
		}
		return Authentication
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound
	case strings.Contains(msg, "storage") || strings.Contains(msg, "bucket"):
		return Storage
	case isNetworkError(err):
		return Network
	case strings.Contains(msg, "sqlstate") || strings.Contains(msg, "constraint") ||
		strings.Contains(msg, "duplicate key"):
		return Database
	}
	return Unknown
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "unique constraint") ||
		errors.Is(err, gorm.ErrDuplicatedKey)
}

func isForeignKeyViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") ||
		errors.Is(err, gorm.ErrForeignKeyViolated)
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "network") ||
		strings.Contains(msg, "i/o timeout")
}

// Status maps an error kind to the HTTP status the handler should answer with.
func Status(e *Error) int {
	switch e.Kind {
	case Authentication:
		return 401
	case Authorization:
		return 403
	case Validation:
		return 400
	case NotFound:
		return 404
	case Network:
		return 502
	default:
		return 500
	}
}
