package apperror

import "errors"

// Code is a machine-readable domain error code surfaced to clients.
type Code string

const (
	CodeUserNotFound                   Code = "USER_NOT_FOUND"
	CodeUnauthorized                   Code = "UNAUTHORIZED"
	CodeEmailAlreadyExists             Code = "EMAIL_ALREADY_EXISTS"
	CodeUsernameAlreadyExists          Code = "USERNAME_ALREADY_EXISTS"
	CodeUserAlreadyInMatch             Code = "USER_ALREADY_IN_MATCH"
	CodeMatchNotFound                  Code = "MATCH_NOT_FOUND"
	CodeUserNotInThisMatch             Code = "USER_NOT_IN_THIS_MATCH"
	CodeIncorrectPlayerTypeForThisUser Code = "INCORRECT_PLAYER_TYPE_FOR_THIS_USER"
	CodeVersionMismatch                Code = "VERSION_MISMATCH"
	CodeWrongPassword                  Code = "WRONG_PASSWORD"
	CodeMatchNotInWaitingState         Code = "MATCH_NOT_IN_WAITING_STATE"
)

var (
	ErrUserNotFound                   = New(CodeUserNotFound, "user not found")
	ErrUnauthorized                   = New(CodeUnauthorized, "unauthorized")
	ErrEmailAlreadyExists             = New(CodeEmailAlreadyExists, "email already exists")
	ErrUsernameAlreadyExists          = New(CodeUsernameAlreadyExists, "username already exists")
	ErrUserAlreadyInMatch             = New(CodeUserAlreadyInMatch, "user is already in a match")
	ErrMatchNotFound                  = New(CodeMatchNotFound, "match not found")
	ErrUserNotInThisMatch             = New(CodeUserNotInThisMatch, "user is not in this match")
	ErrIncorrectPlayerTypeForThisUser = New(CodeIncorrectPlayerTypeForThisUser, "player type does not belong to this user")
	ErrVersionMismatch                = New(CodeVersionMismatch, "match version mismatch")
	ErrWrongPassword                  = New(CodeWrongPassword, "wrong password")
	ErrMatchNotInWaitingState         = New(CodeMatchNotInWaitingState, "match is not waiting for an opponent")
)

// Error is a recoverable domain error. Two errors are equal under errors.Is when their codes match,
// so a detailed error still matches the package sentinel.
type Error struct {
	Code    Code
	Message string
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (that *Error) Error() string {
	return that.Message
}

func (that *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return other.Code == that.Code
}

// CodeOf returns the domain code carried by err. The second result is false for infrastructure errors.
func CodeOf(err error) (Code, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}

	return "", false
}

// Codes lists the closed set of domain codes.
func Codes() []Code {
	return []Code{
		CodeUserNotFound,
		CodeUnauthorized,
		CodeEmailAlreadyExists,
		CodeUsernameAlreadyExists,
		CodeUserAlreadyInMatch,
		CodeMatchNotFound,
		CodeUserNotInThisMatch,
		CodeIncorrectPlayerTypeForThisUser,
		CodeVersionMismatch,
		CodeWrongPassword,
		CodeMatchNotInWaitingState,
	}
}
