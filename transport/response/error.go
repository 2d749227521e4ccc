// Package response renders errors the same way for every transport.
package response

import (
	"errors"
	"net/http"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/usecase"
)

// Transport codes, reported next to the domain codes of apperror.
const (
	CodeIllegalMove = "ILLEGAL_MOVE"
	CodeBadRequest  = "BAD_REQUEST"
	CodeInternal    = "INTERNAL"
)

var ErrBadRequest = errors.New("bad request")

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var statusByCode = map[apperror.Code]int{
	apperror.CodeUserNotFound:                   http.StatusNotFound,
	apperror.CodeMatchNotFound:                  http.StatusNotFound,
	apperror.CodeUnauthorized:                   http.StatusUnauthorized,
	apperror.CodeWrongPassword:                  http.StatusUnauthorized,
	apperror.CodeUserNotInThisMatch:             http.StatusForbidden,
	apperror.CodeIncorrectPlayerTypeForThisUser: http.StatusForbidden,
	apperror.CodeVersionMismatch:                http.StatusConflict,
	apperror.CodeUserAlreadyInMatch:             http.StatusConflict,
	apperror.CodeMatchNotInWaitingState:         http.StatusConflict,
	apperror.CodeEmailAlreadyExists:             http.StatusConflict,
	apperror.CodeUsernameAlreadyExists:          http.StatusConflict,
}

// FromError classifies err into an HTTP status and a body. Anything that is neither a domain
// error, an illegal move nor bad input is reported as INTERNAL without details.
func FromError(err error) (int, Error) {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		status, ok := statusByCode[appErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}

		return status, Error{Code: string(appErr.Code), Message: appErr.Message}
	}

	switch {
	case errors.Is(err, entity.ErrIllegalMove):
		return http.StatusUnprocessableEntity, Error{Code: CodeIllegalMove, Message: err.Error()}
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, entity.ErrUnknownMatchType),
		errors.Is(err, entity.ErrInvalidMove),
		errors.Is(err, entity.ErrInvalidSquare),
		errors.Is(err, entity.ErrUnknownPlayer),
		errors.Is(err, usecase.ErrInvalidUsername):
		return http.StatusBadRequest, Error{Code: CodeBadRequest, Message: err.Error()}
	default:
		return http.StatusInternalServerError, Error{Code: CodeInternal, Message: "internal server error"}
	}
}
