package server

import (
	"errors"
	"fmt"
	"net/http"
)

type errorKind int

const (
	kindNotFound errorKind = iota
	kindInvalid
	kindConflict
	kindForbidden
	kindInvalidState
)

// apiError is the single error shape the engine returns. The kind maps
// to an HTTP status; the code lets clients tell apart conflicts that
// mean "you already did this" from "someone else won".
type apiError struct {
	kind    errorKind
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func errNotFound(format string, args ...any) error {
	return &apiError{kind: kindNotFound, message: fmt.Sprintf(format, args...)}
}

func errInvalid(format string, args ...any) error {
	return &apiError{kind: kindInvalid, message: fmt.Sprintf(format, args...)}
}

func errConflict(code, format string, args ...any) error {
	return &apiError{kind: kindConflict, code: code, message: fmt.Sprintf(format, args...)}
}

func errForbidden(format string, args ...any) error {
	return &apiError{kind: kindForbidden, message: fmt.Sprintf(format, args...)}
}

func errInvalidState(format string, args ...any) error {
	return &apiError{kind: kindInvalidState, message: fmt.Sprintf(format, args...)}
}

const (
	conflictAlreadyMember    = "already_member"
	conflictAlreadySubmitted = "already_submitted"
	conflictRoundWon         = "round_won"
)

func errorStatus(err error) int {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	switch apiErr.kind {
	case kindNotFound:
		return http.StatusNotFound
	case kindInvalid:
		return http.StatusBadRequest
	case kindConflict, kindInvalidState:
		return http.StatusConflict
	case kindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func errorCode(err error) string {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apiErr.code
	}
	return ""
}

func isKind(err error, kind errorKind) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.kind == kind
}
