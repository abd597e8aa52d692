package apperror

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies service-layer failures so transport adapters can map them
// to HTTP statuses or realtime error events without string matching.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation: a required field is missing or malformed.
	KindValidation
	// KindConflict: a unique constraint (e.g. email) is already taken.
	KindConflict
	// KindAuth: bad credentials or an unverifiable token.
	KindAuth
	// KindNotFound covers both "does not exist" and "not owned by the caller".
	// The two are intentionally indistinguishable to avoid existence leakage.
	KindNotFound
	// KindProvider: an external LLM/TTS call failed or returned no payload.
	KindProvider
	// KindStore: a persistence call failed.
	KindStore
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the classification of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// StatusCode maps an error to the HTTP status the REST layer should answer with.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindConflict:
		return fiber.StatusConflict
	case KindAuth:
		return fiber.StatusUnauthorized
	case KindNotFound:
		return fiber.StatusNotFound
	case KindProvider:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
