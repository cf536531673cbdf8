package engine

import "fmt"

// Code identifies a validation failure. Every operation detects its
// failure before any mutation, so a returned Code always means the
// records are untouched.
type Code string

const (
	CodeInvalidConfig      Code = "invalid_config"
	CodeGameNotWaiting     Code = "game_not_waiting"
	CodeGameFull           Code = "game_full"
	CodeAlreadyJoined      Code = "already_joined"
	CodeNotPlayersTurn     Code = "not_players_turn"
	CodeOutOfBounds        Code = "out_of_bounds"
	CodeCellOccupied       Code = "cell_occupied"
	CodeGameAlreadyOver    Code = "game_already_over"
	CodeAlreadyInitialized Code = "already_initialized"
	CodeUnauthorized       Code = "unauthorized"
	CodeNotAuthorized      Code = "not_authorized"
	CodeInsufficientFunds  Code = "insufficient_funds"
	CodeTurnNotExpired     Code = "turn_not_expired"
)

// Error carries the failure kind plus the operands that were compared,
// enough for callers to build precise messages.
type Error struct {
	Code   Code
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Detail
}

// Is lets errors.Is match on the code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

func errf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// ErrCode extracts the Code from an error chain, or "" if the error
// did not originate in the engine.
func ErrCode(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
