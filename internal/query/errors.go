package query

import (
	"errors"
	"fmt"
)

// ErrPageOutOfRange is returned when the requested page holds no results.
var ErrPageOutOfRange = errors.New("requested page is out of range")

// ParamError is a malformed query parameter. Code is the short error label
// shown to clients and Message the human readable explanation.
type ParamError struct {
	Code    string
	Message string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalidDate() *ParamError {
	return &ParamError{Code: "Invalid date format", Message: "Dates must be in format YYYY-MM-DD"}
}
