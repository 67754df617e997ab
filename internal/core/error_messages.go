package core

import (
	"errors"
	"fmt"

	"github.com/JonMunkholm/userupload/internal/database"
)

// UserMessage pairs a short description of a skip with a support code.
type UserMessage struct {
	Message string
	Code    string
}

var (
	msgMalformed = UserMessage{
		Message: "Row has fewer fields than the header requires",
		Code:    "ROW001",
	}
	msgInvalidEmail = UserMessage{
		Message: "Email address is not valid",
		Code:    "ROW002",
	}
	msgDuplicateEmail = UserMessage{
		Message: "A user with this email already exists",
		Code:    "DB001",
	}
	msgInsertFailed = UserMessage{
		Message: "Database rejected the row",
		Code:    "DB002",
	}
)

// MapResult returns the message for a skipped result, or an empty
// UserMessage for any other outcome.
func MapResult(r Result) UserMessage {
	if r.Outcome != OutcomeSkipped {
		return UserMessage{}
	}

	switch r.Reason {
	case ReasonMalformedRow:
		return msgMalformed
	case ReasonInvalidEmail:
		return msgInvalidEmail
	case ReasonInsertFailed:
		if database.IsUniqueViolation(r.Err) {
			return msgDuplicateEmail
		}
		return msgInsertFailed
	default:
		return UserMessage{}
	}
}

// FatalRowError aborts a run: the database connection failed while
// processing Row. Rows before it are already committed.
type FatalRowError struct {
	Row int
	Err error
}

func (e *FatalRowError) Error() string {
	return fmt.Sprintf("row %d: database connection lost: %v", e.Row, e.Err)
}

func (e *FatalRowError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err must stop the run.
func IsFatal(err error) bool {
	var fe *FatalRowError
	return errors.As(err, &fe)
}
