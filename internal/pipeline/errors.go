package pipeline

import (
	"errors"
	"fmt"
)

// FatalError marks a plugin hook failure that must abort the whole pipeline
// pass and propagate to the caller, instead of the default behavior of
// logging the failure and continuing with the next plugin.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal plugin error: %v", e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Fatal wraps err so the Runner treats it as fatal for the pass.
// A nil err returns nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

// IsFatal reports whether err is, or wraps, a FatalError.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
