package stylesheet

import (
	"errors"
	"fmt"
)

// ErrEngineUnavailable indicates the preprocessor could not be started,
// typically because the sass binary is not on PATH.
var ErrEngineUnavailable = errors.New("stylesheet engine unavailable")

// CompileError reports that the entry stylesheet could not be compiled.
// Message carries the preprocessor's diagnostic.
type CompileError struct {
	EntryPath string
	Message   string
	Err       error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %s", e.EntryPath, e.Message)
}

func (e *CompileError) Unwrap() error { return e.Err }
