// Package errors provides the classified error primitives shared by the
// publisher's packages.
//
// A ClassifiedError carries a category (which part of the system failed), a
// severity, a retry hint and free-form context. Stage errors produced by the
// pipeline are converted into ClassifiedErrors at the CLI boundary so the
// process exit code reflects the failing stage.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryGit, "clone failed").
//		WithContext("url", sourceURL).
//		WithCause(originalErr).
//		Build()
package errors
