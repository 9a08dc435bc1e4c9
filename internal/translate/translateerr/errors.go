// Package translateerr holds the translation sentinel errors in a leaf
// package so backend subpackages can reference them without importing the
// factory in package translate.
package translateerr

import "errors"

var (
	// ErrTranslatorUnavailable indicates the backend could not be reached or
	// returned a server-side failure.
	ErrTranslatorUnavailable = errors.New("translation backend unavailable")

	// ErrTranslationTimeout indicates the backend did not answer within the
	// per-call deadline.
	ErrTranslationTimeout = errors.New("translation timed out")

	// ErrEmptyTranslation indicates the backend answered but produced no SQL.
	ErrEmptyTranslation = errors.New("translation backend returned empty SQL")
)
