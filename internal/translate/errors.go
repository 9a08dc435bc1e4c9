// Package translate selects and wraps SQL translation backends.
package translate

import "github.com/dwporter/dwporter/internal/translate/translateerr"

// The sentinel values live in translateerr so backend subpackages can share
// them without importing this package's factory; these aliases keep the
// translate.Err* names and error identities intact for callers.
var (
	// ErrTranslatorUnavailable indicates the backend could not be reached or
	// returned a server-side failure.
	ErrTranslatorUnavailable = translateerr.ErrTranslatorUnavailable

	// ErrTranslationTimeout indicates the backend did not answer within the
	// per-call deadline.
	ErrTranslationTimeout = translateerr.ErrTranslationTimeout

	// ErrEmptyTranslation indicates the backend answered but produced no SQL.
	ErrEmptyTranslation = translateerr.ErrEmptyTranslation
)
