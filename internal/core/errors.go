package core

import (
	"errors"
	"fmt"
)

// ErrInvalidURL means the supplied repository URL could not be parsed into an
// owner/name pair.
var ErrInvalidURL = errors.New("invalid repository URL")

// ErrDeactivationFailed means the plugin could not be verifiably deactivated,
// so the update was aborted before touching any files.
var ErrDeactivationFailed = errors.New("plugin deactivation could not be verified")

// Warning codes attached to otherwise-successful results. Partial successes
// are reported as success with a warning, never silently as full success nor
// as full failure; the admin UI keys its next suggested action off the code.
const (
	WarnReactivationFailed  = "reactivation_failed"
	WarnInstalledAhead      = "installed_ahead"
	WarnProvenanceMismatch  = "provenance_mismatch"
	WarnPartialDelete       = "partial_delete"
	WarnVersionUnresolved   = "version_unresolved"
	WarnInstalledUnreadable = "installed_unreadable"
)

// Warning is a non-fatal problem attached to a successful result.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (w *Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

func warnf(code, format string, args ...any) *Warning {
	return &Warning{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InstallFailedError distinguishes an install failure that happened after the
// plugin was already deactivated from one that happened before any mutation.
// The former required a reactivation attempt; Reactivated records whether it
// worked.
type InstallFailedError struct {
	Err         error
	WasActive   bool
	Reactivated bool
}

func (e *InstallFailedError) Error() string {
	if e.WasActive && !e.Reactivated {
		return fmt.Sprintf("install failed after deactivation (plugin left inactive): %v", e.Err)
	}

	return fmt.Sprintf("install failed: %v", e.Err)
}

func (e *InstallFailedError) Unwrap() error {
	return e.Err
}
