// ABOUTME: Session error taxonomy
// ABOUTME: Setup errors are retryable, write errors are fatal to the session
package session

import "errors"

var (
	// ErrAlreadyRecording is returned by Start when the session is not Idle.
	ErrAlreadyRecording = errors.New("already recording")

	// ErrPermissionDenied is the signal the surrounding permission
	// collaborator feeds back into the core; it is treated exactly like any
	// other setup error.
	ErrPermissionDenied = errors.New("permission denied")
)
