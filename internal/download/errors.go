package download

import "errors"

var (
	// ErrNotFound indicates the requested job does not exist.
	ErrNotFound = errors.New("download not found")

	// ErrInvalidTransition indicates a disallowed status change.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrGIDAlreadySet indicates an attempt to rebind a job to a second
	// daemon transfer.
	ErrGIDAlreadySet = errors.New("gid already set")

	// ErrQuotaExceeded indicates the payload is larger than the requesting
	// user's download limit.
	ErrQuotaExceeded = errors.New("download quota exceeded")

	// ErrSubmitFailed indicates the daemon rejected the submission.
	ErrSubmitFailed = errors.New("daemon rejected download")

	// ErrDaemonUnavailable indicates the daemon connection is down.
	ErrDaemonUnavailable = errors.New("download daemon unavailable")

	// ErrInvalidRequest indicates a malformed submission.
	ErrInvalidRequest = errors.New("invalid download request")
)
