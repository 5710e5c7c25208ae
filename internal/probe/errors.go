package probe

import "errors"

// ErrProbeFailed is returned when ffprobe cannot read or recognize a file.
// Callers treat this as fatal for the upload: no catalog row is created.
var ErrProbeFailed = errors.New("probe failed")
