package transcode

import "errors"

var ErrTranscodeFailed = errors.New("transcode failed")
