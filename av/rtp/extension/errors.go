package extension

import "errors"

// ErrTooSmall indicates a buffer shorter than the fixed extension size.
var ErrTooSmall = errors.New("buffer too small")
