package classifier

import "errors"

// ErrModelUnavailable is returned when the model artifact is missing or corrupt.
var ErrModelUnavailable = errors.New("classifier model unavailable")
