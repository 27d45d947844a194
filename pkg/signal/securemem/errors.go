package securemem

import "errors"

// ErrDestroyed is returned when a Buffer is read after Destroy.
var ErrDestroyed = errors.New("securemem: buffer already destroyed")
