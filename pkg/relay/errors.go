package relay

import "errors"

// ErrNilEvent indicates a nil event envelope was provided to a publisher.
var ErrNilEvent = errors.New("nil event envelope")
