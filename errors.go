package typedis

import (
	"errors"
	"fmt"
)

// ErrAlreadyLocked matches any AlreadyLockedError via errors.Is.
var ErrAlreadyLocked = errors.New("typedis: already locked")

var errNilFactory = errors.New("typedis: factory is required")

// AlreadyLockedError reports a failed-fast lock acquisition: the key was
// already held by some other owner. It is returned only by the explicit
// check paths (Lock.Check, AcquireLockChecked); plain AcquireLock reports
// contention through Acquired() instead.
type AlreadyLockedError struct {
	Key string
}

func (e *AlreadyLockedError) Error() string {
	return fmt.Sprintf("typedis: lock %q is already held", e.Key)
}

func (e *AlreadyLockedError) Unwrap() error { return ErrAlreadyLocked }
