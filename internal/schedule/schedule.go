// Package schedule provides timer capabilities for the single-threaded session loop.
package schedule

import "time"

// Handle identifies a scheduled callback. The zero Handle is never issued.
type Handle uint64

// Scheduler runs callbacks after a delay on the caller's event loop.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func()) Handle
	Cancel(h Handle)
}
