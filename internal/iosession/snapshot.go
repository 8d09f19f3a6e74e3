package iosession

import "time"

// Snapshot is an immutable view of the most recently received T->O frame.
// The listener publishes a new Snapshot on every successful parse; readers
// always see a complete, consistent one, never a partially written buffer.
type Snapshot struct {
	App   []byte
	Raw   []byte
	At    time.Time
	Count uint64
}
