package sim

import "fmt"

// SinkReadError abandons a tick when a point could not be read.
type SinkReadError struct {
	Point string
	Err   error
}

func (e *SinkReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Point, e.Err)
}

func (e *SinkReadError) Unwrap() error { return e.Err }
func (e *SinkReadError) Cause() error  { return e.Err }

// SinkWriteError abandons a tick when a point could not be written. Writes
// issued earlier in the same tick are not rolled back.
type SinkWriteError struct {
	Point string
	Err   error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Point, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }
func (e *SinkWriteError) Cause() error  { return e.Err }
