package core

import (
	"errors"
	"fmt"
)

// ErrIgnoreEvent signals that a webhook event is valid but produces no job.
// The receiver acknowledges it without queueing anything.
var ErrIgnoreEvent = errors.New("event does not produce a job")

// MalformedPayloadError reports a webhook payload that was selected for a
// job but is missing a required field. It must never crash the receiver; the
// event is rejected and the sender is not made to retry.
type MalformedPayloadError struct {
	Field string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload: missing %s", e.Field)
}

// JobDecodeError reports a broker record that does not decode into its
// queue's job variant. The worker requeues such records unconditionally; the
// distinct type exists so a future dead-letter path can branch on it.
type JobDecodeError struct {
	Reason string
	Err    error
}

func (e *JobDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode job: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("decode job: %s", e.Reason)
}

func (e *JobDecodeError) Unwrap() error { return e.Err }
