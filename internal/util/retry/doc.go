// Package retry provides exponential backoff retry and polling helpers.
//
// [WithExponentialBackoff] retries an operation a bounded number of times and
// is used for SSH dialing. [Poll] waits for a condition under a
// [PollPolicy] and returns [ErrTimeout] once the policy's timeout elapses.
// Both are built on cenkalti/backoff.
package retry
