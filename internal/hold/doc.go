// Package hold provides the blocking timed wait used by the release
// runner, together with the Clock abstraction that every sleeping
// component (resolver backoff, poll interval) goes through.
//
// A hold renders a single overwritten status line on the diagnostic
// stream while it waits, and clears it when done. Durations are measured
// with the monotonic reading carried by time.Time, so wall clock
// adjustments never shorten or extend a wait.
package hold
