// Package poller runs the due-schedule loop: on a fixed wall-clock interval
// it asks storage for candidate schedules, confirms each with the precise
// recurrence check, delivers a notification, and atomically marks the
// schedule triggered.
//
// The loop is strictly sequential; one cycle finishes before the next
// starts, which is the only serialization MarkTriggered relies on. The
// clock is injectable so cycles can be driven directly in tests.
package poller
