// Package schedule implements the recurring-reminder engine.
//
// It is deliberately split from storage and polling:
//   - Schedule is plain data, fully validated at the boundary.
//   - NextTrigger is a pure function of (schedule, now); it performs no I/O
//     and never mutates state, so it can be exercised directly in tests with
//     synthetic clocks.
//
// The only mutable piece of schedule state is LastTriggeredAt, written
// exclusively by the storage layer's MarkTriggered.
package schedule
