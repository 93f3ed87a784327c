// Package dispatcher resolves commands and invokes their handlers.
//
// A command can be addressed three ways: by identifier (a menu selection),
// by name (a palette or script), or by a captured key event. All three
// share one invocation core.
//
// # Dispatch
//
// When a command is dispatched:
//
//  1. The record is resolved through the registry's indexes
//  2. Key dispatches apply the global-only filter and the phase rule
//  3. The record's cached enabled state and its policy are checked
//     against the ambient flags
//  4. Pre-dispatch hooks run and may cancel the call
//  5. The handler is invoked (with optional panic recovery)
//  6. Post-dispatch hooks run
//  7. Metrics are recorded (if enabled)
//
// A handler's error is returned to the caller unchanged.
//
// # Outcomes
//
// Every dispatch reports exactly one Outcome. NotFound and Disallowed are
// ordinary results: a disallowed dispatch carries a *DisallowedError that
// can explain, in terms of named flag bits, what the user has to change.
//
// # Key phases
//
// A record normally fires on key press. WantKeyUp moves it to release, and
// SkipKeyDown stops a press from ever firing it. Events arriving in the
// phase a record does not fire on are reported as PhaseIgnored. Such a press
// is still marked Consumed so the caller keeps it from other widgets; such a
// release is not.
package dispatcher
