// Package watchdog contains the power-loss watchdog core.
//
// Events flow one direction: transport → debounce filter → shutdown arbiter
// → (at most once) the OS shutdown invoker. The arbiter owns the single
// pending-shutdown timer; a timely power-back event cancels it with no side
// effect, and a sustained failure shuts the system down exactly once.
// Stopping the watchdog cancels any pending countdown before Run returns,
// so an operator-initiated stop never leaves a stray shutdown scheduled.
package watchdog
