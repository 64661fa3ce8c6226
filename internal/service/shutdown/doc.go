// Package shutdown invokes the operating system shutdown. The watchdog
// treats the call as fire-and-forget: it is never awaited for completion and
// never retried.
package shutdown
