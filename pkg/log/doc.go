// Package log captures hardware trace events from the attach layer.
//
// Every register access, lifecycle state change and CIS scan decision is
// reported as a structured Event to a Logger supplied by the application.
// Events are CBOR-encodable with integer keys, so a FileLogger stream stays
// compact enough to leave enabled on embedded hosts.
//
// Pass nil or NoopLogger wherever a Logger is accepted to disable tracing.
package log
