// Package session is the application state machine.
//
// A Machine moves through Idle, Capturing, Processing and Result. All state
// lives in the goroutine running Machine.Run; commands from the front end
// and completions of asynchronous work (camera acquisition, recognition,
// speech, the recovery timer) reach it as events on a single inbox and are
// applied in delivery order. Every completion carries the generation it was
// issued under, so a completion that arrives after the machine has moved on
// is dropped instead of applied.
package session
