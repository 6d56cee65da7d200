// Package logging provides concrete implementations of the graphload.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes prefixed lines to stderr (or any io.Writer)
//   - NullLogger: discards all messages
//
// ConsoleLogger.WithPrefix tags every line of one load job so output from
// concurrent jobs stays attributable.
package logging
