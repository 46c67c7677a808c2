/*
Package log provides structured logging for Burrow using zerolog.

Init configures the global logger once at startup; packages derive child
loggers via WithComponent. Console output is the default for interactive
bootstrap runs; JSON output is available for log shipping.
*/
package log
