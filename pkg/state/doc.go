/*
Package state persists bootstrap run records in a BoltDB store.

Each finished run is stored with its per-step outcomes, discovered address
and rendered-artifact hashes, and the latest run is tracked for `burrow
status`. The bbolt file lock doubles as a single-runner guard: a second
bootstrap on the same host fails to open the store instead of racing the
first.
*/
package state
