// Package checkpoint persists snapshots of a running simulation.
//
// A snapshot holds the current value of every writable symbol of the scope
// tree: global variables as one value, cell properties as one value per cell
// that was explicitly written. Snapshots are msgpack-encoded and stored in a
// badger database keyed by run id and simulated time, so that the latest
// snapshot of a run is a single reverse seek away.
package checkpoint
