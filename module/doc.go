// Package module implements the SECoP module model: the accessible schema
// (parameters and commands), the per-module parameter cache with timestamps
// and read-error state, the module lifecycle state machine and the poller
// driving periodic refresh from hardware.
//
// A Module does not talk to hardware itself. Read, write and command
// callbacks are injected per accessible; they may block for the duration of
// real instrument I/O. All cache mutations are serialized by the module's
// lock, and every value change is announced through a single update hook,
// which the dispatcher in package server connects to its event fan-out.
//
// Hardware device implementations plug in through the capability interfaces
// Readable, Writable and Drivable, composed by the NewReadable, NewWritable
// and NewDrivable builders.
package module
