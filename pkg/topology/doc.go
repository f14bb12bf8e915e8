// Package topology holds the pure graph algorithms: cycle prediction
// for connection requests, deterministic execution ordering, and the
// automatic layout pass for graphs loaded without positions.
//
// Everything here is policy-free. WouldCreateCycle answers a question;
// whether a cyclic connection is rejected, warned about or allowed is
// the caller's decision.
package topology
