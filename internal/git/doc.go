// Package git prepares the working tree for a run: it wipes the scratch
// directory and performs a full clone of the source repository with the
// configured credentials.
//
// Clone failures are returned as *TransportError with a coarse reason so
// callers can tell authentication problems from unreachable remotes without
// parsing messages.
package git
