// Package pipeline runs one publish request end to end.
//
// A run moves through a fixed, one-directional sequence of states:
//
//	idle → cloning → compiling → finishing → publishing → done → terminal
//	                                              └→ notifying_failure → terminal
//
// Any failure while cloning, compiling or finishing goes straight to
// terminal. Only a rejected stylesheet enters notifying_failure, where the
// moderators are messaged once. Every run yields exactly one Outcome.
//
// The Orchestrator owns the collaborators and refuses to start a second run
// while one is in flight. Observers (run history, NATS broadcast) attach
// through EventSink and can never fail a run.
package pipeline
