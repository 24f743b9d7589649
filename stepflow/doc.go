// Package stepflow is the thin user-facing layer on top of the step
// execution core: a Function binds a handler to its descriptor and drives
// it through a step.Engine, and a Client wraps the event-send interface
// for callers outside a step body.
package stepflow
