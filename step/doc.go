// Package step implements the durable step-function execution core: the
// state machine that replays a user handler against memoized step state
// and produces a single outcome per invocation cycle.
//
// The package is built around five cooperating pieces, all scoped to one
// execution cycle and discarded afterwards:
//
//   - an OpStack holding the memoized step state the Executor sent in,
//   - a Tools value exposing the step primitives (Run, Sleep, SleepUntil,
//     WaitForEvent, Invoke, SendEvent, AiInfer) to the user handler,
//   - a scheduler that drives the handler on its own goroutine and
//     coalesces same-tick step discovery into Checkpoints,
//   - a MiddlewareStack of waterfall hooks, and
//   - an Engine that consumes Checkpoints and produces one ExecutionResult.
package step
