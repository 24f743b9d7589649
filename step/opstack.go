package step

import "sync"

// OpStack holds the immutable-per-cycle memoized state the Executor sent
// in, keyed by hashed step id, plus the set of hashed ids not yet observed
// by a tool call this cycle (spec section 4.2).
//
// OpStack is mutated only by Tools; the mutex keeps Lookup/MarkSeen/AllSeen
// safe when a handler issues tool calls from more than one goroutine
// (spec section 5, "Shared state").
type OpStack struct {
	mu        sync.RWMutex
	ops       map[string]*MemoizedOp
	remaining map[string]struct{}
}

// NewOpStack builds an OpStack from a hashed-id -> MemoizedOp map, such as
// the one produced by buildOpStack from a Request's steps field. The
// remaining ("not yet seen") set is seeded with every id present in ops.
func NewOpStack(ops map[string]*MemoizedOp) *OpStack {
	remaining := make(map[string]struct{}, len(ops))
	for id := range ops {
		remaining[id] = struct{}{}
	}
	return &OpStack{ops: ops, remaining: remaining}
}

// Lookup returns the MemoizedOp for a hashed id, or nil if the Executor
// never sent state for it.
func (s *OpStack) Lookup(hashedID string) *MemoizedOp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ops[hashedID]
}

// MarkSeen removes hashedID from the remaining-to-be-seen set.
func (s *OpStack) MarkSeen(hashedID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.remaining, hashedID)
}

// AllSeen reports whether every memoized id has been observed by a tool
// call this cycle. Once true, it stays true: the remaining set only shrinks.
func (s *OpStack) AllSeen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.remaining) == 0
}

// Len reports how many memoized ops the Executor sent in, for diagnostics.
func (s *OpStack) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ops)
}
