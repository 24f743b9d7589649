package step

import (
	"sync"
	"time"
)

// checkpointKind tags the single message type the scheduler hands to the
// engine each time the handler goroutine yields.
type checkpointKind int

const (
	ckStepsFound checkpointKind = iota
	ckFunctionResolved
	ckFunctionRejected
	ckStepNotFound
)

// checkpoint is one report from the scheduler to the engine's consuming
// goroutine. Exactly one of its payload fields is meaningful, selected by
// kind.
type checkpoint struct {
	kind  checkpointKind
	steps []*foundStep
	data  []byte
	err   error
}

// scheduler is the single-threaded cooperative loop of spec section 4.4,
// realized in Go as a coordination object shared between the handler
// goroutine (which calls register/reportNow from inside Tools) and the
// engine goroutine (which receives checkpoints and drives execution).
//
// There is deliberately no dedicated scheduler goroutine: registration is
// synchronous appending to a slice, and "next tick" is simply "the next
// time the handler goroutine blocks" — the natural Go analogue of a
// microtask boundary, since Tools never blocks except inside Future.Await.
type scheduler struct {
	mu      sync.Mutex
	pending []*foundStep
	seq     int

	checkpoints chan checkpoint

	targetStepID  string
	targetTimer   *time.Timer
	targetReached bool

	doneCh   chan struct{}
	closeOne sync.Once
}

func newScheduler(targetStepID string, targetTimeout time.Duration) *scheduler {
	s := &scheduler{
		targetStepID: targetStepID,
		checkpoints:  make(chan checkpoint, 1),
		doneCh:       make(chan struct{}),
	}
	if targetStepID != "" && targetTimeout > 0 {
		s.targetTimer = time.AfterFunc(targetTimeout, s.onTargetTimeout)
	}
	return s
}

// register records a newly discovered step, assigning it a stable
// discovery index. It does not by itself notify the engine; notification
// happens when the handler goroutine next blocks (reportNow) or returns
// (finishResolved/finishRejected).
func (s *scheduler) register(fs *foundStep) {
	s.mu.Lock()
	fs.discoveryIndex = s.seq
	s.seq++
	s.pending = append(s.pending, fs)
	matched := s.targetStepID != "" && fs.hashedID == s.targetStepID
	s.mu.Unlock()

	if matched {
		s.cancelTargetTimer()
	}
}

// reportNow flushes whatever has been registered since the last report as
// a single steps-found checkpoint. It is a no-op when nothing new has been
// registered, which is the common case when the handler blocks on a Future
// the engine is already aware of from an earlier report.
func (s *scheduler) reportNow() {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	steps := s.pending
	s.pending = nil
	s.mu.Unlock()

	s.send(checkpoint{kind: ckStepsFound, steps: steps})
}

// finishResolved reports that the handler body returned successfully.
func (s *scheduler) finishResolved(data []byte) {
	s.reportNow()
	s.send(checkpoint{kind: ckFunctionResolved, data: data})
}

// finishRejected reports that the handler body returned (or panicked with)
// an error.
func (s *scheduler) finishRejected(err error) {
	s.reportNow()
	s.send(checkpoint{kind: ckFunctionRejected, err: err})
}

func (s *scheduler) onTargetTimeout() {
	s.send(checkpoint{kind: ckStepNotFound, err: ErrStepTargetTimeout})
}

func (s *scheduler) cancelTargetTimer() {
	s.mu.Lock()
	reached := s.targetReached
	s.targetReached = true
	t := s.targetTimer
	s.mu.Unlock()
	if !reached && t != nil {
		t.Stop()
	}
}

// send delivers a checkpoint to the engine, unless the cycle has already
// ended (close was called), in which case it is dropped — this is what
// makes a handler goroutine blocked past the terminal checkpoint harmless:
// its eventual reportNow/finish call simply has nowhere to go.
func (s *scheduler) send(cp checkpoint) {
	select {
	case s.checkpoints <- cp:
	case <-s.doneCh:
	}
}

// close ends the cycle: no further checkpoints will be delivered, and any
// handler goroutine still blocked in Future.Await unblocks via ctx instead.
func (s *scheduler) close() {
	s.closeOne.Do(func() {
		close(s.doneCh)
		s.cancelTargetTimer()
	})
}
