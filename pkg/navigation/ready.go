package navigation

import "sync"

// ReadySignal is a one-shot readiness flag hosts can embed to implement
// Host.Ready.
type ReadySignal struct {
	once sync.Once
	ch   chan struct{}
}

func NewReadySignal() *ReadySignal {
	return &ReadySignal{ch: make(chan struct{})}
}

func (s *ReadySignal) Ready() <-chan struct{} {
	return s.ch
}

// Signal marks the host ready. Extra calls are no-ops.
func (s *ReadySignal) Signal() {
	s.once.Do(func() { close(s.ch) })
}

// IsReady reports whether Signal was called.
func (s *ReadySignal) IsReady() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
