package main

import (
	"sync"
	"time"
)

// Transport is the narrow view of the chat layer the game core needs: a
// channel everyone reads, private messages, and the current membership.
// Sends are fire-and-forget; no delivery guarantee is assumed.
type Transport interface {
	SendChannel(text string)
	SendPrivate(account, text string)
	RosterSnapshot() []string // account handles currently connected
}

// CancelHandle identifies a scheduled callback.
type CancelHandle int64

// Scheduler runs callbacks after a delay. Callbacks must re-validate the
// phase token they captured; the scheduler itself makes no ordering promise
// relative to phase transitions.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelHandle
	Cancel(h CancelHandle)
}

// timerScheduler is the production Scheduler backed by time.AfterFunc.
type timerScheduler struct {
	mu     sync.Mutex
	next   CancelHandle
	timers map[CancelHandle]*time.Timer
}

func newTimerScheduler() *timerScheduler {
	return &timerScheduler{timers: make(map[CancelHandle]*time.Timer)}
}

func (s *timerScheduler) Schedule(d time.Duration, fn func()) CancelHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	h := s.next
	s.timers[h] = time.AfterFunc(d, func() {
		s.mu.Lock()
		delete(s.timers, h)
		s.mu.Unlock()
		fn()
	})
	return h
}

func (s *timerScheduler) Cancel(h CancelHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[h]; ok {
		t.Stop()
		delete(s.timers, h)
	}
}
