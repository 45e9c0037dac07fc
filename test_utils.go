package main

import (
	mrand "math/rand"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeTransport records everything the game says, for assertions.
type fakeTransport struct {
	mu      sync.Mutex
	channel []string
	private map[string][]string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{private: make(map[string][]string)}
}

func (f *fakeTransport) SendChannel(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel = append(f.channel, text)
}

func (f *fakeTransport) SendPrivate(account, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.private[account] = append(f.private[account], text)
}

func (f *fakeTransport) RosterSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.private))
	for account := range f.private {
		out = append(out, account)
	}
	sort.Strings(out)
	return out
}

// channelContains reports whether any channel message includes substr.
func (f *fakeTransport) channelContains(substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.channel {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// privateContains reports whether any private message to account includes substr.
func (f *fakeTransport) privateContains(account, substr string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, msg := range f.private[account] {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func (f *fakeTransport) clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.channel = nil
	f.private = make(map[string][]string)
}

// fakeScheduler captures scheduled callbacks so tests fire timers by hand.
type fakeScheduler struct {
	mu      sync.Mutex
	next    CancelHandle
	pending map[CancelHandle]func()
	order   []CancelHandle
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{pending: make(map[CancelHandle]func())}
}

func (s *fakeScheduler) Schedule(d time.Duration, fn func()) CancelHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending[s.next] = fn
	s.order = append(s.order, s.next)
	return s.next
}

func (s *fakeScheduler) Cancel(h CancelHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, h)
}

// fire runs one captured callback, as if its timer expired.
func (s *fakeScheduler) fire(h CancelHandle) {
	s.mu.Lock()
	fn := s.pending[h]
	delete(s.pending, h)
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// latest returns the most recently scheduled handle.
func (s *fakeScheduler) latest() CancelHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) == 0 {
		return 0
	}
	return s.order[len(s.order)-1]
}

// newTestGame builds a game against fakes, with a seeded RNG and no stats
// store so outcomes are reproducible.
func newTestGame(t *testing.T) (*GameState, *fakeTransport, *fakeScheduler) {
	t.Helper()
	cfg := defaultConfig()
	tr := newFakeTransport()
	sched := newFakeScheduler()
	g := newGame(cfg, tr, sched, nil)
	g.rng = mrand.New(mrand.NewSource(1))
	return g, tr, sched
}

// buildGame joins one player per nick and assigns the given roles directly,
// bypassing the random role guide. The game is left in the join phase; call
// beginNight to start play.
func buildGame(t *testing.T, roles map[string]string) (*GameState, *fakeTransport, *fakeScheduler, map[string]string) {
	t.Helper()
	g, tr, sched := newTestGame(t)
	tl := NewTestLogger(t)

	nicks := make([]string, 0, len(roles))
	for nick := range roles {
		nicks = append(nicks, nick)
	}
	sort.Strings(nicks)

	ids := make(map[string]string, len(nicks))
	for _, nick := range nicks {
		if err := g.submitJoin(nick, nick); err != nil {
			t.Fatalf("join %s: %v", nick, err)
		}
		p, _ := g.roster.ByNick(nick)
		ids[nick] = p.ID
	}
	for nick, role := range roles {
		if err := g.reg.AssignRole(ids[nick], role); err != nil {
			t.Fatalf("assign %s=%s: %v", nick, role, err)
		}
		tl.Debug("assigned %s = %s", nick, role)
	}
	for _, id := range g.joinOrder {
		g.reg.SnapshotOriginal(id)
	}
	tr.clear()
	return g, tr, sched, ids
}

// mustAct fails the test if a night action is rejected.
func mustAct(t *testing.T, g *GameState, id, kind string, targets ...string) {
	t.Helper()
	if err := g.submitNightAction(id, kind, targets...); err != nil {
		t.Fatalf("submitNightAction(%s, %s, %v): %v", id, kind, targets, err)
	}
}

// mustVote fails the test if a day vote is rejected.
func mustVote(t *testing.T, g *GameState, voter, target string) {
	t.Helper()
	if err := g.submitVote(voter, target); err != nil {
		t.Fatalf("submitVote(%s, %s): %v", voter, target, err)
	}
}

// isAlive reports liveness by roster ID.
func isAlive(g *GameState, id string) bool {
	p, ok := g.roster.Get(id)
	return ok && p.Alive
}
