package main

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Player is one participant. ID is the stable internal key every registry and
// ledger indexes by; Nick is the mutable display name a rename swaps out from
// under us, and Account is the stable handle reported to the stats recorder.
type Player struct {
	ID      string
	Account string
	Nick    string
	Alive   bool
	Bullets int
	// Disconnected is set when the transport loses the player mid-game, so
	// the end-of-game record can flag them.
	Disconnected bool
}

// Roster tracks every player known to the current game, indexed both by
// stable ID and by current nick. All mutation goes through Roster methods so
// the nick index can never drift from the player set.
type Roster struct {
	mu     sync.RWMutex
	byID   map[string]*Player
	byNick map[string]string // nick -> id
}

func newRoster() *Roster {
	return &Roster{
		byID:   make(map[string]*Player),
		byNick: make(map[string]string),
	}
}

// Add registers a new player and returns it. Fails if the nick is taken.
func (r *Roster) Add(account, nick string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byNick[nick]; taken {
		return nil, fmt.Errorf("nick %q already present", nick)
	}
	p := &Player{ID: uuid.NewString(), Account: account, Nick: nick, Alive: true}
	r.byID[p.ID] = p
	r.byNick[nick] = p.ID
	return p, nil
}

// Remove deletes the player entirely (game teardown or pre-game leave).
func (r *Roster) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		delete(r.byNick, p.Nick)
		delete(r.byID, id)
	}
}

// Get returns the player by stable ID.
func (r *Roster) Get(id string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// ByNick resolves a current display name to a player.
func (r *Roster) ByNick(nick string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byNick[nick]
	if !ok {
		return nil, false
	}
	return r.byID[id], true
}

// ByAccount resolves a stable account handle to a player.
func (r *Roster) ByAccount(account string) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.byID {
		if p.Account == account {
			return p, true
		}
	}
	return nil, false
}

// Rename swaps a player's display name. Because every other collection keys
// by the stable ID, this is the only index that needs updating.
func (r *Roster) Rename(oldNick, newNick string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byNick[oldNick]
	if !ok {
		return errUnknownPlayer
	}
	if other, taken := r.byNick[newNick]; taken && other != id {
		return fmt.Errorf("nick %q already present", newNick)
	}
	delete(r.byNick, oldNick)
	r.byNick[newNick] = id
	r.byID[id].Nick = newNick
	return nil
}

// All returns every player, ordered by nick for stable iteration.
func (r *Roster) All() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.byID))
	for _, p := range r.byID {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nick < out[j].Nick })
	return out
}

// Len returns the player count.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
