package main

// Action kinds recorded in the ledger. Keyed by capability rather than role
// name: any role whose definition names the kind can submit it.
const (
	ActKill      = "kill"       // wolf consensus kill intent
	ActOtherKill = "other_kill" // non-wolf kill sources (hunter, vengeful ghost)
	ActGuard     = "guard"      // bodyguard / guardian angel protection
	ActObserve   = "observe"    // seer investigation
	ActVisit     = "visit"      // harlot visit
	ActTotem     = "totem"      // shaman totem grant
	ActChoose    = "choose"     // matchmaker lover pair
	ActShoot     = "shoot"      // gunner day shot
	ActPass      = "pass"       // explicit "I am done tonight"
)

// ActionLedger holds every intent submitted during one phase. A fresh ledger
// is created at each phase transition so nothing leaks across nights. The
// ledger is deliberately permissive: eligibility is the command layer's job
// and rule checks are the resolver's; the ledger just stores what it's told.
type ActionLedger struct {
	intents map[string]map[string][]string // kind -> actor ID -> targets
}

func newActionLedger() *ActionLedger {
	return &ActionLedger{intents: make(map[string]map[string][]string)}
}

// RecordIntent stores targets for (actor, kind), overwriting any previous
// submission. The previous targets are returned so the caller can tell the
// player they changed their mind.
func (l *ActionLedger) RecordIntent(actor, kind string, targets ...string) (prev []string) {
	if l.intents[kind] == nil {
		l.intents[kind] = make(map[string][]string)
	}
	prev = l.intents[kind][actor]
	l.intents[kind][actor] = targets
	return prev
}

// RetractIntent removes the actor's submission for the kind. Returns whether
// anything was recorded.
func (l *ActionLedger) RetractIntent(actor, kind string) bool {
	m := l.intents[kind]
	if m == nil {
		return false
	}
	if _, ok := m[actor]; !ok {
		return false
	}
	delete(m, actor)
	return true
}

// Intent returns the actor's recorded targets for the kind, or nil.
func (l *ActionLedger) Intent(actor, kind string) []string {
	return l.intents[kind][actor]
}

// Intents returns the full actor->targets map for a kind.
func (l *ActionLedger) Intents(kind string) map[string][]string {
	return l.intents[kind]
}

// TargetsFor returns every distinct target referenced by the kind, for "did
// anything happen to X" queries during resolution. Order is not significant.
func (l *ActionLedger) TargetsFor(kind string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, targets := range l.intents[kind] {
		for _, t := range targets {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// HasActed reports whether the actor has any recorded intent this phase,
// including an explicit pass.
func (l *ActionLedger) HasActed(actor string) bool {
	for _, m := range l.intents {
		if _, ok := m[actor]; ok {
			return true
		}
	}
	return false
}

// DropActor removes every intent recorded by the actor. Targets referencing
// the actor are left in place; the resolver skips dead targets itself.
func (l *ActionLedger) DropActor(actor string) {
	for _, m := range l.intents {
		delete(m, actor)
	}
}

// VoteTally is the day-phase ballot box. A voter appears under at most one
// candidate at any time; casting a new vote retracts the old one. The
// abstain set is disjoint from all voter lists.
type VoteTally struct {
	votes   map[string][]string // candidate -> ordered voters
	voterTo map[string]string   // voter -> candidate
	abstain map[string]bool
}

func newVoteTally() *VoteTally {
	return &VoteTally{
		votes:   make(map[string][]string),
		voterTo: make(map[string]string),
		abstain: make(map[string]bool),
	}
}

// Cast records a vote, retracting any previous vote or abstention by the
// same voter. Returns the candidate the voter switched away from, if any.
func (t *VoteTally) Cast(voter, candidate string) (prev string) {
	prev = t.Retract(voter)
	t.voterTo[voter] = candidate
	t.votes[candidate] = append(t.votes[candidate], voter)
	return prev
}

// Abstain moves the voter into the abstain set, retracting any vote.
func (t *VoteTally) Abstain(voter string) {
	t.Retract(voter)
	t.abstain[voter] = true
}

// Retract clears the voter's vote or abstention. Returns the candidate they
// had voted for, or "".
func (t *VoteTally) Retract(voter string) (prev string) {
	delete(t.abstain, voter)
	cand, ok := t.voterTo[voter]
	if !ok {
		return ""
	}
	delete(t.voterTo, voter)
	t.votes[cand] = removeString(t.votes[cand], voter)
	if len(t.votes[cand]) == 0 {
		delete(t.votes, cand)
	}
	return cand
}

// VotersFor returns the ordered voter list for a candidate.
func (t *VoteTally) VotersFor(candidate string) []string {
	return t.votes[candidate]
}

// VoteOf returns the candidate the voter currently backs, or "".
func (t *VoteTally) VoteOf(voter string) string {
	return t.voterTo[voter]
}

// Candidates returns every candidate with at least one voter.
func (t *VoteTally) Candidates() []string {
	out := make([]string, 0, len(t.votes))
	for c := range t.votes {
		out = append(out, c)
	}
	return out
}

// Abstainers returns the abstain set.
func (t *VoteTally) Abstainers() []string {
	out := make([]string, 0, len(t.abstain))
	for v := range t.abstain {
		out = append(out, v)
	}
	return out
}

// RemovePlayer strips the player both as voter and as candidate, used when a
// player dies mid-day.
func (t *VoteTally) RemovePlayer(id string) {
	t.Retract(id)
	for _, voter := range t.votes[id] {
		delete(t.voterTo, voter)
	}
	delete(t.votes, id)
}
