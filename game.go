package main

import (
	"crypto/rand"
	"log"
	"math/big"
	mrand "math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Phase is the game phase state machine. NONE and JOIN exist outside an
// active game; DAY and NIGHT alternate during play; ENDING guards the brief
// window where stats are being written.
type Phase int

const (
	PhaseNone Phase = iota
	PhaseJoin
	PhaseDay
	PhaseNight
	PhaseEnding
)

func (p Phase) String() string {
	switch p {
	case PhaseJoin:
		return "join"
	case PhaseDay:
		return "day"
	case PhaseNight:
		return "night"
	case PhaseEnding:
		return "ending"
	default:
		return "none"
	}
}

// deathEvent is one resolved death with its cause, used both for chained
// death triggers and for composing the public narrative.
type deathEvent struct {
	id    string
	cause string // "wolves", "lynch", "heartbreak", "assassin", ...
	role  string // primary role at time of death, filled in by killChain
}

// GameState is the single aggregate holding everything about the game in
// progress. One instance exists per game; external entry points (commands,
// timers) take the coarse lock, internal methods assume it is held.
type GameState struct {
	mu sync.Mutex

	transport Transport
	sched     Scheduler
	stats     *StatsStore // nil disables stats recording
	rng       *mrand.Rand
	cfg       AppConfig

	phase     Phase
	phaseID   int64 // monotonic token captured by timers
	night     int
	day       int
	mode      string
	startedAt time.Time

	roster    *Roster
	reg       *RoleRegistry
	joinOrder []string // player IDs in join order (mad scientist adjacency)

	nightLedger *ActionLedger
	dayLedger   *ActionLedger
	tally       *VoteTally

	// night-scoped transient status, rebuilt at each night start
	silenced     map[string]bool
	lucky        map[string]bool
	diseased     map[string]bool
	nightTotems  map[string]string // shaman ID -> totem drawn this night
	totemHolders map[string]string // target ID -> totem granted this night
	enraged      bool
	wolfSick     bool // pack ate a diseased victim, its kill fails tonight

	// day-scoped vote modifiers, populated by the previous night's totems
	wounded     map[string]bool
	impatience  map[string]bool
	pacifism    map[string]bool
	influence   map[string]bool
	desperation map[string]bool

	// pending statuses applied at the next night start
	pendingSilence map[string]bool
	pendingLuck    map[string]bool
	pendingDisease map[string]bool
	enragedPending bool
	sickPending    bool

	hurried bool // vote deadline invoked, plurality decides

	// cross-phase bookkeeping
	usedOnce       map[string]bool // once-per-game night actions consumed
	mayorRevealed  map[string]bool
	assassinTarget map[string]string
	lovers         map[string]map[string]bool
	deadVengeful   map[string]bool // vengeful ghosts acting from the grave
	indivWin       map[string]bool

	storyteller Storyteller
}

func newGame(cfg AppConfig, tr Transport, sched Scheduler, stats *StatsStore) *GameState {
	g := &GameState{
		transport: tr,
		sched:     sched,
		stats:     stats,
		cfg:       cfg,
		rng:       mrand.New(mrand.NewSource(time.Now().UnixNano())),
		mode:      "default",
	}
	g.reset()
	return g
}

// reset tears the game down to PhaseNone with fresh collections. Bumping the
// phase token here invalidates every timer scheduled for the old game.
func (g *GameState) reset() {
	g.phase = PhaseNone
	g.phaseID++
	g.night = 0
	g.day = 0
	g.roster = newRoster()
	g.reg = newRoleRegistry()
	g.joinOrder = nil
	g.nightLedger = newActionLedger()
	g.dayLedger = newActionLedger()
	g.tally = newVoteTally()
	g.silenced = map[string]bool{}
	g.lucky = map[string]bool{}
	g.diseased = map[string]bool{}
	g.nightTotems = map[string]string{}
	g.totemHolders = map[string]string{}
	g.enraged = false
	g.wolfSick = false
	g.sickPending = false
	g.wounded = map[string]bool{}
	g.impatience = map[string]bool{}
	g.pacifism = map[string]bool{}
	g.influence = map[string]bool{}
	g.desperation = map[string]bool{}
	g.hurried = false
	g.pendingSilence = map[string]bool{}
	g.pendingLuck = map[string]bool{}
	g.pendingDisease = map[string]bool{}
	g.enragedPending = false
	g.usedOnce = map[string]bool{}
	g.mayorRevealed = map[string]bool{}
	g.assassinTarget = map[string]string{}
	g.lovers = map[string]map[string]bool{}
	g.deadVengeful = map[string]bool{}
	g.indivWin = map[string]bool{}
}

// scheduleForPhase schedules fn against the current phase token. If the
// phase has moved on by the time the timer fires, the callback is a no-op.
func (g *GameState) scheduleForPhase(d time.Duration, fn func(*GameState)) CancelHandle {
	token := g.phaseID
	return g.sched.Schedule(d, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.phaseID != token {
			DebugLog("timer fired for stale phase token %d (now %d), ignoring", token, g.phaseID)
			return
		}
		fn(g)
	})
}

// announce sends a public channel message.
func (g *GameState) announce(text string) {
	LogGameEvent("CHANNEL", text)
	g.transport.SendChannel(text)
}

// tell sends a private message to one player, addressed by account.
func (g *GameState) tell(id, text string) {
	p, ok := g.roster.Get(id)
	if !ok {
		return
	}
	LogGameEvent("PRIVATE to "+p.Nick, text)
	g.transport.SendPrivate(p.Account, text)
}

// nickOf resolves an ID for messages; dead or departed players keep their
// last known nick.
func (g *GameState) nickOf(id string) string {
	if p, ok := g.roster.Get(id); ok {
		return p.Nick
	}
	return "someone"
}

// submitJoin adds a player to the lobby, opening it if no game exists.
func (g *GameState) submitJoin(account, nick string) error {
	switch g.phase {
	case PhaseNone:
		g.phase = PhaseJoin
		g.phaseID++
		log.Printf("Lobby opened by %s", nick)
	case PhaseJoin:
	default:
		return errWrongPhase
	}
	p, err := g.roster.Add(account, nick)
	if err != nil {
		return err
	}
	g.joinOrder = append(g.joinOrder, p.ID)
	g.announce(nick + " has joined the game. Players: " + strconv.Itoa(len(g.joinOrder)))
	return nil
}

// submitLeave removes a player. In the lobby they vanish entirely; during a
// game leaving is death, with all the usual chained consequences.
func (g *GameState) submitLeave(id string) error {
	p, ok := g.roster.Get(id)
	if !ok {
		return errUnknownPlayer
	}
	switch g.phase {
	case PhaseJoin:
		g.joinOrder = removeString(g.joinOrder, id)
		g.roster.Remove(id)
		g.announce(p.Nick + " has left the game. Players: " + strconv.Itoa(len(g.joinOrder)))
		if len(g.joinOrder) == 0 {
			g.phase = PhaseNone
			g.phaseID++
		}
		return nil
	case PhaseDay, PhaseNight:
		p.Disconnected = true
		deaths := g.killChain([]deathEvent{{id: id, cause: "desertion"}})
		for _, ev := range deaths {
			g.announce(g.deathLine(ev))
		}
		if win := g.checkWinConditions(); win != nil {
			g.endGame(win)
			return nil
		}
		// the departure may have been the last thing the phase was waiting on
		switch g.phase {
		case PhaseNight:
			g.maybeFinishNight()
		case PhaseDay:
			g.checkDecision()
		}
		return nil
	default:
		return errWrongPhase
	}
}

// startGame assigns roles per the role guide and opens the first night.
func (g *GameState) startGame() error {
	if g.phase != PhaseJoin {
		return errWrongPhase
	}
	n := len(g.joinOrder)
	roles, templates, err := roleGuide(g.mode, n)
	if err != nil {
		return err
	}

	pool := make([]string, 0, n)
	for _, role := range sortedKeys(roles) {
		for i := 0; i < roles[role]; i++ {
			pool = append(pool, role)
		}
	}
	shuffleStrings(pool)
	for i, id := range g.joinOrder {
		if err := g.reg.AssignRole(id, pool[i]); err != nil {
			log.Printf("startGame: assign %s to %s: %v", pool[i], g.nickOf(id), err)
		}
	}
	g.assignTemplates(templates)
	for _, id := range g.joinOrder {
		g.reg.SnapshotOriginal(id)
	}

	g.startedAt = time.Now()
	log.Printf("Game started: mode=%s players=%d", g.mode, n)
	g.announce("The game has begun with " + strconv.Itoa(n) + " players. Night falls over the village...")
	for _, id := range g.joinOrder {
		def := g.reg.Def(id)
		g.tell(id, "You are a "+def.Name+". "+def.Description)
	}
	g.beginNight()
	return nil
}

// assignTemplates stacks each requested template on a random eligible
// player. Cursed and gunner never land on a wolf-aligned player.
func (g *GameState) assignTemplates(templates map[string]int) {
	for _, tmpl := range sortedKeys(templates) {
		for i := 0; i < templates[tmpl]; i++ {
			var eligible []string
			for _, id := range g.joinOrder {
				if g.reg.HasTemplate(id, tmpl) {
					continue
				}
				def := g.reg.Def(id)
				if (tmpl == TemplateCursed || tmpl == TemplateGunner) && def.HasCap(CapWolfAligned) {
					continue
				}
				if tmpl == TemplateCursed && def.Name == RoleSeer {
					continue
				}
				eligible = append(eligible, id)
			}
			if len(eligible) == 0 {
				log.Printf("assignTemplates: nobody eligible for %q", tmpl)
				continue
			}
			id := eligible[g.rng.Intn(len(eligible))]
			g.reg.AddTemplate(id, tmpl)
			switch tmpl {
			case TemplateGunner:
				if p, ok := g.roster.Get(id); ok {
					p.Bullets = 2
				}
				g.tell(id, "You hold a gun with 2 bullets. Shoot wisely during the day.")
			case TemplateAssassin:
				g.pickAssassinTarget(id)
			default:
				g.tell(id, "You are also: "+tmpl+".")
			}
		}
	}
}

// pickAssassinTarget binds a random other player as the assassin's stored
// target; the target dies if the assassin does.
func (g *GameState) pickAssassinTarget(id string) {
	var others []string
	for _, other := range g.joinOrder {
		if other != id {
			others = append(others, other)
		}
	}
	if len(others) == 0 {
		return
	}
	target := others[g.rng.Intn(len(others))]
	g.assassinTarget[id] = target
	g.tell(id, "Your target is "+g.nickOf(target)+". If you die, they die with you.")
}

// stopGame force-stops the game with no winner.
func (g *GameState) stopGame() {
	if g.phase == PhaseNone {
		return
	}
	log.Printf("Game force-stopped in phase %s", g.phase)
	g.announce("The game has been stopped. No winners.")
	g.phase = PhaseEnding
	g.phaseID++
	g.reset()
}

// endGame announces the winner, reveals roles, reports stats, and resets.
// Stats failures are logged but never block the teardown.
func (g *GameState) endGame(win *WinResult) {
	g.phase = PhaseEnding
	g.phaseID++
	g.announce(win.Message)
	g.announce(g.revealAllLine())

	g.finishIndividualWins(win)
	if g.stats != nil {
		if err := g.recordStats(win); err != nil {
			log.Printf("endGame: stats write failed: %v", err)
		}
	}
	log.Printf("Game over: winner=%s night=%d day=%d", win.Team, g.night, g.day)
	g.reset()
}

// finishIndividualWins sets the end-of-game individual win flags that can
// only be known once the team outcome is fixed.
func (g *GameState) finishIndividualWins(win *WinResult) {
	for _, id := range g.reg.ListPlayers(RoleMonster) {
		g.indivWin[id] = true // monster survived to the end
	}
	for id, partners := range g.lovers {
		p, ok := g.roster.Get(id)
		if !ok || !p.Alive {
			continue
		}
		for partner := range partners {
			if pp, ok := g.roster.Get(partner); ok && pp.Alive {
				g.indivWin[id] = true
				g.indivWin[partner] = true
			}
		}
	}
	_ = win
}

// recordStats writes the per-game and per-player records.
func (g *GameState) recordStats(win *WinResult) error {
	rec := GameRecord{
		Mode:        g.mode,
		Size:        len(g.joinOrder),
		StartedAt:   g.startedAt,
		EndedAt:     time.Now(),
		WinningTeam: win.Team,
	}
	var players []PlayerRecord
	for _, id := range g.joinOrder {
		p, ok := g.roster.Get(id)
		if !ok {
			continue
		}
		orig, ok := g.reg.Original(id)
		if !ok {
			continue
		}
		finalRole := orig.DiedAs
		if cur, err := g.reg.GetRole(id); err == nil {
			finalRole = cur
		}
		players = append(players, PlayerRecord{
			Account:       p.Account,
			FinalRole:     finalRole,
			AllRoles:      append(append([]string{}, orig.AllRoles...), orig.Templates...),
			TeamWin:       teamWinsFor(win, finalRole),
			IndividualWin: g.indivWin[id],
			Disconnected:  p.Disconnected,
		})
	}
	return g.stats.RecordGame(rec, players)
}

// teamWinsFor maps a player's final role onto the winning team.
func teamWinsFor(win *WinResult, role string) bool {
	def, ok := roleTable[role]
	if !ok {
		return false
	}
	switch win.Team {
	case "wolves":
		return def.Team == TeamWolf
	case "village":
		return def.Team == TeamVillage
	default:
		return false
	}
}

// removePlayer marks a player dead and drops them from every collection
// that only holds the living. Idempotent: a second call in the same pass
// reports false and changes nothing, so re-killing an already-dead player
// never double-counts in the narrative or the win evaluation.
func (g *GameState) removePlayer(id string) (diedAs string, ok bool) {
	p, found := g.roster.Get(id)
	if !found || !p.Alive {
		return "", false
	}
	diedAs, _ = g.reg.GetRole(id)
	p.Alive = false
	g.reg.RemovePlayer(id)
	g.tally.RemovePlayer(id)
	g.nightLedger.DropActor(id)
	g.dayLedger.DropActor(id)
	return diedAs, true
}

// killChain applies a set of deaths plus every chained secondary death
// (assassin targets, mad scientist neighbors, lover heartbreak, wolf cub
// rage) and returns the full ordered death list for narrative composition.
func (g *GameState) killChain(initial []deathEvent) []deathEvent {
	var result []deathEvent
	queue := append([]deathEvent{}, initial...)
	for len(queue) > 0 {
		ev := queue[0]
		queue = queue[1:]

		hadAssassin := g.reg.HasTemplate(ev.id, TemplateAssassin)
		diedAs, ok := g.removePlayer(ev.id)
		if !ok {
			continue
		}
		ev.role = diedAs
		result = append(result, ev)

		if hadAssassin {
			if target, bound := g.assassinTarget[ev.id]; bound {
				queue = append(queue, deathEvent{id: target, cause: "assassin"})
			}
		}
		switch diedAs {
		case RoleMadScientist:
			for _, n := range g.madScientistNeighbors(ev.id) {
				queue = append(queue, deathEvent{id: n, cause: "mad scientist"})
			}
		case RoleWolfCub:
			g.enragedPending = true
		case RoleVengefulGhost:
			g.deadVengeful[ev.id] = true
		}
		for partner := range g.lovers[ev.id] {
			queue = append(queue, deathEvent{id: partner, cause: "heartbreak"})
		}
	}
	return result
}

// madScientistNeighbors walks the join order left and right from the dead
// scientist, skipping already-dead players. The scientist is never selected
// and in small games both walks can land on the same survivor, in which
// case only one death results.
func (g *GameState) madScientistNeighbors(id string) []string {
	idx := -1
	for i, pid := range g.joinOrder {
		if pid == id {
			idx = i
			break
		}
	}
	if idx < 0 || len(g.joinOrder) < 2 {
		return nil
	}
	alive := func(pid string) bool {
		p, ok := g.roster.Get(pid)
		return ok && p.Alive && pid != id
	}
	n := len(g.joinOrder)
	var left, right string
	for step := 1; step < n; step++ {
		pid := g.joinOrder[((idx-step)%n+n)%n]
		if alive(pid) {
			left = pid
			break
		}
	}
	for step := 1; step < n; step++ {
		pid := g.joinOrder[(idx+step)%n]
		if alive(pid) {
			right = pid
			break
		}
	}
	var out []string
	if left != "" {
		out = append(out, left)
	}
	if right != "" && right != left {
		out = append(out, right)
	}
	return out
}

// deathLine renders one public narrative line for a death. Role reveal is
// gated by the reveal setting.
func (g *GameState) deathLine(ev deathEvent) string {
	nick := g.nickOf(ev.id)
	who := nick
	if g.cfg.RevealRoles {
		who = nick + ", a " + ev.role + ","
	}
	switch ev.cause {
	case "wolves":
		return "The village wakes to find " + who + " torn apart by wolves."
	case "night":
		return who + " was found dead in the morning, cause unknown."
	case "lynch":
		return "The village has lynched " + who + "."
	case "heartbreak":
		return who + " died of a broken heart."
	case "assassin":
		return who + " was found dead, a dagger in their back."
	case "mad scientist":
		return who + " was caught in a cloud of deadly toxin."
	case "death totem":
		return who + " was found dead, clutching a strange totem."
	case "bodyguard":
		return who + " died defending their charge."
	case "harlot":
		return who + " made the wrong visit last night."
	case "desertion":
		return who + " has abandoned the village and was found dead at its gates."
	case "gunner":
		return who + " was shot dead in the town square."
	case "desperation":
		return who + " was dragged down with the lynched."
	default:
		return who + " has died."
	}
}

// revealAllLine lists everyone's original role for the game-over summary.
func (g *GameState) revealAllLine() string {
	parts := make([]string, 0, len(g.joinOrder))
	for _, id := range g.joinOrder {
		orig, ok := g.reg.Original(id)
		if !ok {
			continue
		}
		role := orig.Role
		if cur, err := g.reg.GetRole(id); err == nil && cur != orig.Role {
			role = orig.Role + " -> " + cur
		} else if orig.Dead && orig.DiedAs != orig.Role {
			role = orig.Role + " -> " + orig.DiedAs
		}
		parts = append(parts, g.nickOf(id)+" ("+role+")")
	}
	return "Roles: " + strings.Join(parts, ", ")
}

// livingPlayers returns IDs of everyone still alive, in join order.
func (g *GameState) livingPlayers() []string {
	var out []string
	for _, id := range g.joinOrder {
		if p, ok := g.roster.Get(id); ok && p.Alive {
			out = append(out, id)
		}
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// shuffleStrings shuffles the role pool using crypto/rand, so role
// assignment stays unpredictable even with a seeded game RNG.
func shuffleStrings(s []string) {
	for i := len(s) - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			s[i], s[i-1] = s[i-1], s[i]
			continue
		}
		j := int(jBig.Int64())
		s[i], s[j] = s[j], s[i]
	}
}

