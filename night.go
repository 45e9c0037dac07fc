package main

import (
	"sort"
	"strconv"
)

// beginNight opens a night phase: fresh ledger, pending statuses promoted to
// active, totems drawn, role prompts sent, and the night timer armed.
func (g *GameState) beginNight() {
	g.phase = PhaseNight
	g.phaseID++
	g.night++

	g.nightLedger = newActionLedger()
	g.tally = newVoteTally()

	g.silenced = g.pendingSilence
	g.pendingSilence = map[string]bool{}
	g.lucky = g.pendingLuck
	g.pendingLuck = map[string]bool{}
	g.diseased = g.pendingDisease
	g.pendingDisease = map[string]bool{}
	g.enraged = g.enragedPending
	g.enragedPending = false
	g.wolfSick = g.sickPending
	g.sickPending = false

	g.nightTotems = map[string]string{}
	g.totemHolders = map[string]string{}
	g.wounded = map[string]bool{}
	g.impatience = map[string]bool{}
	g.pacifism = map[string]bool{}
	g.influence = map[string]bool{}
	g.desperation = map[string]bool{}

	g.announce("Night " + strconv.Itoa(g.night) + " falls. The village sleeps, but some are restless...")

	g.drawTotems()
	g.sendWolfchat()
	for id := range g.silenced {
		g.tell(id, "A strange force grips you. You are silenced tonight and cannot use your powers.")
	}
	for ghost := range g.deadVengeful {
		g.tell(ghost, "Your spirit stirs. Choose someone to drag into the grave with you.")
	}

	g.scheduleForPhase(g.cfg.nightTimeout(), func(g *GameState) {
		g.announce("Dawn breaks before everyone has acted.")
		g.resolveNight()
	})
	g.maybeFinishNight()
}

// drawTotems deals each shaman a random totem for the night. The regular
// shaman draws from the benign set, the crazed shaman from the full set.
func (g *GameState) drawTotems() {
	for _, id := range g.reg.ListPlayers(RoleShaman) {
		if g.silenced[id] {
			continue
		}
		t := shamanTotems[g.rng.Intn(len(shamanTotems))]
		g.nightTotems[id] = t
		g.tell(id, "You have drawn the "+t+" totem tonight. Give it to a player.")
	}
	for _, id := range g.reg.ListPlayers(RoleCrazedShaman) {
		if g.silenced[id] {
			continue
		}
		t := allTotems[g.rng.Intn(len(allTotems))]
		g.nightTotems[id] = t
		g.tell(id, "You have drawn the "+t+" totem tonight. Give it to a player.")
	}
}

// sendWolfchat tells each wolf-chat member who their packmates are, in a
// randomized order so the listing leaks nothing about assignment order.
func (g *GameState) sendWolfchat() {
	pack := g.reg.ListByCap(CapWolfChat)
	if len(pack) == 0 {
		return
	}
	names := make([]string, 0, len(pack))
	for _, id := range pack {
		role, _ := g.reg.GetRole(id)
		names = append(names, g.nickOf(id)+" ("+role+")")
	}
	g.rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	listing := "Your pack: " + names[0]
	for _, n := range names[1:] {
		listing += ", " + n
	}
	for _, id := range pack {
		g.tell(id, listing)
		if g.enraged {
			g.tell(id, "The pack is enraged by the cub's death. Choose two victims tonight.")
		}
	}
}

// submitNightAction validates and records one night action. Validation fully
// precedes mutation: a rejected command leaves no trace in the ledger.
func (g *GameState) submitNightAction(id, kind string, targets ...string) error {
	if g.phase != PhaseNight {
		return errWrongPhase
	}
	p, ok := g.roster.Get(id)
	if !ok {
		return errUnknownPlayer
	}
	isGhost := g.deadVengeful[id]
	if !p.Alive && !isGhost {
		return errDeadPlayer
	}
	if g.silenced[id] {
		return errSilenced
	}
	if kind == ActPass {
		g.nightLedger.RecordIntent(id, ActPass)
		g.tell(id, "You rest for the night.")
		g.maybeFinishNight()
		return nil
	}

	var def RoleDef
	if isGhost {
		def = roleTable[RoleVengefulGhost]
	} else {
		def = g.reg.Def(id)
		if def.Name == RoleVengefulGhost {
			return errNotEligible // powerless while alive
		}
	}
	if def.NightAction != kind {
		return errNotEligible
	}
	if def.OncePerGame && g.usedOnce[id] {
		return errNotEligible
	}

	want := 1
	if kind == ActChoose {
		want = 2
	}
	if len(targets) != want {
		return errBadTarget
	}
	for _, t := range targets {
		tp, ok := g.roster.Get(t)
		if !ok || !tp.Alive {
			return errBadTarget
		}
	}
	if kind == ActChoose && targets[0] == targets[1] {
		return errBadTarget
	}
	if kind == ActGuard && targets[0] == id {
		return errBadTarget
	}
	if kind == ActKill {
		tdef := g.reg.Def(targets[0])
		if tdef.HasCap(CapWolfImmune) || tdef.HasCap(CapWolfAligned) {
			return errBadTarget
		}
	}

	prev := g.nightLedger.RecordIntent(id, kind, targets...)
	if len(prev) > 0 {
		g.tell(id, "You change your mind about "+g.nickOf(prev[0])+".")
	}

	switch kind {
	case ActKill:
		for _, w := range g.reg.ListByCap(CapWolfChat) {
			if w != id {
				g.tell(w, g.nickOf(id)+" wants to kill "+g.nickOf(targets[0])+".")
			}
		}
	case ActObserve:
		seen := g.seerVision(targets[0])
		g.tell(id, "Your vision is clear: "+g.nickOf(targets[0])+" is a "+seen+".")
	default:
		g.tell(id, "Action noted.")
	}

	g.maybeFinishNight()
	return nil
}

// submitNightRetract withdraws the actor's night submission, reopening their
// readiness slot. An explicit pass can be withdrawn the same way.
func (g *GameState) submitNightRetract(id string) error {
	if g.phase != PhaseNight {
		return errWrongPhase
	}
	p, ok := g.roster.Get(id)
	if !ok {
		return errUnknownPlayer
	}
	if !p.Alive && !g.deadVengeful[id] {
		return errDeadPlayer
	}
	var def RoleDef
	if g.deadVengeful[id] {
		def = roleTable[RoleVengefulGhost]
	} else {
		def = g.reg.Def(id)
	}
	retracted := g.nightLedger.RetractIntent(id, ActPass)
	if def.NightAction != "" && g.nightLedger.RetractIntent(id, def.NightAction) {
		retracted = true
	}
	if !retracted {
		return errBadTarget
	}
	g.tell(id, "Your action is withdrawn.")
	return nil
}

// seerVision is what an investigation reports. The cursed read as wolves,
// the traitor reads as a plain villager; everyone else shows their role.
func (g *GameState) seerVision(target string) string {
	def := g.reg.Def(target)
	if def.HasCap(CapNightKill) || g.reg.HasTemplate(target, TemplateCursed) {
		return RoleWolf
	}
	if def.HasCap(CapTraitor) {
		return RoleVillager
	}
	return def.Name
}

// resolveNight runs the full night pipeline: totem grants, matchmaking, the
// pack kill, independent kills, protection, chained deaths, then the win
// check before day breaks.
func (g *GameState) resolveNight() {
	if g.phase != PhaseNight {
		return
	}
	g.phaseID++ // night timer is now stale

	g.applyTotemGrants()
	g.applyMatches()

	victims := g.wolfVictims()
	if g.wolfSick && len(victims) > 0 {
		victims = nil
		g.announce("The pack, sick from its last meal, could not hunt tonight.")
	}

	var attacks []deathEvent
	for _, v := range victims {
		attacks = append(attacks, deathEvent{id: v, cause: "wolves"})
	}
	for actor, targets := range g.nightLedger.Intents(ActOtherKill) {
		for _, t := range targets {
			attacks = append(attacks, deathEvent{id: t, cause: "night"})
			if g.deadVengeful[actor] && g.reg.Def(t).HasCap(CapWolfAligned) {
				g.indivWin[actor] = true
			}
		}
		if !g.deadVengeful[actor] && g.reg.Def(actor).OncePerGame {
			g.usedOnce[actor] = true
		}
	}
	for holder, totem := range g.totemHolders {
		if totem == TotemDeath {
			attacks = append(attacks, deathEvent{id: holder, cause: "death totem"})
		}
	}

	deaths := g.resolveProtection(attacks)

	for _, d := range deaths {
		if d.cause == "wolves" && g.diseased[d.id] {
			g.sickPending = true
		}
	}

	events := g.killChain(deaths)
	if len(events) == 0 {
		g.announce("The sun rises. Nobody died in the night.")
	}
	for _, ev := range events {
		g.announce(g.deathLine(ev))
	}
	g.narrateMorning(events)

	if win := g.checkWinConditions(); win != nil {
		g.endGame(win)
		return
	}
	g.beginDay()
}

// applyTotemGrants moves each shaman's drawn totem onto their chosen target.
// Day totems populate this coming day's vote modifiers; silence, luck and
// disease take effect the following night.
func (g *GameState) applyTotemGrants() {
	for shaman, targets := range g.nightLedger.Intents(ActTotem) {
		totem, drawn := g.nightTotems[shaman]
		if !drawn || len(targets) == 0 {
			continue
		}
		t := targets[0]
		g.totemHolders[t] = totem
		switch totem {
		case TotemImpatience:
			g.impatience[t] = true
		case TotemPacifism:
			g.pacifism[t] = true
		case TotemInfluence:
			g.influence[t] = true
		case TotemDesperation:
			g.desperation[t] = true
		case TotemSilence:
			g.pendingSilence[t] = true
		case TotemLuck:
			g.pendingLuck[t] = true
		case TotemDisease:
			g.pendingDisease[t] = true
		}
		g.tell(t, "You found a strange totem under your pillow.")
	}
}

// applyMatches binds the matchmaker's chosen pair as lovers.
func (g *GameState) applyMatches() {
	for mm, targets := range g.nightLedger.Intents(ActChoose) {
		if len(targets) != 2 {
			continue
		}
		a, b := targets[0], targets[1]
		if g.lovers[a] == nil {
			g.lovers[a] = map[string]bool{}
		}
		if g.lovers[b] == nil {
			g.lovers[b] = map[string]bool{}
		}
		g.lovers[a][b] = true
		g.lovers[b][a] = true
		g.reg.AddTemplate(a, TemplateLover)
		g.reg.AddTemplate(b, TemplateLover)
		g.tell(a, "You have fallen hopelessly in love with "+g.nickOf(b)+".")
		g.tell(b, "You have fallen hopelessly in love with "+g.nickOf(a)+".")
		g.usedOnce[mm] = true
	}
}

// wolfVictims tallies the pack's kill votes and picks the top target, or the
// top two while enraged. Ties are broken uniformly at random.
func (g *GameState) wolfVictims() []string {
	counts := map[string]int{}
	for _, targets := range g.nightLedger.Intents(ActKill) {
		for _, t := range targets {
			counts[t]++
		}
	}
	want := 1
	if g.enraged {
		want = 2
	}
	var victims []string
	for len(victims) < want && len(counts) > 0 {
		best := -1
		var pool []string
		for t, c := range counts {
			switch {
			case c > best:
				best = c
				pool = []string{t}
			case c == best:
				pool = append(pool, t)
			}
		}
		sort.Strings(pool)
		pick := pool[g.rng.Intn(len(pool))]
		victims = append(victims, pick)
		delete(counts, pick)
	}
	return victims
}

// resolveProtection filters the night's attacks through every save effect
// and returns the deaths that actually happen. A bodyguard dies in place of
// whoever they guard; a guardian angel saves cleanly; the harlot is safe
// from the pack while away, but dies if she visits a wolf or a victim.
func (g *GameState) resolveProtection(attacks []deathEvent) []deathEvent {
	guardedBy := map[string][]string{}
	for actor, targets := range g.nightLedger.Intents(ActGuard) {
		for _, t := range targets {
			guardedBy[t] = append(guardedBy[t], actor)
		}
	}

	died := map[string]bool{}
	var deaths []deathEvent

	for _, atk := range attacks {
		id := atk.id
		if died[id] {
			continue
		}
		nick := g.nickOf(id)
		if g.totemHolders[id] == TotemProtection {
			g.announce(nick + " was attacked last night, but a totem's magic held firm.")
			continue
		}
		if g.lucky[id] {
			g.announce(nick + " was attacked last night but slipped away unharmed.")
			continue
		}
		if atk.cause == "wolves" && len(g.nightLedger.Intent(id, ActVisit)) > 0 {
			g.announce("The wolves broke into " + nick + "'s house and found it empty.")
			continue
		}
		saved := false
		for _, guard := range guardedBy[id] {
			if died[guard] {
				continue
			}
			role, _ := g.reg.GetRole(guard)
			if role == RoleGuardianAngel {
				saved = true
				break
			}
		}
		if saved {
			g.announce(nick + " was attacked last night, but their guardian kept watch.")
			continue
		}
		absorbed := false
		for _, guard := range guardedBy[id] {
			if died[guard] {
				continue
			}
			role, _ := g.reg.GetRole(guard)
			if role == RoleBodyguard {
				deaths = append(deaths, deathEvent{id: guard, cause: "bodyguard"})
				died[guard] = true
				absorbed = true
				break
			}
		}
		if absorbed {
			continue
		}
		deaths = append(deaths, atk)
		died[id] = true
	}

	// the harlot's visit can be fatal on its own
	for actor, targets := range g.nightLedger.Intents(ActVisit) {
		if died[actor] {
			continue
		}
		for _, t := range targets {
			if died[t] || g.reg.Def(t).HasCap(CapNightKill) {
				deaths = append(deaths, deathEvent{id: actor, cause: "harlot"})
				died[actor] = true
				break
			}
		}
	}

	// guarding a wolf is a coin flip with your life
	for actor, targets := range g.nightLedger.Intents(ActGuard) {
		if died[actor] {
			continue
		}
		role, _ := g.reg.GetRole(actor)
		if role != RoleBodyguard {
			continue
		}
		for _, t := range targets {
			if g.reg.Def(t).HasCap(CapWolfAligned) && g.rng.Intn(2) == 0 {
				deaths = append(deaths, deathEvent{id: actor, cause: "bodyguard"})
				died[actor] = true
				break
			}
		}
	}

	return deaths
}
