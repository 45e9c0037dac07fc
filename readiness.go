package main

// nightActorsExpected returns the players whose submission the night is
// waiting on: living holders of a mandatory night action, minus the silenced
// and those whose once-per-game power is spent, plus dead vengeful ghosts.
// Optional actors (seer, harlot, hunter) never hold the night open.
func (g *GameState) nightActorsExpected() []string {
	var out []string
	for _, id := range g.livingPlayers() {
		def := g.reg.Def(id)
		if def.NightAction == "" || def.ActionOptional {
			continue
		}
		if g.silenced[id] {
			continue
		}
		if def.OncePerGame && g.usedOnce[id] {
			continue
		}
		out = append(out, id)
	}
	for ghost := range g.deadVengeful {
		out = append(out, ghost)
	}
	return out
}

// checkNightDone reports whether every expected actor has submitted (an
// explicit pass counts) and the pack agrees on its victims. Called after
// every night submission so the night ends the moment the last actor acts.
func (g *GameState) checkNightDone() bool {
	if g.phase != PhaseNight {
		return false
	}
	for _, id := range g.nightActorsExpected() {
		if !g.nightLedger.HasActed(id) {
			return false
		}
	}
	return g.wolvesAgree()
}

// wolvesAgree reports whether the pack's kill votes name at most one victim,
// or two while enraged. A killer who explicitly passed sits the vote out; a
// killer with no submission at all blocks readiness.
func (g *GameState) wolvesAgree() bool {
	targetSet := make(map[string]bool)
	for _, w := range g.reg.ListByCap(CapNightKill) {
		if g.silenced[w] {
			continue
		}
		targets := g.nightLedger.Intent(w, ActKill)
		if targets == nil {
			if !g.nightLedger.HasActed(w) {
				return false
			}
			continue
		}
		for _, t := range targets {
			targetSet[t] = true
		}
	}
	limit := 1
	if g.enraged {
		limit = 2
	}
	return len(targetSet) <= limit
}

// maybeFinishNight resolves the night early once everyone is ready.
func (g *GameState) maybeFinishNight() {
	if g.checkNightDone() {
		g.resolveNight()
	}
}
