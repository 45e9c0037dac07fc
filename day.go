package main

import (
	"sort"
	"strconv"
	"strings"
)

// beginDay opens a day phase with a fresh ballot box and arms the deadline
// timer. The vote modifiers granted by last night's totems are already in
// place when the first vote arrives.
func (g *GameState) beginDay() {
	g.phase = PhaseDay
	g.phaseID++
	g.day++
	g.dayLedger = newActionLedger()
	g.tally = newVoteTally()
	g.hurried = false

	alive := g.livingPlayers()
	names := make([]string, 0, len(alive))
	for _, id := range alive {
		names = append(names, g.nickOf(id))
	}
	g.announce("Day " + strconv.Itoa(g.day) + " begins. Alive: " + strings.Join(names, ", "))
	g.announce("Votes needed to lynch: " + strconv.Itoa(g.lynchThreshold()))

	g.scheduleForPhase(g.cfg.dayTimeout(), func(g *GameState) {
		g.hurryUp()
	})
	g.checkDecision()
}

// availableVoters is everyone whose vote can count today: alive and not
// wounded. Silence only suppresses night powers, never the day vote.
func (g *GameState) availableVoters() []string {
	var out []string
	for _, id := range g.livingPlayers() {
		if !g.wounded[id] {
			out = append(out, id)
		}
	}
	return out
}

// lynchThreshold is a strict majority of the available voters.
func (g *GameState) lynchThreshold() int {
	return len(g.availableVoters())/2 + 1
}

// voteWeight is a voter's contribution to any tally. Pacifism zeroes the
// vote and beats every amplifier; influence and the bureaucrat double it
// without stacking with each other.
func (g *GameState) voteWeight(voter string) int {
	if g.pacifism[voter] {
		return 0
	}
	if g.influence[voter] || g.reg.HasTemplate(voter, TemplateBureaucrat) {
		return 2
	}
	return 1
}

// weightedTotal sums a candidate's explicit votes plus the phantom votes of
// impatient players. An impatience holder who has not voted counts against
// every candidate but themselves; an explicit vote or abstention overrides
// the phantom, and pacifism cancels it entirely.
func (g *GameState) weightedTotal(candidate string) int {
	total := 0
	for _, voter := range g.tally.VotersFor(candidate) {
		total += g.voteWeight(voter)
	}
	for holder := range g.impatience {
		if holder == candidate {
			continue
		}
		p, ok := g.roster.Get(holder)
		if !ok || !p.Alive || g.wounded[holder] {
			continue
		}
		if g.tally.VoteOf(holder) != "" {
			continue
		}
		if containsString(g.tally.Abstainers(), holder) {
			continue
		}
		total += g.voteWeight(holder)
	}
	return total
}

// submitVote records a lynch vote and re-evaluates the tally.
func (g *GameState) submitVote(voter, target string) error {
	if err := g.validateDayActor(voter); err != nil {
		return err
	}
	tp, ok := g.roster.Get(target)
	if !ok || !tp.Alive {
		return errBadTarget
	}
	prev := g.tally.Cast(voter, target)
	if prev != "" && prev != target {
		g.announce(g.nickOf(voter) + " moves their vote from " + g.nickOf(prev) + " to " + g.nickOf(target) + ".")
	} else {
		g.announce(g.nickOf(voter) + " votes to lynch " + g.nickOf(target) + ".")
	}
	g.checkDecision()
	return nil
}

// submitAbstain moves the voter into the abstain camp.
func (g *GameState) submitAbstain(voter string) error {
	if err := g.validateDayActor(voter); err != nil {
		return err
	}
	g.tally.Abstain(voter)
	g.announce(g.nickOf(voter) + " abstains.")
	g.checkDecision()
	return nil
}

// submitRetract withdraws the voter's vote or abstention.
func (g *GameState) submitRetract(voter string) error {
	if err := g.validateDayActor(voter); err != nil {
		return err
	}
	prev := g.tally.Retract(voter)
	if prev != "" {
		g.announce(g.nickOf(voter) + " retracts their vote against " + g.nickOf(prev) + ".")
	}
	return nil
}

func (g *GameState) validateDayActor(id string) error {
	if g.phase != PhaseDay {
		return errWrongPhase
	}
	p, ok := g.roster.Get(id)
	if !ok {
		return errUnknownPlayer
	}
	if !p.Alive {
		return errDeadPlayer
	}
	if g.wounded[id] {
		return errNotEligible
	}
	return nil
}

// checkDecision evaluates the ballot after every change. Under normal rules
// a candidate needs a strict majority; once hurried, plurality decides when
// the deadline lands. A majority of abstentions ends the day with no lynch.
func (g *GameState) checkDecision() {
	if g.phase != PhaseDay {
		return
	}
	threshold := g.lynchThreshold()

	// impatience phantom votes can push anyone over, so scan every living
	// player rather than only explicit candidates
	if len(g.tally.Candidates()) > 0 || len(g.impatience) > 0 {
		for _, c := range g.livingPlayers() {
			if g.weightedTotal(c) >= threshold {
				g.attemptLynch(c)
				return
			}
		}
	}

	abstainWeight := 0
	for _, v := range g.tally.Abstainers() {
		abstainWeight += g.voteWeight(v)
	}
	if abstainWeight >= threshold {
		g.announce("The village agrees to lynch no one today.")
		g.beginNight()
	}
}

// attemptLynch runs the interrupt chain in fixed order: a hidden mayor
// reveal cancels the lynch, then the revealing totem, then the fool's
// stolen win, then desperation's extra death, then the lynch itself.
func (g *GameState) attemptLynch(target string) {
	nick := g.nickOf(target)

	if g.reg.HasTemplate(target, TemplateMayor) && !g.mayorRevealed[target] {
		g.mayorRevealed[target] = true
		g.tally = newVoteTally()
		g.announce(nick + " produces the mayor's seal! The village cannot lynch its own mayor. The vote is annulled.")
		return
	}

	if g.totemHolders[target] == TotemRevealing {
		role, _ := g.reg.GetRole(target)
		delete(g.totemHolders, target)
		g.tally = newVoteTally()
		g.announce("As the noose tightens, " + nick + "'s totem flares, revealing them as a " + role + "! The lynch is canceled.")
		return
	}

	if role, _ := g.reg.GetRole(target); role == RoleFool {
		g.indivWin[target] = true
		g.endGame(&WinResult{
			Team:    "fool",
			Message: nick + " was the fool all along, and dances on the gallows. The fool wins alone!",
		})
		return
	}

	deaths := []deathEvent{{id: target, cause: "lynch"}}
	if g.desperation[target] {
		voters := g.tally.VotersFor(target)
		if len(voters) > 0 {
			deaths = append(deaths, deathEvent{id: voters[len(voters)-1], cause: "desperation"})
		}
	}

	if role, _ := g.reg.GetRole(target); role == RoleJester {
		g.indivWin[target] = true
		g.tell(target, "Lynched, exactly as planned. You win, whatever happens next.")
	}

	events := g.killChain(deaths)
	for _, ev := range events {
		g.announce(g.deathLine(ev))
	}

	if win := g.checkWinConditions(); win != nil {
		g.endGame(win)
		return
	}
	g.beginNight()
}

// hurryUp is the impatience valve: invoked by the day timer or by player
// demand. It announces twilight, switches to plurality rules, and forces a
// resolution after the grace period.
func (g *GameState) hurryUp() {
	if g.phase != PhaseDay || g.hurried {
		return
	}
	g.hurried = true
	g.announce("The sun is setting. The votes as they stand will decide.")
	g.scheduleForPhase(g.cfg.hurryTimeout(), func(g *GameState) {
		g.forceDecision()
	})
}

// forceDecision lynches the plurality leader, or nobody on a tie or an
// empty ballot.
func (g *GameState) forceDecision() {
	if g.phase != PhaseDay {
		return
	}
	best := 0
	var pool []string
	for _, c := range g.livingPlayers() {
		total := g.weightedTotal(c)
		switch {
		case total > best:
			best = total
			pool = []string{c}
		case total == best && total > 0:
			pool = append(pool, c)
		}
	}
	if best == 0 || len(pool) != 1 {
		g.announce("Night falls with no decision. Nobody is lynched.")
		g.beginNight()
		return
	}
	sort.Strings(pool)
	g.attemptLynch(pool[0])
}

// submitShoot fires one of the gunner's bullets in broad daylight. A
// wolf-aligned target drops dead; anyone else is wounded and sits out the
// rest of the vote.
func (g *GameState) submitShoot(shooter, target string) error {
	if err := g.validateDayActor(shooter); err != nil {
		return err
	}
	p, _ := g.roster.Get(shooter)
	if !g.reg.HasTemplate(shooter, TemplateGunner) || p.Bullets <= 0 {
		return errNotEligible
	}
	if g.dayLedger.Intent(shooter, ActShoot) != nil {
		return errNotEligible // one shot per day
	}
	tp, ok := g.roster.Get(target)
	if !ok || !tp.Alive || target == shooter {
		return errBadTarget
	}
	p.Bullets--
	g.dayLedger.RecordIntent(shooter, ActShoot, target)
	g.announce(g.nickOf(shooter) + " pulls out a gun and shoots " + g.nickOf(target) + "!")

	if g.reg.Def(target).HasCap(CapWolfAligned) {
		events := g.killChain([]deathEvent{{id: target, cause: "gunner"}})
		for _, ev := range events {
			g.announce(g.deathLine(ev))
		}
		if win := g.checkWinConditions(); win != nil {
			g.endGame(win)
			return nil
		}
	} else {
		g.wounded[target] = true
		g.tally.Retract(target)
		g.announce(g.nickOf(target) + " collapses, wounded, and can take no further part today.")
	}
	g.checkDecision()
	return nil
}
