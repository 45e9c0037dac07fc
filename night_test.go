package main

import "testing"

func TestWolfKillResolvesToDeath(t *testing.T) {
	g, tr, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
	})
	g.beginNight()
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if isAlive(g, ids["v1"]) {
		t.Fatal("v1 should be dead")
	}
	if !tr.channelContains("torn apart by wolves") {
		t.Fatalf("missing kill narrative, channel = %v", tr.channel)
	}
	if g.phase != PhaseDay {
		t.Fatalf("phase = %s, want day", g.phase)
	}
}

func TestProtectionTotemSavesVictim(t *testing.T) {
	g, tr, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "shaman": RoleShaman, "v1": RoleVillager, "v2": RoleVillager,
	})
	g.beginNight()
	g.nightTotems[ids["shaman"]] = TotemProtection
	mustAct(t, g, ids["shaman"], ActTotem, ids["v1"])
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if !isAlive(g, ids["v1"]) {
		t.Fatal("protected v1 should survive")
	}
	if !tr.channelContains("totem's magic held firm") {
		t.Fatalf("missing save narrative, channel = %v", tr.channel)
	}
	if !tr.channelContains("Nobody died") {
		t.Fatal("expected a no-deaths morning")
	}
}

func TestDeathTotemKills(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "shaman": RoleCrazedShaman,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager, "v4": RoleVillager,
	})
	g.beginNight()
	g.nightTotems[ids["shaman"]] = TotemDeath
	mustAct(t, g, ids["shaman"], ActTotem, ids["v1"])
	mustAct(t, g, ids["wolf"], ActKill, ids["v2"])

	if isAlive(g, ids["v1"]) {
		t.Fatal("death totem holder should die")
	}
	if isAlive(g, ids["v2"]) {
		t.Fatal("wolf victim should die")
	}
}

func TestBodyguardDiesInVictimsPlace(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "guard": RoleBodyguard,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
	})
	g.beginNight()
	mustAct(t, g, ids["guard"], ActGuard, ids["v1"])
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if !isAlive(g, ids["v1"]) {
		t.Fatal("guarded victim should survive")
	}
	if isAlive(g, ids["guard"]) {
		t.Fatal("bodyguard should die in their place")
	}
}

func TestGuardianAngelSavesCleanly(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "angel": RoleGuardianAngel,
		"v1": RoleVillager, "v2": RoleVillager,
	})
	g.beginNight()
	mustAct(t, g, ids["angel"], ActGuard, ids["v1"])
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if !isAlive(g, ids["v1"]) {
		t.Fatal("guarded victim should survive")
	}
	if !isAlive(g, ids["angel"]) {
		t.Fatal("guardian angel pays no price")
	}
}

func TestHarlotIsAwayWhenWolvesCall(t *testing.T) {
	g, tr, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "harlot": RoleHarlot, "v1": RoleVillager, "v2": RoleVillager,
	})
	g.beginNight()
	mustAct(t, g, ids["harlot"], ActVisit, ids["v1"])
	mustAct(t, g, ids["wolf"], ActKill, ids["harlot"])

	if !isAlive(g, ids["harlot"]) {
		t.Fatal("visiting harlot should not be home")
	}
	if !tr.channelContains("found it empty") {
		t.Fatalf("missing empty-house narrative, channel = %v", tr.channel)
	}
}

func TestHarlotDiesVisitingTheWolf(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "harlot": RoleHarlot,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
	})
	g.beginNight()
	mustAct(t, g, ids["harlot"], ActVisit, ids["wolf"])
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if isAlive(g, ids["harlot"]) {
		t.Fatal("harlot who visits a wolf dies")
	}
}

func TestSeerVision(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"seer": RoleSeer, "wolf": RoleWolf, "traitor": RoleTraitor,
		"v1": RoleVillager, "v2": RoleVillager,
	})
	g.reg.AddTemplate(ids["v1"], TemplateCursed)

	if got := g.seerVision(ids["wolf"]); got != RoleWolf {
		t.Fatalf("wolf seen as %q", got)
	}
	if got := g.seerVision(ids["v1"]); got != RoleWolf {
		t.Fatalf("cursed villager seen as %q, want wolf", got)
	}
	if got := g.seerVision(ids["traitor"]); got != RoleVillager {
		t.Fatalf("traitor seen as %q, want villager", got)
	}
	if got := g.seerVision(ids["v2"]); got != RoleVillager {
		t.Fatalf("villager seen as %q", got)
	}
}

func TestMatchmakerLoversDieTogether(t *testing.T) {
	g, tr, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "mm": RoleMatchmaker,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager, "v4": RoleVillager,
	})
	g.beginNight()
	mustAct(t, g, ids["mm"], ActChoose, ids["v1"], ids["v2"])
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if isAlive(g, ids["v1"]) || isAlive(g, ids["v2"]) {
		t.Fatal("both lovers should be dead")
	}
	if !tr.channelContains("broken heart") {
		t.Fatalf("missing heartbreak narrative, channel = %v", tr.channel)
	}
	if !g.usedOnce[ids["mm"]] {
		t.Fatal("matchmaker power should be spent")
	}
}

func TestMadScientistTakesNeighbors(t *testing.T) {
	// join order is a, b, c, d, e; the scientist sits at b
	g, _, _, ids := buildGame(t, map[string]string{
		"a": RoleVillager, "b": RoleMadScientist, "c": RoleVillager,
		"d": RoleWolf, "e": RoleVillager,
	})
	g.beginNight()
	events := g.killChain([]deathEvent{{id: ids["b"], cause: "lynch"}})

	if len(events) != 3 {
		t.Fatalf("deaths = %d, want scientist plus both neighbors", len(events))
	}
	if isAlive(g, ids["a"]) || isAlive(g, ids["c"]) {
		t.Fatal("both adjacent players should die")
	}
	if !isAlive(g, ids["d"]) || !isAlive(g, ids["e"]) {
		t.Fatal("non-adjacent players should live")
	}
}

func TestMadScientistSkipsDeadNeighbors(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"a": RoleVillager, "b": RoleMadScientist, "c": RoleVillager,
		"d": RoleWolf, "e": RoleVillager,
	})
	g.beginNight()
	g.killChain([]deathEvent{{id: ids["c"], cause: "lynch"}})
	g.killChain([]deathEvent{{id: ids["b"], cause: "lynch"}})

	if isAlive(g, ids["a"]) {
		t.Fatal("left neighbor a should die")
	}
	if isAlive(g, ids["d"]) {
		t.Fatal("walk should skip dead c and land on d")
	}
	if !isAlive(g, ids["e"]) {
		t.Fatal("e should live")
	}
}

func TestVengefulGhostKillsFromTheGrave(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "ghost": RoleVengefulGhost,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
	})
	g.beginNight()
	g.killChain([]deathEvent{{id: ids["ghost"], cause: "wolves"}})
	if !g.deadVengeful[ids["ghost"]] {
		t.Fatal("dead ghost should join the night roster")
	}

	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])
	if g.phase != PhaseNight {
		t.Fatal("night must wait for the ghost")
	}
	mustAct(t, g, ids["ghost"], ActOtherKill, ids["v2"])

	if isAlive(g, ids["v1"]) || isAlive(g, ids["v2"]) {
		t.Fatal("both victims should be dead")
	}
}

func TestWolfCubEnragesThePack(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"w1": RoleWolf, "w2": RoleWolf, "cub": RoleWolfCub,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
		"v4": RoleVillager, "v5": RoleVillager,
	})
	g.beginNight()
	g.killChain([]deathEvent{{id: ids["cub"], cause: "lynch"}})
	if !g.enragedPending {
		t.Fatal("cub death should enrage the pack")
	}

	g.beginNight()
	if !g.enraged {
		t.Fatal("rage should take effect the following night")
	}
	mustAct(t, g, ids["w1"], ActKill, ids["v1"])
	mustAct(t, g, ids["w2"], ActKill, ids["v2"])

	if isAlive(g, ids["v1"]) || isAlive(g, ids["v2"]) {
		t.Fatal("an enraged pack takes two victims")
	}
}

func TestDiseasedMealSickensThePack(t *testing.T) {
	g, tr, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf,
		"v1":   RoleVillager, "v2": RoleVillager, "v3": RoleVillager, "v4": RoleVillager,
	})
	g.pendingDisease[ids["v1"]] = true
	g.beginNight()
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if isAlive(g, ids["v1"]) {
		t.Fatal("diseased victim still dies")
	}
	if !g.sickPending {
		t.Fatal("eating a diseased victim should sicken the pack")
	}

	g.beginNight()
	mustAct(t, g, ids["wolf"], ActKill, ids["v2"])
	if !isAlive(g, ids["v2"]) {
		t.Fatal("sick pack cannot kill")
	}
	if !tr.channelContains("could not hunt") {
		t.Fatalf("missing sick-pack narrative, channel = %v", tr.channel)
	}
}

func TestDawnTimerTakesThePlurality(t *testing.T) {
	g, _, sched, ids := buildGame(t, map[string]string{
		"w1": RoleWolf, "w2": RoleWolf, "w3": RoleWolf,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
		"v4": RoleVillager, "v5": RoleVillager,
	})
	g.beginNight()
	timer := sched.latest()

	mustAct(t, g, ids["w1"], ActKill, ids["v1"])
	mustAct(t, g, ids["w2"], ActKill, ids["v1"])
	mustAct(t, g, ids["w3"], ActKill, ids["v2"])
	if g.phase != PhaseNight {
		t.Fatal("a split pack cannot resolve early")
	}

	sched.fire(timer)
	if g.phase != PhaseDay {
		t.Fatalf("dawn timer should force resolution, phase = %s", g.phase)
	}
	if isAlive(g, ids["v1"]) {
		t.Fatal("the target with the most votes dies")
	}
	if !isAlive(g, ids["v2"]) {
		t.Fatal("the minority target survives")
	}
}

func TestDawnTimerBreaksATie(t *testing.T) {
	g, _, sched, ids := buildGame(t, map[string]string{
		"w1": RoleWolf, "w2": RoleWolf,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager, "v4": RoleVillager,
	})
	g.beginNight()
	timer := sched.latest()

	mustAct(t, g, ids["w1"], ActKill, ids["v1"])
	mustAct(t, g, ids["w2"], ActKill, ids["v2"])
	sched.fire(timer)

	if g.phase != PhaseDay {
		t.Fatalf("phase = %s, want day", g.phase)
	}
	d1, d2 := !isAlive(g, ids["v1"]), !isAlive(g, ids["v2"])
	if d1 == d2 {
		t.Fatalf("exactly one tied target must die, v1 dead=%v v2 dead=%v", d1, d2)
	}
	if !isAlive(g, ids["v3"]) || !isAlive(g, ids["v4"]) {
		t.Fatal("untargeted players must live")
	}
}

func TestGuardCannotFollowTheHarlot(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "harlot": RoleHarlot, "guard": RoleBodyguard,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
	})
	g.beginNight()
	mustAct(t, g, ids["guard"], ActGuard, ids["harlot"])
	mustAct(t, g, ids["harlot"], ActVisit, ids["v1"])
	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])

	if isAlive(g, ids["v1"]) {
		t.Fatal("the harlot's presence protects nobody")
	}
	if isAlive(g, ids["harlot"]) {
		t.Fatal("the harlot dies at the victim's house")
	}
	if !isAlive(g, ids["guard"]) {
		t.Fatal("the guard watched an empty house and pays nothing")
	}
}

func TestWolvesCannotTargetTheMonster(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "monster": RoleMonster,
		"v1": RoleVillager, "v2": RoleVillager,
	})
	g.beginNight()
	if err := g.submitNightAction(ids["wolf"], ActKill, ids["monster"]); err == nil {
		t.Fatal("wolf kill on the monster should be rejected")
	}
}
