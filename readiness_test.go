package main

import "testing"

func TestOnlyMandatoryActorsHoldTheNight(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "seer": RoleSeer, "v1": RoleVillager, "v2": RoleVillager,
	})
	g.beginNight()

	expected := g.nightActorsExpected()
	if len(expected) != 1 || expected[0] != ids["wolf"] {
		t.Fatalf("expected actors = %v, want only the wolf", expected)
	}
	if g.checkNightDone() {
		t.Fatal("night done before the wolf acted")
	}

	// the seer acting changes nothing about readiness
	mustAct(t, g, ids["seer"], ActObserve, ids["v1"])
	if g.phase != PhaseNight {
		t.Fatal("seer alone should not end the night")
	}

	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])
	if g.phase != PhaseDay {
		t.Fatalf("night should resolve once the wolf acted, phase = %s", g.phase)
	}
}

func TestWolfDisagreementBlocksResolution(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"w1": RoleWolf, "w2": RoleWolf,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager, "v4": RoleVillager,
	})
	g.beginNight()

	mustAct(t, g, ids["w1"], ActKill, ids["v1"])
	mustAct(t, g, ids["w2"], ActKill, ids["v2"])
	if g.phase != PhaseNight {
		t.Fatal("split pack vote must not resolve the night")
	}

	mustAct(t, g, ids["w2"], ActKill, ids["v1"])
	if g.phase != PhaseDay {
		t.Fatalf("unanimous pack should resolve, phase = %s", g.phase)
	}
	if isAlive(g, ids["v1"]) {
		t.Fatal("v1 should be dead")
	}
}

func TestExplicitPassSatisfiesReadiness(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "guard": RoleBodyguard,
		"v1": RoleVillager, "v2": RoleVillager,
	})
	g.beginNight()

	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])
	if g.phase != PhaseNight {
		t.Fatal("bodyguard is mandatory and has not acted")
	}
	mustAct(t, g, ids["guard"], ActPass)
	if g.phase != PhaseDay {
		t.Fatalf("pass should complete readiness, phase = %s", g.phase)
	}
}

func TestSilencedActorIsExemptAndBlocked(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "guard": RoleBodyguard,
		"v1": RoleVillager, "v2": RoleVillager,
	})
	g.pendingSilence[ids["guard"]] = true
	g.beginNight()

	if err := g.submitNightAction(ids["guard"], ActGuard, ids["v1"]); err != errSilenced {
		t.Fatalf("silenced guard acting: err = %v, want errSilenced", err)
	}

	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])
	if g.phase != PhaseDay {
		t.Fatalf("silenced guard should not hold the night open, phase = %s", g.phase)
	}
}

func TestNightRetractReopensReadiness(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "guard": RoleBodyguard,
		"v1": RoleVillager, "v2": RoleVillager,
	})
	g.beginNight()

	mustAct(t, g, ids["guard"], ActPass)
	if err := g.submitNightRetract(ids["guard"]); err != nil {
		t.Fatalf("retract: %v", err)
	}
	if err := g.submitNightRetract(ids["guard"]); err == nil {
		t.Fatal("nothing left to retract")
	}

	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])
	if g.phase != PhaseNight {
		t.Fatal("retracted guard should hold the night open again")
	}
	mustAct(t, g, ids["guard"], ActGuard, ids["v2"])
	if g.phase != PhaseDay {
		t.Fatalf("phase = %s, want day", g.phase)
	}
}

func TestDeadPlayersCannotHoldTheNight(t *testing.T) {
	g, _, _, ids := buildGame(t, map[string]string{
		"wolf": RoleWolf, "guard": RoleBodyguard,
		"v1": RoleVillager, "v2": RoleVillager, "v3": RoleVillager,
	})
	g.beginNight()
	g.killChain([]deathEvent{{id: ids["guard"], cause: "lynch"}})

	mustAct(t, g, ids["wolf"], ActKill, ids["v1"])
	if g.phase != PhaseDay {
		t.Fatalf("dead guard must not block, phase = %s", g.phase)
	}
}
