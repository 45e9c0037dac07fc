package main

import "testing"

func TestRecordIntentOverwrites(t *testing.T) {
	l := newActionLedger()
	if prev := l.RecordIntent("w1", ActKill, "v1"); prev != nil {
		t.Fatalf("first submission returned prev %v", prev)
	}
	prev := l.RecordIntent("w1", ActKill, "v2")
	if len(prev) != 1 || prev[0] != "v1" {
		t.Fatalf("prev = %v, want [v1]", prev)
	}
	got := l.Intent("w1", ActKill)
	if len(got) != 1 || got[0] != "v2" {
		t.Fatalf("intent = %v, want [v2]", got)
	}
}

func TestRetractIntent(t *testing.T) {
	l := newActionLedger()
	l.RecordIntent("s1", ActObserve, "v1")
	if !l.RetractIntent("s1", ActObserve) {
		t.Fatal("retract should report true")
	}
	if l.RetractIntent("s1", ActObserve) {
		t.Fatal("second retract should report false")
	}
	if l.HasActed("s1") {
		t.Fatal("retracted actor should not count as acted")
	}
}

func TestHasActedCountsPass(t *testing.T) {
	l := newActionLedger()
	l.RecordIntent("p1", ActPass)
	if !l.HasActed("p1") {
		t.Fatal("explicit pass should count as acting")
	}
	if l.HasActed("p2") {
		t.Fatal("p2 never acted")
	}
}

func TestDropActorKeepsTargets(t *testing.T) {
	l := newActionLedger()
	l.RecordIntent("w1", ActKill, "p1")
	l.RecordIntent("w2", ActKill, "w1")
	l.DropActor("w1")
	if l.HasActed("w1") {
		t.Fatal("dropped actor still has intents")
	}
	targets := l.TargetsFor(ActKill)
	if len(targets) != 1 || targets[0] != "w1" {
		t.Fatalf("targets = %v; w1 as a target must survive DropActor", targets)
	}
}

func TestVoteTallySingleVotePerVoter(t *testing.T) {
	v := newVoteTally()
	v.Cast("a", "x")
	prev := v.Cast("a", "y")
	if prev != "x" {
		t.Fatalf("prev = %q, want x", prev)
	}
	if got := v.VotersFor("x"); len(got) != 0 {
		t.Fatalf("x still has voters %v", got)
	}
	if got := v.VoteOf("a"); got != "y" {
		t.Fatalf("VoteOf(a) = %q", got)
	}
}

func TestVoteTallyAbstainIsExclusive(t *testing.T) {
	v := newVoteTally()
	v.Cast("a", "x")
	v.Abstain("a")
	if got := v.VoteOf("a"); got != "" {
		t.Fatalf("abstainer still voting for %q", got)
	}
	if len(v.Abstainers()) != 1 {
		t.Fatalf("abstainers = %v", v.Abstainers())
	}
	v.Cast("a", "x")
	if len(v.Abstainers()) != 0 {
		t.Fatal("voting should clear the abstention")
	}
}

func TestVoteTallyRemovePlayer(t *testing.T) {
	v := newVoteTally()
	v.Cast("a", "x")
	v.Cast("x", "a")
	v.RemovePlayer("x")
	if got := v.VoteOf("x"); got != "" {
		t.Fatalf("dead voter still voting for %q", got)
	}
	if got := v.VotersFor("x"); len(got) != 0 {
		t.Fatalf("dead candidate still has voters %v", got)
	}
	if got := v.VoteOf("a"); got != "" {
		t.Fatalf("a's vote should vanish with its candidate, still %q", got)
	}
}
