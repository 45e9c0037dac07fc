package main

import (
	"testing"
	"time"
)

func TestStatsRoundTrip(t *testing.T) {
	s, err := openStatsStore("file:statsroundtrip?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	started := time.Now().Add(-10 * time.Minute)
	rec := GameRecord{Mode: "default", Size: 6, StartedAt: started, EndedAt: time.Now(), WinningTeam: "village"}
	players := []PlayerRecord{
		{Account: "alice", FinalRole: "seer", AllRoles: []string{"seer"}, TeamWin: true},
		{Account: "bob", FinalRole: "wolf", AllRoles: []string{"wolf"}},
	}
	if err := s.RecordGame(rec, players); err != nil {
		t.Fatalf("record: %v", err)
	}
	rec.WinningTeam = "wolves"
	players = []PlayerRecord{
		{Account: "alice", FinalRole: "seer", AllRoles: []string{"seer"}, IndividualWin: true},
		{Account: "bob", FinalRole: "villager", AllRoles: []string{"wolf", "villager"}, Disconnected: true},
	}
	if err := s.RecordGame(rec, players); err != nil {
		t.Fatalf("record: %v", err)
	}

	totals, err := s.PlayerStats("alice")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if totals.Games != 2 || totals.TeamWins != 1 || totals.IndividualWins != 1 {
		t.Fatalf("totals = %+v, want 2 games, 1 team win, 1 individual win", totals)
	}

	breakdown, err := s.RoleBreakdown("alice")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if breakdown["seer"] != 2 || len(breakdown) != 1 {
		t.Fatalf("breakdown = %v, want seer played twice", breakdown)
	}

	bobTotals, err := s.PlayerStats("bob")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if bobTotals.Disconnects != 1 {
		t.Fatalf("disconnects = %d, want 1", bobTotals.Disconnects)
	}
}
