package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// StatsStore persists accounts, sessions, and finished-game records. The
// live game never reads from it; a write failure costs history, not play.
type StatsStore struct {
	db *sqlx.DB
}

// GameRecord is one finished game.
type GameRecord struct {
	ID          int64     `db:"id"`
	Mode        string    `db:"mode"`
	Size        int       `db:"size"`
	StartedAt   time.Time `db:"started_at"`
	EndedAt     time.Time `db:"ended_at"`
	WinningTeam string    `db:"winning_team"`
}

// PlayerRecord is one player's outcome in one finished game.
type PlayerRecord struct {
	GameID        int64    `db:"game_id"`
	Account       string   `db:"account"`
	FinalRole     string   `db:"final_role"`
	AllRoles      []string `db:"-"` // stored comma-joined in all_roles
	TeamWin       bool     `db:"team_win"`
	IndividualWin bool     `db:"indiv_win"`
	Disconnected  bool     `db:"dc"`
}

// PlayerTotals aggregates an account's record across all games.
type PlayerTotals struct {
	Games          int `db:"games"`
	TeamWins       int `db:"team_wins"`
	IndividualWins int `db:"indiv_wins"`
	Disconnects    int `db:"dcs"`
}

func openStatsStore(dsn string) (*StatsStore, error) {
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	s := &StatsStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *StatsStore) initSchema() error {
	schema := `
	PRAGMA journal_mode=WAL;

	CREATE TABLE IF NOT EXISTS player (
		account TEXT UNIQUE NOT NULL,
		secret_code TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS session (
		token INTEGER PRIMARY KEY,
		player_id INTEGER NOT NULL,
		FOREIGN KEY (player_id) REFERENCES player(rowid)
	);
	CREATE TABLE IF NOT EXISTS game_record (
		mode TEXT NOT NULL,
		size INTEGER NOT NULL,
		started_at TIMESTAMP NOT NULL,
		ended_at TIMESTAMP NOT NULL,
		winning_team TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS player_record (
		game_id INTEGER NOT NULL,
		account TEXT NOT NULL,
		final_role TEXT NOT NULL,
		all_roles TEXT NOT NULL DEFAULT '',
		team_win INTEGER NOT NULL DEFAULT 0,
		indiv_win INTEGER NOT NULL DEFAULT 0,
		dc INTEGER NOT NULL DEFAULT 0,
		FOREIGN KEY (game_id) REFERENCES game_record(rowid)
	);
	CREATE INDEX IF NOT EXISTS idx_player_record_account ON player_record(account);
	`
	if _, err := s.db.Exec(schema); err != nil {
		log.Printf("initSchema error: %v", err)
		return err
	}
	log.Printf("Database initialized successfully")
	return nil
}

func (s *StatsStore) Close() error {
	return s.db.Close()
}

// RecordGame writes one finished game and its player outcomes atomically.
func (s *StatsStore) RecordGame(rec GameRecord, players []PlayerRecord) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO game_record (mode, size, started_at, ended_at, winning_team)
		VALUES (?, ?, ?, ?, ?)`,
		rec.Mode, rec.Size, rec.StartedAt, rec.EndedAt, rec.WinningTeam)
	if err != nil {
		return err
	}
	gameID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	for _, p := range players {
		_, err := tx.Exec(`
			INSERT INTO player_record (game_id, account, final_role, all_roles, team_win, indiv_win, dc)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			gameID, p.Account, p.FinalRole, strings.Join(p.AllRoles, ","),
			p.TeamWin, p.IndividualWin, p.Disconnected)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PlayerStats aggregates one account's history.
func (s *StatsStore) PlayerStats(account string) (PlayerTotals, error) {
	var totals PlayerTotals
	err := s.db.Get(&totals, `
		SELECT COUNT(*) as games,
			COALESCE(SUM(team_win), 0) as team_wins,
			COALESCE(SUM(indiv_win), 0) as indiv_wins,
			COALESCE(SUM(dc), 0) as dcs
		FROM player_record
		WHERE account = ?`, account)
	return totals, err
}

// RoleBreakdown returns how often the account drew each starting role.
func (s *StatsStore) RoleBreakdown(account string) (map[string]int, error) {
	type row struct {
		Role  string `db:"final_role"`
		Count int    `db:"count"`
	}
	var rows []row
	err := s.db.Select(&rows, `
		SELECT final_role, COUNT(*) as count
		FROM player_record
		WHERE account = ?
		GROUP BY final_role
		ORDER BY count DESC`, account)
	if err != nil {
		return nil, err
	}
	out := make(map[string]int, len(rows))
	for _, r := range rows {
		out[r.Role] = r.Count
	}
	return out, nil
}
