package main

import (
	"errors"
	"fmt"
	"strings"
)

var errUnknownCommand = errors.New("unknown command")

// cmdFunc handles one player command. caller is the player's roster ID, or
// "" if the account has not joined. The returned string, if any, is sent
// back to the caller privately.
type cmdFunc func(g *GameState, account, caller string, args []string) (string, error)

var commandTable = map[string]cmdFunc{
	"join":    cmdJoin,
	"leave":   cmdLeave,
	"start":   cmdStart,
	"stop":    cmdStop,
	"vote":    cmdVote,
	"abstain": cmdAbstain,
	"retract": cmdRetract,
	"shoot":   cmdShoot,
	"hurry":   cmdHurry,
	"nick":    cmdNick,
	"myrole":  cmdMyRole,
	"players": cmdPlayers,
	"stats":   cmdStats,
	"kill":    nightCmd(ActKill),
	"guard":   nightCmd(ActGuard),
	"see":     nightCmd(ActObserve),
	"visit":   nightCmd(ActVisit),
	"totem":   nightCmd(ActTotem),
	"choose":  nightCmd(ActChoose),
	"pass":    nightCmd(ActPass),
}

// Dispatch validates and runs a single player command under the game lock.
// Validation happens before any mutation; a rejected command changes
// nothing.
func (g *GameState) Dispatch(account, command string, args []string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	fn, ok := commandTable[strings.ToLower(command)]
	if !ok {
		return "", errUnknownCommand
	}
	var caller string
	if p, found := g.roster.ByAccount(account); found {
		caller = p.ID
	}
	DebugLog("dispatch: account=%s command=%s args=%v", account, command, args)
	return fn(g, account, caller, args)
}

// resolveNicks maps nick arguments to roster IDs, rejecting unknown names
// before anything is recorded.
func (g *GameState) resolveNicks(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, nick := range args {
		p, ok := g.roster.ByNick(nick)
		if !ok {
			return nil, fmt.Errorf("%w: no player named %q", errBadTarget, nick)
		}
		out = append(out, p.ID)
	}
	return out, nil
}

func nightCmd(kind string) cmdFunc {
	return func(g *GameState, account, caller string, args []string) (string, error) {
		if caller == "" {
			return "", errUnknownPlayer
		}
		targets, err := g.resolveNicks(args)
		if err != nil {
			return "", err
		}
		return "", g.submitNightAction(caller, kind, targets...)
	}
}

func cmdJoin(g *GameState, account, caller string, args []string) (string, error) {
	if caller != "" {
		return "You are already in the game.", nil
	}
	nick := account
	if len(args) > 0 && args[0] != "" {
		nick = args[0]
	}
	return "", g.submitJoin(account, nick)
}

func cmdLeave(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	return "", g.submitLeave(caller)
}

func cmdStart(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	return "", g.startGame()
}

func cmdStop(g *GameState, account, caller string, args []string) (string, error) {
	g.stopGame()
	return "", nil
}

func cmdVote(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	targets, err := g.resolveNicks(args)
	if err != nil {
		return "", err
	}
	if len(targets) != 1 {
		return "", errBadTarget
	}
	return "", g.submitVote(caller, targets[0])
}

func cmdAbstain(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	return "", g.submitAbstain(caller)
}

func cmdRetract(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	if g.phase == PhaseNight {
		return "", g.submitNightRetract(caller)
	}
	return "", g.submitRetract(caller)
}

func cmdShoot(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	targets, err := g.resolveNicks(args)
	if err != nil {
		return "", err
	}
	if len(targets) != 1 {
		return "", errBadTarget
	}
	return "", g.submitShoot(caller, targets[0])
}

func cmdHurry(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	if g.phase != PhaseDay {
		return "", errWrongPhase
	}
	g.hurryUp()
	return "", nil
}

func cmdNick(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	if len(args) != 1 || args[0] == "" {
		return "", errBadTarget
	}
	p, _ := g.roster.Get(caller)
	old := p.Nick
	if err := g.roster.Rename(old, args[0]); err != nil {
		return "", err
	}
	g.announce(old + " is now known as " + args[0] + ".")
	return "", nil
}

func cmdMyRole(g *GameState, account, caller string, args []string) (string, error) {
	if caller == "" {
		return "", errUnknownPlayer
	}
	role, err := g.reg.GetRole(caller)
	if err != nil {
		if orig, ok := g.reg.Original(caller); ok && orig.Dead {
			return "You are dead. You were a " + orig.DiedAs + ".", nil
		}
		return "", err
	}
	reply := "You are a " + role + ". " + g.reg.Def(caller).Description
	if tmpls := g.reg.TemplatesOf(caller); len(tmpls) > 0 {
		reply += " Also: " + strings.Join(tmpls, ", ") + "."
	}
	return reply, nil
}

func cmdPlayers(g *GameState, account, caller string, args []string) (string, error) {
	if g.phase == PhaseJoin {
		var names []string
		for _, p := range g.roster.All() {
			names = append(names, p.Nick)
		}
		return "In the lobby (" + fmt.Sprint(len(names)) + "): " + strings.Join(names, ", "), nil
	}
	var names []string
	for _, id := range g.livingPlayers() {
		names = append(names, g.nickOf(id))
	}
	if len(names) == 0 {
		connected := g.transport.RosterSnapshot()
		return "No game in progress. Connected: " + fmt.Sprint(len(connected)), nil
	}
	return "Alive (" + fmt.Sprint(len(names)) + "): " + strings.Join(names, ", "), nil
}

func cmdStats(g *GameState, account, caller string, args []string) (string, error) {
	if g.stats == nil {
		return "Stats are not enabled.", nil
	}
	who := account
	if len(args) > 0 {
		who = args[0]
	}
	s, err := g.stats.PlayerStats(who)
	if err != nil {
		return "", err
	}
	reply := fmt.Sprintf("%s: %d games, %d team wins, %d individual wins", who, s.Games, s.TeamWins, s.IndividualWins)
	if breakdown, err := g.stats.RoleBreakdown(who); err == nil && len(breakdown) > 0 {
		top, best := "", 0
		for role, n := range breakdown {
			if n > best || (n == best && role < top) {
				top, best = role, n
			}
		}
		reply += fmt.Sprintf(", most played role: %s (%d)", top, best)
	}
	return reply, nil
}
