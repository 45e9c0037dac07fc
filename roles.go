package main

import "fmt"

// Team names
const (
	TeamVillage = "village"
	TeamWolf    = "wolf"
	TeamNeutral = "neutral"
)

// Capability tags attached to role definitions. The resolver and the win
// evaluator query these instead of hardcoded role-name lists, so new roles
// only need a table entry.
const (
	CapWolfAligned = "wolf_aligned" // counts toward wolf parity and sees wolfchat listings
	CapNightKill   = "night_kill"   // participates in the wolf consensus kill
	CapWolfChat    = "wolf_chat"    // sees the wolf team roster at night
	CapTraitor     = "traitor"      // promoted to wolf when the last night-killer dies
	CapWolfImmune  = "wolf_immune"  // cannot be chosen as a wolf kill victim
	CapWinStealer  = "win_stealer"  // has an individual win condition
)

// RoleDef describes a primary role as data: team, capability tags, and which
// ledger kind (if any) the role submits at night.
type RoleDef struct {
	Name        string
	Team        string
	Caps        []string
	NightAction string // ledger action kind, "" = no night action
	// Optional night actions never block the readiness check; mandatory ones
	// count toward expected_count until submitted (or the actor is exempt).
	ActionOptional bool
	OncePerGame    bool
	Description    string
}

// HasCap reports whether the role carries the given capability tag.
func (r RoleDef) HasCap(cap string) bool {
	for _, c := range r.Caps {
		if c == cap {
			return true
		}
	}
	return false
}

// Primary role names
const (
	RoleVillager      = "villager"
	RoleWolf          = "wolf"
	RoleTraitor       = "traitor"
	RoleSeer          = "seer"
	RoleHarlot        = "harlot"
	RoleBodyguard     = "bodyguard"
	RoleGuardianAngel = "guardian angel"
	RoleShaman        = "shaman"
	RoleCrazedShaman  = "crazed shaman"
	RoleHunter        = "hunter"
	RoleVengefulGhost = "vengeful ghost"
	RoleMatchmaker    = "matchmaker"
	RoleMadScientist  = "mad scientist"
	RoleWolfCub       = "wolf cub"
	RoleMonster       = "monster"
	RoleFool          = "fool"
	RoleJester        = "jester"
)

var roleTable = map[string]RoleDef{
	RoleVillager: {
		Name: RoleVillager, Team: TeamVillage,
		Description: "No special powers, relies on deduction and discussion.",
	},
	RoleWolf: {
		Name: RoleWolf, Team: TeamWolf,
		Caps:        []string{CapWolfAligned, CapNightKill, CapWolfChat},
		NightAction: ActKill,
		Description: "Votes with the pack each night on a victim.",
	},
	RoleTraitor: {
		Name: RoleTraitor, Team: TeamWolf,
		Caps:        []string{CapWolfAligned, CapTraitor, CapWolfChat},
		Description: "Appears as a villager, becomes a wolf when the last wolf dies.",
	},
	RoleSeer: {
		Name: RoleSeer, Team: TeamVillage,
		NightAction: ActObserve, ActionOptional: true,
		Description: "May investigate one player per night.",
	},
	RoleHarlot: {
		Name: RoleHarlot, Team: TeamVillage,
		NightAction: ActVisit, ActionOptional: true,
		Description: "May spend the night at another player's house.",
	},
	RoleBodyguard: {
		Name: RoleBodyguard, Team: TeamVillage,
		NightAction: ActGuard,
		Description: "Guards one player per night, taking the hit in their place.",
	},
	RoleGuardianAngel: {
		Name: RoleGuardianAngel, Team: TeamVillage,
		NightAction: ActGuard,
		Description: "Shields one player per night from ordinary death.",
	},
	RoleShaman: {
		Name: RoleShaman, Team: TeamVillage,
		NightAction: ActTotem,
		Description: "Gives a random beneficial totem to a player each night.",
	},
	RoleCrazedShaman: {
		Name: RoleCrazedShaman, Team: TeamNeutral,
		NightAction: ActTotem,
		Description: "Gives a random totem, helpful or harmful, each night.",
	},
	RoleHunter: {
		Name: RoleHunter, Team: TeamVillage,
		NightAction: ActOtherKill, ActionOptional: true, OncePerGame: true,
		Description: "May kill one player during the night, once per game.",
	},
	RoleVengefulGhost: {
		Name: RoleVengefulGhost, Team: TeamVillage,
		NightAction: ActOtherKill, ActionOptional: true,
		Description: "Powerless while alive. Kills one player per night from beyond the grave.",
	},
	RoleMatchmaker: {
		Name: RoleMatchmaker, Team: TeamVillage,
		NightAction: ActChoose, OncePerGame: true,
		Description: "Chooses two players to fall in love on the first night.",
	},
	RoleMadScientist: {
		Name: RoleMadScientist, Team: TeamVillage,
		Description: "On death, releases a toxin killing the two adjacent players.",
	},
	RoleWolfCub: {
		Name: RoleWolfCub, Team: TeamWolf,
		Caps:        []string{CapWolfAligned, CapNightKill, CapWolfChat},
		NightAction: ActKill,
		Description: "A young wolf. If killed, the pack is enraged the next night.",
	},
	RoleMonster: {
		Name: RoleMonster, Team: TeamNeutral,
		Caps:        []string{CapWolfImmune, CapWinStealer},
		Description: "Immune to wolves; steals the win if alive when a team would win.",
	},
	RoleFool: {
		Name: RoleFool, Team: TeamNeutral,
		Caps:        []string{CapWinStealer},
		Description: "Wins alone if the village lynches them.",
	},
	RoleJester: {
		Name: RoleJester, Team: TeamNeutral,
		Caps:        []string{CapWinStealer},
		Description: "Gains an individual win if lynched, the game continues.",
	},
}

// Template names (orthogonal modifiers stacked atop a primary role)
const (
	TemplateCursed     = "cursed"
	TemplateGunner     = "gunner"
	TemplateMayor      = "mayor"
	TemplateBureaucrat = "bureaucrat"
	TemplateAssassin   = "assassin"
	TemplateLover      = "lover"
)

// Totem kinds
const (
	TotemProtection  = "protection"
	TotemRevealing   = "revealing"
	TotemDeath       = "death"
	TotemImpatience  = "impatience"
	TotemPacifism    = "pacifism"
	TotemInfluence   = "influence"
	TotemDesperation = "desperation"
	TotemSilence     = "silence"
	TotemLuck        = "luck"
	TotemDisease     = "disease"
)

// shamanTotems are the totems a regular shaman can hand out. The crazed
// shaman draws from the full set including the harmful ones.
var shamanTotems = []string{
	TotemProtection, TotemRevealing, TotemInfluence, TotemImpatience, TotemPacifism,
}

var allTotems = []string{
	TotemProtection, TotemRevealing, TotemDeath, TotemImpatience, TotemPacifism,
	TotemInfluence, TotemDesperation, TotemSilence, TotemLuck, TotemDisease,
}

// roleGuide returns the role and template distribution for a game of n
// players under the given mode. Unlisted players become plain villagers.
func roleGuide(mode string, n int) (roles map[string]int, templates map[string]int, err error) {
	if mode != "default" {
		return nil, nil, fmt.Errorf("unknown game mode %q", mode)
	}
	if n < 4 {
		return nil, nil, fmt.Errorf("need at least 4 players, have %d", n)
	}

	roles = map[string]int{RoleWolf: 1, RoleSeer: 1}
	templates = map[string]int{}
	switch {
	case n >= 6 && n < 8:
		roles[RoleShaman] = 1
	case n >= 8 && n < 10:
		roles[RoleShaman] = 1
		roles[RoleHarlot] = 1
		roles[RoleTraitor] = 1
	case n >= 10 && n < 12:
		roles[RoleWolf] = 2
		roles[RoleShaman] = 1
		roles[RoleHarlot] = 1
		roles[RoleTraitor] = 1
		roles[RoleBodyguard] = 1
		templates[TemplateCursed] = 1
	case n >= 12:
		roles[RoleWolf] = 2
		roles[RoleShaman] = 1
		roles[RoleCrazedShaman] = 1
		roles[RoleHarlot] = 1
		roles[RoleTraitor] = 1
		roles[RoleBodyguard] = 1
		roles[RoleHunter] = 1
		roles[RoleMatchmaker] = 1
		templates[TemplateCursed] = 1
		templates[TemplateGunner] = 1
		templates[TemplateMayor] = 1
	}

	total := 0
	for _, c := range roles {
		total += c
	}
	roles[RoleVillager] = n - total
	return roles, templates, nil
}
