package main

import (
	"errors"
	"log"
	"sort"
)

// Caller/validation errors, surfaced to the player as rejection messages.
var (
	errUnknownPlayer = errors.New("unknown player")
	errRoleConflict  = errors.New("player already holds a primary role")
	errWrongPhase    = errors.New("that command is not valid in the current phase")
	errNotEligible   = errors.New("your role cannot do that")
	errDeadPlayer    = errors.New("dead players cannot do that")
	errBadTarget     = errors.New("invalid target")
	errSilenced      = errors.New("you are silenced tonight")
)

// OriginalRecord preserves what a player held at game start (plus everything
// they picked up along the way) for reveals and end-of-game stats. Dead
// players are tagged, never deleted, so post-game reporting can distinguish
// "died with role X" from "currently role X".
type OriginalRecord struct {
	Role      string
	Templates []string
	AllRoles  []string // every primary role held during the game, in order
	Dead      bool
	DiedAs    string // primary role at time of death
}

// RoleRegistry maps role names to the ordered set of living players holding
// them. Invariant: every living player appears in exactly one primary role
// set; templates are orthogonal and may stack.
type RoleRegistry struct {
	primary    map[string][]string          // role -> ordered player IDs
	playerRole map[string]string            // player ID -> role
	templates  map[string]map[string]bool   // player ID -> template set
	original   map[string]*OriginalRecord   // player ID -> game-start record
}

func newRoleRegistry() *RoleRegistry {
	return &RoleRegistry{
		primary:    make(map[string][]string),
		playerRole: make(map[string]string),
		templates:  make(map[string]map[string]bool),
		original:   make(map[string]*OriginalRecord),
	}
}

// AssignRole inserts the player into the given role set. If the player
// already holds a different primary role the caller must vacate it first;
// assigning over an existing role is an invariant violation.
func (r *RoleRegistry) AssignRole(id, role string) error {
	if cur, ok := r.playerRole[id]; ok {
		if cur == role {
			return nil
		}
		return errRoleConflict
	}
	r.playerRole[id] = role
	r.primary[role] = append(r.primary[role], id)
	if rec, ok := r.original[id]; ok {
		rec.AllRoles = append(rec.AllRoles, role)
	}
	return nil
}

// VacateRole removes the player from their current primary role set.
func (r *RoleRegistry) VacateRole(id string) {
	role, ok := r.playerRole[id]
	if !ok {
		return
	}
	delete(r.playerRole, id)
	r.primary[role] = removeString(r.primary[role], id)
}

// ReassignRole swaps the player's primary role (cursed transformation,
// traitor promotion).
func (r *RoleRegistry) ReassignRole(id, role string) error {
	if _, ok := r.playerRole[id]; !ok {
		return errUnknownPlayer
	}
	r.VacateRole(id)
	return r.AssignRole(id, role)
}

// GetRole returns the player's primary role.
func (r *RoleRegistry) GetRole(id string) (string, error) {
	role, ok := r.playerRole[id]
	if !ok {
		return "", errUnknownPlayer
	}
	return role, nil
}

// Def returns the role definition for a player. Missing table entries are an
// internal bug; they are logged and an empty villager-like def returned
// rather than crashing the game.
func (r *RoleRegistry) Def(id string) RoleDef {
	role, ok := r.playerRole[id]
	if !ok {
		return RoleDef{}
	}
	def, ok := roleTable[role]
	if !ok {
		log.Printf("Registry: no role table entry for %q, treating as plain villager", role)
		return RoleDef{Name: role, Team: TeamVillage}
	}
	return def
}

// AddTemplate stacks an orthogonal modifier on the player.
func (r *RoleRegistry) AddTemplate(id, tmpl string) {
	if r.templates[id] == nil {
		r.templates[id] = make(map[string]bool)
	}
	r.templates[id][tmpl] = true
	if rec, ok := r.original[id]; ok && !containsString(rec.Templates, tmpl) {
		rec.Templates = append(rec.Templates, tmpl)
	}
}

// RemoveTemplate strips a modifier; removing an absent one is a no-op.
func (r *RoleRegistry) RemoveTemplate(id, tmpl string) {
	delete(r.templates[id], tmpl)
}

// TemplatesOf returns the player's current templates, sorted.
func (r *RoleRegistry) TemplatesOf(id string) []string {
	var out []string
	for t := range r.templates[id] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// HasTemplate reports whether the player currently carries the template.
func (r *RoleRegistry) HasTemplate(id, tmpl string) bool {
	return r.templates[id][tmpl]
}

// ListPlayers returns all living registered players, optionally restricted
// to the given roles. Order follows role-set insertion order.
func (r *RoleRegistry) ListPlayers(roles ...string) []string {
	if len(roles) == 0 {
		var out []string
		for _, role := range r.roleNames() {
			out = append(out, r.primary[role]...)
		}
		return out
	}
	var out []string
	for _, role := range roles {
		out = append(out, r.primary[role]...)
	}
	return out
}

// ListByCap returns all living players whose role carries the capability.
func (r *RoleRegistry) ListByCap(cap string) []string {
	var out []string
	for _, role := range r.roleNames() {
		if !roleTable[role].HasCap(cap) {
			continue
		}
		out = append(out, r.primary[role]...)
	}
	return out
}

// SnapshotOriginal records the player's current role and templates as their
// game-start binding. Called once per player after assignment.
func (r *RoleRegistry) SnapshotOriginal(id string) {
	role := r.playerRole[id]
	var tmpls []string
	for t := range r.templates[id] {
		tmpls = append(tmpls, t)
	}
	r.original[id] = &OriginalRecord{Role: role, Templates: tmpls, AllRoles: []string{role}}
}

// Original returns the game-start record for a player.
func (r *RoleRegistry) Original(id string) (*OriginalRecord, bool) {
	rec, ok := r.original[id]
	return rec, ok
}

// RemovePlayer drops the player from every role and template set, tagging
// their original record dead. Safe to call twice: the second call finds
// nothing to remove.
func (r *RoleRegistry) RemovePlayer(id string) {
	diedAs := r.playerRole[id]
	r.VacateRole(id)
	delete(r.templates, id)
	if rec, ok := r.original[id]; ok && !rec.Dead {
		rec.Dead = true
		rec.DiedAs = diedAs
	}
}

// Count returns the number of living registered players.
func (r *RoleRegistry) Count() int {
	return len(r.playerRole)
}

// roleNames iterates role sets in a stable order (table order is map order,
// so sort by name to keep narrative output deterministic).
func (r *RoleRegistry) roleNames() []string {
	names := make([]string, 0, len(r.primary))
	for name, members := range r.primary {
		if len(members) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func containsString(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
