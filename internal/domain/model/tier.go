//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
)

// TierNone is the tier level of an account that holds no supporter tier.
const TierNone = 0

// TierRoleTable maps supporter tier levels to community role identifiers.
// Tier 1 is the most privileged and is stored at index 0.
type TierRoleTable struct {
	roles []string
}

// ErrEmptyTierTable is returned when a tier table has no roles configured.
var ErrEmptyTierTable = errors.New("tier role table requires at least one role")

// NewTierRoleTable builds a table from role identifiers ordered tier 1 first.
func NewTierRoleTable(roles []string) (TierRoleTable, error) {
	cleaned := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			return TierRoleTable{}, errors.New("tier role table contains an empty role id")
		}
		cleaned = append(cleaned, r)
	}
	if len(cleaned) == 0 {
		return TierRoleTable{}, ErrEmptyTierTable
	}
	return TierRoleTable{roles: cleaned}, nil
}

// MaxTier returns the highest tier level that has a role mapping.
func (t TierRoleTable) MaxTier() int { return len(t.roles) }

// InRange reports whether tier maps to a role.
func (t TierRoleTable) InRange(tier int) bool {
	return tier >= 1 && tier <= len(t.roles)
}

// RoleFor returns the role for tier. Tier 0 and tiers outside the table have no role.
func (t TierRoleTable) RoleFor(tier int) (string, bool) {
	if !t.InRange(tier) {
		return "", false
	}
	return t.roles[tier-1], true
}

// Normalize returns tier unchanged when it maps to a role, and TierNone otherwise.
func (t TierRoleTable) Normalize(tier int) int {
	if t.InRange(tier) {
		return tier
	}
	return TierNone
}

// TierOf returns the tier implied by the tier roles present in roles, or
// TierNone. When several tier roles are present the most privileged wins.
func (t TierRoleTable) TierOf(roles RoleSet) int {
	for i, r := range t.roles {
		if roles.Has(r) {
			return i + 1
		}
	}
	return TierNone
}

// Roles returns the ordered role identifiers.
func (t TierRoleTable) Roles() []string {
	out := make([]string, len(t.roles))
	copy(out, t.roles)
	return out
}
