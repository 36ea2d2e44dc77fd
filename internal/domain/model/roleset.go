//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"database/sql/driver"
	"errors"
	"strings"
)

// RoleSet is the set of community role identifiers held by a member.
// It is persisted as a single space-delimited string; Parse and String are the
// only places that deal with the delimited form.
type RoleSet struct {
	tokens []string
}

// ParseRoleSet splits a stored role-string into a RoleSet. Any run of
// whitespace separates tokens and duplicate tokens are dropped, keeping the
// first occurrence.
func ParseRoleSet(s string) RoleSet {
	var rs RoleSet
	for _, tok := range strings.Fields(s) {
		rs.Add(tok)
	}
	return rs
}

// NewRoleSet builds a RoleSet from individual role identifiers.
func NewRoleSet(roles ...string) RoleSet {
	var rs RoleSet
	for _, r := range roles {
		rs.Add(r)
	}
	return rs
}

// Has reports whether role is present.
func (rs RoleSet) Has(role string) bool {
	role = strings.TrimSpace(role)
	if role == "" {
		return false
	}
	for _, t := range rs.tokens {
		if t == role {
			return true
		}
	}
	return false
}

// Add inserts role if it is not already present. It returns true when the set changed.
func (rs *RoleSet) Add(role string) bool {
	role = strings.TrimSpace(role)
	if role == "" || strings.ContainsAny(role, " \t\r\n") || rs.Has(role) {
		return false
	}
	rs.tokens = append(rs.tokens, role)
	return true
}

// Remove deletes role if present. It returns true when the set changed.
func (rs *RoleSet) Remove(role string) bool {
	role = strings.TrimSpace(role)
	for i, t := range rs.tokens {
		if t == role {
			rs.tokens = append(rs.tokens[:i:i], rs.tokens[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of roles in the set.
func (rs RoleSet) Len() int { return len(rs.tokens) }

// Roles returns a copy of the role identifiers in insertion order.
func (rs RoleSet) Roles() []string {
	out := make([]string, len(rs.tokens))
	copy(out, rs.tokens)
	return out
}

// Clone returns an independent copy.
func (rs RoleSet) Clone() RoleSet {
	return RoleSet{tokens: rs.Roles()}
}

// Equal reports whether both sets hold the same roles, ignoring order.
func (rs RoleSet) Equal(other RoleSet) bool {
	if rs.Len() != other.Len() {
		return false
	}
	for _, t := range rs.tokens {
		if !other.Has(t) {
			return false
		}
	}
	return true
}

// String serializes the set with single-space separators.
func (rs RoleSet) String() string {
	return strings.Join(rs.tokens, " ")
}

// Value implements driver.Valuer so a RoleSet can be written directly as a text column.
func (rs RoleSet) Value() (driver.Value, error) {
	return rs.String(), nil
}

// Scan implements sql.Scanner for text and NULL columns.
func (rs *RoleSet) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*rs = RoleSet{}
	case string:
		*rs = ParseRoleSet(v)
	case []byte:
		*rs = ParseRoleSet(string(v))
	default:
		return errors.New("roleset: unsupported column type")
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (rs RoleSet) MarshalText() ([]byte, error) {
	return []byte(rs.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (rs *RoleSet) UnmarshalText(b []byte) error {
	*rs = ParseRoleSet(string(b))
	return nil
}
