//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
)

// Member is a community member record as stored by the member repository.
type Member struct {
	ID                string    `json:"id"`
	DisplayName       string    `json:"display_name"`
	IdentifyNumber    string    `json:"identify_number,omitempty"`
	ExternalAccountID *int64    `json:"external_account_id,omitempty"`
	Tier              int       `json:"tier"`
	Roles             RoleSet   `json:"roles"`
	SyncError         bool      `json:"sync_error"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// IsBound reports whether the member has an external account binding.
func (m *Member) IsBound() bool {
	return m != nil && m.ExternalAccountID != nil
}

// TierChange describes the role calls implied by moving a member to a new tier.
type TierChange struct {
	From   int
	To     int
	Revoke string
	Grant  string
}

// IsNoop reports whether the change leaves the member untouched.
func (c TierChange) IsNoop() bool { return c.From == c.To }

// PlanTierChange computes the role calls needed to move a member from its
// stored tier to newTier. Tiers without a role mapping are treated as TierNone.
func PlanTierChange(table TierRoleTable, from, to int) TierChange {
	from = table.Normalize(from)
	to = table.Normalize(to)
	c := TierChange{From: from, To: to}
	if from == to {
		return c
	}
	if r, ok := table.RoleFor(from); ok {
		c.Revoke = r
	}
	if r, ok := table.RoleFor(to); ok {
		c.Grant = r
	}
	return c
}

// ApplyTierChange updates the member's tier and role set together.
func (m *Member) ApplyTierChange(c TierChange) {
	if c.Revoke != "" {
		m.Roles.Remove(c.Revoke)
	}
	if c.Grant != "" {
		m.Roles.Add(c.Grant)
	}
	m.Tier = c.To
}

// UpsertMemberRequest registers or refreshes a community member.
type UpsertMemberRequest struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	IdentifyNumber string `json:"identify_number,omitempty"`
}

// Validate checks required fields.
func (r *UpsertMemberRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.IdentifyNumber = strings.TrimSpace(r.IdentifyNumber)
	if r.ID == "" {
		return errors.New("member id is required")
	}
	if len(r.DisplayName) > 255 {
		return errors.New("display name cannot exceed 255 characters")
	}
	return nil
}

// ExternalAccount is the provider-side account a member binds to.
type ExternalAccount struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"display_name"`
	Level       int       `json:"level"`
	Tier        int       `json:"tier"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BindResult is the outcome of the one-way bind operation.
type BindResult string

const (
	BindSuccess                 BindResult = "success"
	BindMemberNotFound          BindResult = "member_not_found"
	BindExternalAccountNotFound BindResult = "external_account_not_found"
	BindAlreadyBound            BindResult = "already_bound"
)

// IsTerminal reports whether no further bind attempt can change the member's binding.
func (r BindResult) IsTerminal() bool {
	return r == BindSuccess || r == BindAlreadyBound
}
