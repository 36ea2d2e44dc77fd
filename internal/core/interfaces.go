package core

import (
	"context"

	"github.com/target/guardlink/internal/domain/model"
)

// This file contains the port definitions between the linking/roster services
// and their collaborators. Services depend on these interfaces, not on the
// HTTP clients, Postgres repository or Redis cache that implement them.

// AuthProvider is the external account provider's login handshake.
type AuthProvider interface {
	// IssueToken starts a handshake. Failures are ProviderUnavailable.
	IssueToken(ctx context.Context) (model.LoginChallenge, error)
	// PollTokenStatus reports whether the requester has authorized the challenge.
	PollTokenStatus(ctx context.Context, pollToken string) (model.PollResult, error)
	// AccountLookup resolves the account behind an authorized credential.
	AccountLookup(ctx context.Context, cred model.Credential) (model.Account, error)
}

// RosterSource serves the provider's paginated supporter roster.
type RosterSource interface {
	FetchRosterPage(ctx context.Context, page int) (*model.RosterPage, error)
}

// RoleGateway grants and revokes community roles. Both calls are idempotent upstream.
type RoleGateway interface {
	Grant(ctx context.Context, memberID, roleID string) error
	Revoke(ctx context.Context, memberID, roleID string) error
}

// Message is a community chat message. RecipientID, when set, limits
// visibility of a channel message to that member.
type Message struct {
	ChannelID   string
	RecipientID string
	Content     string
}

// Messenger posts messages to community channels.
type Messenger interface {
	Send(ctx context.Context, msg Message) error
}

// MemberMutator mutates a member loaded under a row lock. Returning
// ErrNoChange leaves the record untouched.
type MemberMutator func(m *model.Member) error

// UserStore is the member and external-account repository.
type UserStore interface {
	UpsertMember(ctx context.Context, req model.UpsertMemberRequest) (*model.Member, error)
	GetMember(ctx context.Context, id string) (*model.Member, error)
	UpsertExternalAccount(ctx context.Context, acct model.ExternalAccount) error
	// BindExternalAccount performs the one-way bind.
	BindExternalAccount(ctx context.Context, memberID string, accountID int64) (model.BindResult, error)
	FindMembersWithNonZeroTier(ctx context.Context) ([]*model.Member, error)
	FindMembersWithBoundAccount(ctx context.Context) ([]*model.Member, error)
	// UpdateMember is the save path: a read-modify-write of one member inside a
	// store transaction, committed before it returns. Tier, roles and sync flag
	// are written together and the tier is mirrored onto the bound account.
	// It returns the stored record after fn ran, and whether it was written.
	UpdateMember(ctx context.Context, id string, fn MemberMutator) (*model.Member, bool, error)
}

// SnapshotCache retains the most recent roster snapshot.
type SnapshotCache interface {
	SaveSnapshot(ctx context.Context, snap *model.RosterSnapshot) error
	// LatestSnapshot returns nil, nil when no snapshot was ever stored.
	LatestSnapshot(ctx context.Context) (*model.RosterSnapshot, error)
	LookupEntry(ctx context.Context, accountID int64) (model.RosterEntry, bool, error)
}
