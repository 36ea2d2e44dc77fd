// Package mocks provides mock implementations of the core ports for service tests.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the interfaces in internal/core.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	provider := mocks.NewMockAuthProvider(ctrl)
//	provider.EXPECT().IssueToken(gomock.Any()).Return(model.LoginChallenge{PollToken: "t"}, nil)
package mocks

// AuthProvider: IssueToken, PollTokenStatus, AccountLookup
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_provider_mock.go github.com/target/guardlink/internal/core AuthProvider

// RosterSource: FetchRosterPage
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=roster_source_mock.go github.com/target/guardlink/internal/core RosterSource

// RoleGateway: Grant, Revoke
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=role_gateway_mock.go github.com/target/guardlink/internal/core RoleGateway

// Messenger: Send
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=messenger_mock.go github.com/target/guardlink/internal/core Messenger

// SnapshotCache: SaveSnapshot, LatestSnapshot, LookupEntry
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=snapshot_cache_mock.go github.com/target/guardlink/internal/core SnapshotCache

// UserStore: the member repository. Service tests that need real
// read-modify-write behaviour use fakes.UserStore instead.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_store_mock.go github.com/target/guardlink/internal/core UserStore
