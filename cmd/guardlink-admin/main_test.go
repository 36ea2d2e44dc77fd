package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/guardlink/config"
	"github.com/target/guardlink/internal/domain/model"
)

func TestPrintUsageListsCommandsSorted(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printUsage(&buf))

	out := buf.String()
	assert.Contains(t, out, "Usage: guardlink-admin <command>")
	iMember := bytes.Index(buf.Bytes(), []byte("  member "))
	iMigrate := bytes.Index(buf.Bytes(), []byte("  migrate "))
	iSnapshot := bytes.Index(buf.Bytes(), []byte("  snapshot "))
	require.Positive(t, iMember)
	assert.Less(t, iMember, iMigrate)
	assert.Less(t, iMigrate, iSnapshot)
}

func TestParseFlagsValidation(t *testing.T) {
	_, err := parseMigrateFlags([]string{"--timeout", "0s"})
	require.Error(t, err)

	opts, err := parseRosterRunFlags([]string{"--json", "--timeout", "2m"})
	require.NoError(t, err)
	assert.True(t, opts.JSON)
	assert.Equal(t, 2*time.Minute, opts.Timeout)

	_, err = parseSnapshotFlags([]string{"--limit", "-1"})
	require.Error(t, err)

	_, err = parseMemberFlags(nil)
	require.EqualError(t, err, "--id is required")

	reg, err := parseRegisterMemberFlags([]string{"--id", " 1234 ", "--name", "Lark"})
	require.NoError(t, err)
	assert.Equal(t, "1234", reg.Request.ID)
	assert.Equal(t, "Lark", reg.Request.DisplayName)

	_, err = parseRegisterMemberFlags([]string{"--name", "Lark"})
	require.Error(t, err)
}

func TestPrintSnapshotTruncatesEntries(t *testing.T) {
	snap := &model.RosterSnapshot{
		CycleID:    "cycle-1",
		FetchedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TotalPages: 2,
		TotalCount: 4,
		LostPages:  []int{2},
		Entries: []model.RosterEntry{
			{AccountID: 1, DisplayName: "a", Tier: 3},
			{AccountID: 2, DisplayName: "b", Tier: 3},
			{AccountID: 3, DisplayName: "c", Tier: 1},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, printSnapshot(&buf, snap, snapshotOptions{Entries: true, Limit: 2}))

	out := buf.String()
	assert.Contains(t, out, "Cycle cycle-1 fetched 2026-03-01T12:00:00Z")
	assert.Contains(t, out, "Collected 3 of 4 over 2 pages (75.0%), lost pages: [2]")
	assert.Contains(t, out, "ACCOUNT")
	assert.NotContains(t, out, "c\n")
	assert.Contains(t, out, "... 1 more")
}

func TestPrintCycleReport(t *testing.T) {
	var buf bytes.Buffer
	err := printCycleReport(&buf, model.RosterCycleReport{
		Snapshot:  model.SnapshotSummary{CycleID: "c-9", Collected: 10, TotalCount: 10, SuccessRatio: 1},
		Reconcile: model.ReconcileSummary{Examined: 7, Changed: 2, Granted: 1, Revoked: 1},
		Elapsed:   1500 * time.Millisecond,
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "c-9")
	assert.Contains(t, out, "10/10 (100.0%)")
	assert.Contains(t, out, "Lost pages:")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "1.5s")
}

func TestPrintMemberUnbound(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printMember(&buf, &model.Member{ID: "m1", DisplayName: "Lark"}))
	assert.Contains(t, buf.String(), "unbound")

	bound := int64(42)
	buf.Reset()
	require.NoError(t, printMember(&buf, &model.Member{
		ID: "m1", ExternalAccountID: &bound, Tier: 2, Roles: model.ParseRoleSet("10 12"),
	}))
	assert.Contains(t, buf.String(), "account 42")
	assert.Contains(t, buf.String(), "10 12")
}

func TestHasRedisConfig(t *testing.T) {
	assert.False(t, hasRedisConfig(nil))
	assert.False(t, hasRedisConfig(&config.RedisConfig{}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{URI: "localhost:6379"}))
	assert.False(t, hasRedisConfig(&config.RedisConfig{UseSentinel: true}))
	assert.True(t, hasRedisConfig(&config.RedisConfig{UseCluster: true, ClusterNodes: []string{"a:1"}}))
}
