package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
	"github.com/target/guardlink/internal/mocks"
	"github.com/target/guardlink/internal/mocks/fakes"
	"github.com/target/guardlink/internal/observability/notify"
)

type ingestFunc func(ctx context.Context) (*model.RosterSnapshot, error)

func (f ingestFunc) RunCycle(ctx context.Context) (*model.RosterSnapshot, error) { return f(ctx) }

type reconcileFunc func(ctx context.Context, snap *model.RosterSnapshot) (model.ReconcileSummary, error)

func (f reconcileFunc) RunCycle(ctx context.Context, snap *model.RosterSnapshot) (model.ReconcileSummary, error) {
	return f(ctx, snap)
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []notify.OpsAlertPayload
}

func (a *recordingAlerter) NotifyOpsAlert(_ context.Context, p notify.OpsAlertPayload) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.alerts = append(a.alerts, p)
}

func TestRunOnceReconcilesAndReports(t *testing.T) {
	snap := &model.RosterSnapshot{CycleID: "c1", TotalCount: 4, Entries: []model.RosterEntry{entry(1, 1), entry(2, 2)}, LostPages: []int{2}}
	var reconciled *model.RosterSnapshot
	messenger := &fakes.Messenger{}

	svc, err := NewRosterSyncService(RosterSyncOptions{
		Ingestor: ingestFunc(func(context.Context) (*model.RosterSnapshot, error) { return snap, nil }),
		Reconciler: reconcileFunc(func(_ context.Context, s *model.RosterSnapshot) (model.ReconcileSummary, error) {
			reconciled = s
			return model.ReconcileSummary{Examined: 3, Changed: 1, Granted: 1}, nil
		}),
		Messenger:    messenger,
		AdminChannel: "chan-admin",
		Interval:     time.Hour,
	})
	require.NoError(t, err)

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, reconciled)
	assert.Equal(t, 2, report.Snapshot.Collected)
	assert.InDelta(t, 0.5, report.Snapshot.SuccessRatio, 0.0001)
	assert.Equal(t, 1, report.Reconcile.Changed)

	sent := messenger.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "chan-admin", sent[0].ChannelID)
	assert.Contains(t, sent[0].Content, "2 of 4 supporters collected (50.0%)")
	assert.Contains(t, sent[0].Content, "Lost pages: [2]")
	assert.Contains(t, sent[0].Content, "Members updated: 1")
}

func TestRunOnceFirstPageFailureAlertsWithoutReconciling(t *testing.T) {
	alerter := &recordingAlerter{}
	messenger := &fakes.Messenger{}

	svc, err := NewRosterSyncService(RosterSyncOptions{
		Ingestor: ingestFunc(func(context.Context) (*model.RosterSnapshot, error) {
			return nil, apperrors.FirstPageFailure(errors.New("502"))
		}),
		Reconciler: reconcileFunc(func(context.Context, *model.RosterSnapshot) (model.ReconcileSummary, error) {
			t.Fatal("reconciliation must not run without a snapshot")
			return model.ReconcileSummary{}, nil
		}),
		Messenger:    messenger,
		AdminChannel: "chan-admin",
		Alerts:       alerter,
		Interval:     time.Hour,
	})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsFirstPageFailure(err))

	require.Len(t, alerter.alerts, 1)
	assert.Equal(t, "roster_first_page_failure", alerter.alerts[0].Kind)
	assert.Equal(t, "first_page_failure", alerter.alerts[0].ErrorClass)
	require.Len(t, messenger.Sent(), 1)
	assert.Contains(t, messenger.Sent()[0].Content, "previous roster stays in effect")
}

func TestRunStartsWithCycleWhenNoSnapshotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockSnapshotCache(ctrl)
	cache.EXPECT().LatestSnapshot(gomock.Any()).Return(nil, nil)

	ran := make(chan struct{}, 1)
	svc, err := NewRosterSyncService(RosterSyncOptions{
		Ingestor: ingestFunc(func(context.Context) (*model.RosterSnapshot, error) {
			ran <- struct{}{}
			return &model.RosterSnapshot{}, nil
		}),
		Reconciler: reconcileFunc(func(context.Context, *model.RosterSnapshot) (model.ReconcileSummary, error) {
			return model.ReconcileSummary{}, nil
		}),
		Cache:               cache,
		Interval:            time.Hour,
		RunOnStartWhenEmpty: true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("startup cycle did not run")
	}
	cancel()
	require.NoError(t, <-done)
}

func TestRunSkipsStartupCycleWhenSnapshotExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockSnapshotCache(ctrl)

	checked := make(chan struct{})
	cache.EXPECT().LatestSnapshot(gomock.Any()).DoAndReturn(func(context.Context) (*model.RosterSnapshot, error) {
		close(checked)
		return &model.RosterSnapshot{CycleID: "old"}, nil
	})

	svc, err := NewRosterSyncService(RosterSyncOptions{
		Ingestor: ingestFunc(func(context.Context) (*model.RosterSnapshot, error) {
			t.Error("no cycle expected")
			return nil, nil
		}),
		Reconciler: reconcileFunc(func(context.Context, *model.RosterSnapshot) (model.ReconcileSummary, error) {
			return model.ReconcileSummary{}, nil
		}),
		Cache:               cache,
		Interval:            time.Hour,
		RunOnStartWhenEmpty: true,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()
	<-checked
	cancel()
	require.NoError(t, <-done)
}

func TestNewRosterSyncServiceValidates(t *testing.T) {
	_, err := NewRosterSyncService(RosterSyncOptions{Interval: time.Hour})
	require.Error(t, err)

	_, err = NewRosterSyncService(RosterSyncOptions{
		Ingestor:   ingestFunc(nil),
		Reconciler: reconcileFunc(nil),
	})
	require.Error(t, err)
}
