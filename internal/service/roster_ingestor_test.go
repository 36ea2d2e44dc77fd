package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
	"github.com/target/guardlink/internal/mocks"
)

func entry(id int64, tier int) model.RosterEntry {
	return model.RosterEntry{AccountID: id, DisplayName: "viewer", Tier: tier}
}

func newTestIngestor(t *testing.T, source *mocks.MockRosterSource, cache *mocks.MockSnapshotCache, delay time.Duration) *RosterIngestor {
	t.Helper()
	opts := RosterIngestorOptions{
		Source:       source,
		PageDelay:    delay,
		PageAttempts: 3,
		NewID:        func() string { return "cycle-1" },
	}
	if cache != nil {
		opts.Cache = cache
	}
	ing, err := NewRosterIngestor(opts)
	require.NoError(t, err)
	return ing
}

func TestRunCycleCollectsAllPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)

	source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(&model.RosterPage{
		Number:     1,
		Top:        []model.RosterEntry{entry(1, 1), entry(2, 2)},
		Entries:    []model.RosterEntry{entry(3, 3), entry(1, 1)},
		TotalPages: 2,
		TotalCount: 4,
	}, nil)
	source.EXPECT().FetchRosterPage(gomock.Any(), 2).Return(&model.RosterPage{
		Number:  2,
		Entries: []model.RosterEntry{entry(4, 3)},
	}, nil)

	var saved *model.RosterSnapshot
	cache.EXPECT().SaveSnapshot(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, s *model.RosterSnapshot) error {
			saved = s
			return nil
		})

	snap, err := newTestIngestor(t, source, cache, 0).RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Same(t, snap, saved)
	assert.Equal(t, "cycle-1", snap.CycleID)
	assert.Equal(t, []model.RosterEntry{entry(1, 1), entry(2, 2), entry(3, 3), entry(4, 3)}, snap.Entries)
	assert.Empty(t, snap.LostPages)
	assert.InDelta(t, 1.0, snap.SuccessRatio(), 0.0001)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestRunCycleFailsForwardOnLostPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)

	gomock.InOrder(
		source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(&model.RosterPage{
			Entries:    []model.RosterEntry{entry(1, 1)},
			TotalPages: 3,
			TotalCount: 3,
		}, nil),
		source.EXPECT().FetchRosterPage(gomock.Any(), 2).Return(nil, apperrors.Unavailable(nil, "page 2")).Times(3),
		source.EXPECT().FetchRosterPage(gomock.Any(), 3).Return(&model.RosterPage{
			Entries: []model.RosterEntry{entry(3, 2)},
		}, nil),
	)

	snap, err := newTestIngestor(t, source, nil, 0).RunCycle(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, []model.RosterEntry{entry(1, 1), entry(3, 2)}, snap.Entries)
	assert.Equal(t, []int{2}, snap.LostPages)
	assert.Less(t, snap.SuccessRatio(), 1.0)
}

func TestRunCycleAbortsOnFirstPageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)

	source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(nil, errors.New("502 bad gateway")).Times(3)
	// No SaveSnapshot expectation: the previous snapshot must stay authoritative.

	snap, err := newTestIngestor(t, source, cache, 0).RunCycle(context.Background())
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.True(t, apperrors.IsFirstPageFailure(err))
}

func TestRunCycleRetriesPageUntilAttemptsRunOut(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)

	gomock.InOrder(
		source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(nil, errors.New("reset")),
		source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(nil, nil),
		source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(&model.RosterPage{
			Entries:    []model.RosterEntry{entry(9, 1)},
			TotalPages: 1,
			TotalCount: 1,
		}, nil),
	)

	snap, err := newTestIngestor(t, source, nil, 0).RunCycle(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Entries, 1)
}

func TestRunCycleEmptyRoster(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)
	source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(&model.RosterPage{}, nil)

	snap, err := newTestIngestor(t, source, nil, 0).RunCycle(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Entries)
	assert.Equal(t, 1, snap.TotalPages)
	assert.InDelta(t, 1.0, snap.SuccessRatio(), 0.0001)
}

func TestRunCycleDelaysEveryPageRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)
	source.EXPECT().FetchRosterPage(gomock.Any(), 1).Return(&model.RosterPage{TotalPages: 3, TotalCount: 0}, nil)
	source.EXPECT().FetchRosterPage(gomock.Any(), 2).Return(&model.RosterPage{}, nil)
	source.EXPECT().FetchRosterPage(gomock.Any(), 3).Return(&model.RosterPage{}, nil)

	start := time.Now()
	_, err := newTestIngestor(t, source, nil, 20*time.Millisecond).RunCycle(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRunCycleStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	source.EXPECT().FetchRosterPage(gomock.Any(), 1).DoAndReturn(func(context.Context, int) (*model.RosterPage, error) {
		cancel()
		return nil, context.Canceled
	})

	snap, err := newTestIngestor(t, source, nil, 0).RunCycle(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func TestRunCycleAbortsWhenDeadlineLeavesNoRoomForNextPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)
	cache := mocks.NewMockSnapshotCache(ctrl)

	source.EXPECT().FetchRosterPage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, page int) (*model.RosterPage, error) {
			return &model.RosterPage{
				Number:     page,
				Entries:    []model.RosterEntry{entry(int64(page), 1)},
				TotalPages: 10,
				TotalCount: 10,
			}, nil
		}).MaxTimes(3)
	// No SaveSnapshot expectation: a truncated cycle must not replace the cached roster.

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	start := time.Now()
	snap, err := newTestIngestor(t, source, cache, 100*time.Millisecond).RunCycle(ctx)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, apperrors.IsFirstPageFailure(err))
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestRunCycleDeadlineBeforeFirstPageIsNotFirstPageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockRosterSource(ctrl)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	snap, err := newTestIngestor(t, source, nil, time.Second).RunCycle(ctx)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, apperrors.IsFirstPageFailure(err))
}
