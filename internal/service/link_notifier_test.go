package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
	"github.com/target/guardlink/internal/mocks/fakes"
	"github.com/target/guardlink/internal/retry"
)

func newTestLinkNotifier(t *testing.T, m *fakes.Messenger) *LinkNotifier {
	t.Helper()
	n, err := NewLinkNotifier(LinkNotifierOptions{
		Messenger: m,
		Channel:   "chan-link",
		Policy:    retry.Policy{MaxAttempts: 3},
	})
	require.NoError(t, err)
	return n
}

func TestNotifyOutcomeTexts(t *testing.T) {
	acct := &model.Account{ID: 42, DisplayName: "viewer"}
	tests := []struct {
		name    string
		outcome model.SessionOutcome
		want    string
	}{
		{
			name:    "timed out",
			outcome: model.SessionOutcome{State: model.SessionTimedOut},
			want:    "expired",
		},
		{
			name:    "linked with tier",
			outcome: model.SessionOutcome{State: model.SessionSucceeded, BindResult: model.BindSuccess, Account: acct, Tier: 1},
			want:    "Linked viewer (uid 42). Supporter tier 1",
		},
		{
			name:    "linked without tier",
			outcome: model.SessionOutcome{State: model.SessionSucceeded, BindResult: model.BindSuccess, Account: acct},
			want:    "Linked viewer (uid 42).",
		},
		{
			name:    "already bound",
			outcome: model.SessionOutcome{State: model.SessionSucceeded, BindResult: model.BindAlreadyBound, Account: acct},
			want:    "already linked",
		},
		{
			name:    "not registered",
			outcome: model.SessionOutcome{State: model.SessionSucceeded, BindResult: model.BindMemberNotFound},
			want:    "not registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakes.Messenger{}
			tt.outcome.Requester = "member-a"
			require.NoError(t, newTestLinkNotifier(t, m).NotifyOutcome(context.Background(), tt.outcome))

			sent := m.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, core.Message{ChannelID: "chan-link", RecipientID: "member-a", Content: sent[0].Content}, sent[0])
			assert.Contains(t, sent[0].Content, tt.want)
		})
	}
}

func TestNotifyOutcomeSkipsPending(t *testing.T) {
	m := &fakes.Messenger{}
	require.NoError(t, newTestLinkNotifier(t, m).NotifyOutcome(context.Background(), model.SessionOutcome{State: model.SessionPending}))
	assert.Empty(t, m.Sent())
}

func TestNotifyOutcomeRetriesThenFails(t *testing.T) {
	m := &fakes.Messenger{Fail: func(core.Message) error { return errors.New("429") }}
	err := newTestLinkNotifier(t, m).NotifyOutcome(context.Background(), model.SessionOutcome{
		Requester: "member-a",
		State:     model.SessionTimedOut,
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotificationFailure(err))
	assert.Len(t, m.Sent(), 3)
}

func TestNotifyOutcomeRecoversOnRetry(t *testing.T) {
	calls := 0
	m := &fakes.Messenger{Fail: func(core.Message) error {
		calls++
		if calls < 3 {
			return errors.New("502")
		}
		return nil
	}}
	err := newTestLinkNotifier(t, m).NotifyOutcome(context.Background(), model.SessionOutcome{State: model.SessionTimedOut})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}
