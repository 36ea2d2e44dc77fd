package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/target/guardlink/internal/observability/notify"
)

func TestNotifyOpsAlertFansOut(t *testing.T) {
	var mu sync.Mutex
	var got []string

	record := func(name string) notify.SinkFunc {
		return func(_ context.Context, p notify.OpsAlertPayload) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, name+":"+p.Kind+":"+p.Severity)
			return nil
		}
	}

	svc := NewService(Options{Sinks: []SinkRegistration{
		{Name: "a", Sink: record("a")},
		{Name: "nil", Sink: nil},
		{Name: "b", Sink: record("b")},
	}})

	assert.True(t, svc.Enabled())
	svc.NotifyOpsAlert(context.Background(), notify.OpsAlertPayload{Kind: "roster_first_page_failure"})

	assert.ElementsMatch(t, []string{
		"a:roster_first_page_failure:critical",
		"b:roster_first_page_failure:critical",
	}, got)
}

func TestNotifyOpsAlertSwallowsSinkErrors(t *testing.T) {
	calls := 0
	svc := NewService(Options{Sinks: []SinkRegistration{{
		Sink: notify.SinkFunc(func(context.Context, notify.OpsAlertPayload) error {
			calls++
			return errors.New("webhook down")
		}),
	}}})

	svc.NotifyOpsAlert(context.Background(), notify.OpsAlertPayload{Kind: "x"})
	assert.Equal(t, 1, calls)
}

func TestDisabledWithoutSinks(t *testing.T) {
	svc := NewService(Options{})
	assert.False(t, svc.Enabled())
	svc.NotifyOpsAlert(context.Background(), notify.OpsAlertPayload{})

	var nilSvc *Service
	assert.False(t, nilSvc.Enabled())
}
