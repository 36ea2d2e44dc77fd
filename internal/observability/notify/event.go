package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// OpsAlertPayload is the canonical operational alert, raised when a background
// cycle fails in a way an operator must look at.
type OpsAlertPayload struct {
	// Kind identifies the alert source, e.g. "roster_first_page_failure".
	Kind       string
	Summary    string
	CycleID    string
	Error      string
	ErrorClass string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink describes a destination capable of consuming operational alerts.
type Sink interface {
	SendOpsAlert(ctx context.Context, payload OpsAlertPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload OpsAlertPayload) error

// SendOpsAlert implements the Sink interface.
func (f SinkFunc) SendOpsAlert(ctx context.Context, payload OpsAlertPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
