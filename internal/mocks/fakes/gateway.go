package fakes

import (
	"context"
	"sync"

	"github.com/target/guardlink/internal/core"
)

var (
	_ core.RoleGateway = (*RoleGateway)(nil)
	_ core.Messenger   = (*Messenger)(nil)
)

// RoleCall records one gateway call.
type RoleCall struct {
	Op       string // "grant" or "revoke"
	MemberID string
	RoleID   string
}

// RoleGateway records grant and revoke calls. Fail, when set, decides per call
// whether it fails.
type RoleGateway struct {
	mu    sync.Mutex
	calls []RoleCall
	Fail  func(call RoleCall) error
}

func (g *RoleGateway) Grant(_ context.Context, memberID, roleID string) error {
	return g.record(RoleCall{Op: "grant", MemberID: memberID, RoleID: roleID})
}

func (g *RoleGateway) Revoke(_ context.Context, memberID, roleID string) error {
	return g.record(RoleCall{Op: "revoke", MemberID: memberID, RoleID: roleID})
}

func (g *RoleGateway) record(c RoleCall) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, c)
	if g.Fail != nil {
		return g.Fail(c)
	}
	return nil
}

// Calls returns every recorded call in order.
func (g *RoleGateway) Calls() []RoleCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]RoleCall(nil), g.calls...)
}

// Count returns the number of recorded calls for op.
func (g *RoleGateway) Count(op string) int {
	n := 0
	for _, c := range g.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls.
func (g *RoleGateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}

// Messenger records sent messages.
type Messenger struct {
	mu   sync.Mutex
	sent []core.Message
	Fail func(msg core.Message) error
}

func (m *Messenger) Send(_ context.Context, msg core.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	if m.Fail != nil {
		return m.Fail(msg)
	}
	return nil
}

// Sent returns every message passed to Send, failed ones included.
func (m *Messenger) Sent() []core.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.Message(nil), m.sent...)
}
