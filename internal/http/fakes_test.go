package httpx

import (
	"context"
	"sync"

	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

// fakeLinks is a LinkSessionService for handler tests.
type fakeLinks struct {
	mu         sync.Mutex
	admission  model.Admission
	admitErr   error
	sessions   []model.SessionInfo
	requesters []string
}

func (f *fakeLinks) Admit(_ context.Context, requester string) (model.Admission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requesters = append(f.requesters, requester)
	return f.admission, f.admitErr
}

func (f *fakeLinks) Sessions(context.Context) ([]model.SessionInfo, error) {
	return f.sessions, nil
}

// fakeRoster implements RosterRunner and SnapshotReader.
type fakeRoster struct {
	report   model.RosterCycleReport
	runErr   error
	snapshot *model.RosterSnapshot
	snapErr  error
	ctxErr   error
}

func (f *fakeRoster) RunOnce(ctx context.Context) (model.RosterCycleReport, error) {
	f.ctxErr = ctx.Err()
	return f.report, f.runErr
}

func (f *fakeRoster) LatestSnapshot(context.Context) (*model.RosterSnapshot, error) {
	return f.snapshot, f.snapErr
}

// fakeMembers is an in-memory MemberService.
type fakeMembers struct {
	mu      sync.Mutex
	members map[string]*model.Member
	err     error
}

func (f *fakeMembers) UpsertMember(_ context.Context, req model.UpsertMemberRequest) (*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.members == nil {
		f.members = map[string]*model.Member{}
	}
	m := &model.Member{ID: req.ID, DisplayName: req.DisplayName, IdentifyNumber: req.IdentifyNumber}
	f.members[req.ID] = m
	return m, nil
}

func (f *fakeMembers) GetMember(_ context.Context, id string) (*model.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, apperrors.NotFound("member not found")
	}
	return m, nil
}
