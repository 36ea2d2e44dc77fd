// Package fakes contains hand-written in-memory doubles for core ports.
// They hold real state, so tests can assert on the store after a workflow ran.
package fakes

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

var _ core.UserStore = (*UserStore)(nil)

// UserStore is an in-memory core.UserStore with the same bind and
// read-modify-write semantics as the Postgres repository.
type UserStore struct {
	mu       sync.Mutex
	members  map[string]*model.Member
	accounts map[int64]model.ExternalAccount

	// Saves counts committed UpdateMember calls.
	Saves int
	// UpdateErr, when set, fails every UpdateMember call.
	UpdateErr error
	Now       func() time.Time
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{
		members:  make(map[string]*model.Member),
		accounts: make(map[int64]model.ExternalAccount),
		Now:      time.Now,
	}
}

// PutMember stores a copy of m, replacing any existing record.
func (s *UserStore) PutMember(m *model.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = cloneMember(m)
}

// Member returns a copy of the stored member, or nil.
func (s *UserStore) Member(id string) *model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.members[id]; ok {
		return cloneMember(m)
	}
	return nil
}

// Account returns the stored external account.
func (s *UserStore) Account(id int64) (model.ExternalAccount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	return a, ok
}

func (s *UserStore) UpsertMember(_ context.Context, req model.UpsertMemberRequest) (*model.Member, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	m, ok := s.members[req.ID]
	if !ok {
		m = &model.Member{ID: req.ID, CreatedAt: now}
		s.members[req.ID] = m
	}
	m.DisplayName = req.DisplayName
	m.IdentifyNumber = req.IdentifyNumber
	m.UpdatedAt = now
	return cloneMember(m), nil
}

func (s *UserStore) GetMember(_ context.Context, id string) (*model.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[id]
	if !ok {
		return nil, apperrors.NotFoundf("member %s not found", id)
	}
	return cloneMember(m), nil
}

func (s *UserStore) UpsertExternalAccount(_ context.Context, acct model.ExternalAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct.UpdatedAt = s.Now()
	s.accounts[acct.ID] = acct
	return nil
}

func (s *UserStore) BindExternalAccount(_ context.Context, memberID string, accountID int64) (model.BindResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	if !ok {
		return model.BindMemberNotFound, nil
	}
	if _, ok := s.accounts[accountID]; !ok {
		return model.BindExternalAccountNotFound, nil
	}
	if m.ExternalAccountID != nil {
		return model.BindAlreadyBound, nil
	}
	for _, other := range s.members {
		if other.ExternalAccountID != nil && *other.ExternalAccountID == accountID {
			return model.BindAlreadyBound, nil
		}
	}
	id := accountID
	m.ExternalAccountID = &id
	m.UpdatedAt = s.Now()
	return model.BindSuccess, nil
}

func (s *UserStore) FindMembersWithNonZeroTier(_ context.Context) ([]*model.Member, error) {
	return s.find(func(m *model.Member) bool { return m.Tier != model.TierNone }), nil
}

func (s *UserStore) FindMembersWithBoundAccount(_ context.Context) ([]*model.Member, error) {
	return s.find(func(m *model.Member) bool { return m.ExternalAccountID != nil }), nil
}

func (s *UserStore) find(keep func(*model.Member) bool) []*model.Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Member
	for _, m := range s.members {
		if keep(m) {
			out = append(out, cloneMember(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *UserStore) UpdateMember(_ context.Context, id string, fn core.MemberMutator) (*model.Member, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.UpdateErr != nil {
		return nil, false, s.UpdateErr
	}
	stored, ok := s.members[id]
	if !ok {
		return nil, false, apperrors.NotFoundf("member %s not found", id)
	}
	work := cloneMember(stored)
	if err := fn(work); err != nil {
		if errors.Is(err, core.ErrNoChange) {
			return cloneMember(stored), false, nil
		}
		return nil, false, err
	}
	work.UpdatedAt = s.Now()
	s.members[id] = work
	if work.ExternalAccountID != nil {
		if a, ok := s.accounts[*work.ExternalAccountID]; ok {
			a.Tier = work.Tier
			s.accounts[a.ID] = a
		}
	}
	s.Saves++
	return cloneMember(work), true, nil
}

func cloneMember(m *model.Member) *model.Member {
	c := *m
	c.Roles = m.Roles.Clone()
	if m.ExternalAccountID != nil {
		id := *m.ExternalAccountID
		c.ExternalAccountID = &id
	}
	return &c
}
