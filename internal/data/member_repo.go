package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/target/guardlink/internal/core"
	"github.com/target/guardlink/internal/data/pgxutil"
	"github.com/target/guardlink/internal/domain/model"
	apperrors "github.com/target/guardlink/internal/errors"
)

const (
	memberColumns = `id, display_name, identify_number, external_account_id, tier, roles, sync_error, created_at, updated_at`

	// txAttempts reruns row-locking transactions aborted by deadlock.
	txAttempts = 3
)

// MemberRepo stores community members and their bound external accounts in Postgres.
type MemberRepo struct {
	DB   *sql.DB
	Time TimeProvider
}

var _ core.UserStore = (*MemberRepo)(nil)

// NewMemberRepo creates a MemberRepo. A nil tp uses the system clock.
func NewMemberRepo(db *sql.DB, tp TimeProvider) *MemberRepo {
	if tp == nil {
		tp = RealTimeProvider{}
	}
	return &MemberRepo{DB: db, Time: tp}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (*model.Member, error) {
	var (
		m       model.Member
		account sql.NullInt64
	)
	if err := row.Scan(
		&m.ID, &m.DisplayName, &m.IdentifyNumber, &account,
		&m.Tier, &m.Roles, &m.SyncError, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if account.Valid {
		id := account.Int64
		m.ExternalAccountID = &id
	}
	return &m, nil
}

// UpsertMember registers a member or refreshes its display name and identify number.
func (r *MemberRepo) UpsertMember(ctx context.Context, req model.UpsertMemberRequest) (*model.Member, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	now := r.Time.Now()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO members (id, display_name, identify_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    identify_number = EXCLUDED.identify_number,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+memberColumns,
		req.ID, req.DisplayName, req.IdentifyNumber, now)
	m, err := scanMember(row)
	if err != nil {
		return nil, fmt.Errorf("upsert member: %w", apperrors.MapDBError(err))
	}
	return m, nil
}

// GetMember loads one member.
func (r *MemberRepo) GetMember(ctx context.Context, id string) (*model.Member, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrMemberIDRequired
	}
	m, err := scanMember(r.DB.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return m, nil
}

// UpsertExternalAccount inserts or refreshes a provider account record.
func (r *MemberRepo) UpsertExternalAccount(ctx context.Context, acct model.ExternalAccount) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO external_accounts (id, display_name, level, tier, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    level = EXCLUDED.level,
		    tier = EXCLUDED.tier,
		    updated_at = EXCLUDED.updated_at`,
		acct.ID, acct.DisplayName, acct.Level, max(acct.Tier, 0), r.Time.Now())
	if err != nil {
		return fmt.Errorf("upsert external account %d: %w", acct.ID, apperrors.MapDBError(err))
	}
	return nil
}

// BindExternalAccount links accountID to memberID. A member with a binding,
// or an account already bound to someone else, yields BindAlreadyBound; the
// existing binding is never replaced.
func (r *MemberRepo) BindExternalAccount(ctx context.Context, memberID string, accountID int64) (model.BindResult, error) {
	var result model.BindResult
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{Attempts: txAttempts, Fn: func(tx *sql.Tx) error {
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx,
			`SELECT external_account_id FROM members WHERE id = $1 FOR UPDATE`, memberID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			result = model.BindMemberNotFound
			return nil
		}
		if err != nil {
			return err
		}

		var accountExists bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM external_accounts WHERE id = $1)`, accountID).Scan(&accountExists); err != nil {
			return err
		}
		if !accountExists {
			result = model.BindExternalAccountNotFound
			return nil
		}
		if current.Valid {
			result = model.BindAlreadyBound
			return nil
		}

		var boundElsewhere bool
		if err := tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM members WHERE external_account_id = $1)`, accountID).Scan(&boundElsewhere); err != nil {
			return err
		}
		if boundElsewhere {
			result = model.BindAlreadyBound
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET external_account_id = $2, updated_at = $3 WHERE id = $1`,
			memberID, accountID, r.Time.Now()); err != nil {
			return err
		}
		result = model.BindSuccess
		return nil
	}})
	if err != nil {
		mapped := apperrors.MapDBError(err)
		// A concurrent bind of the same account lost the unique race.
		if apperrors.IsConflict(mapped) {
			return model.BindAlreadyBound, nil
		}
		return "", fmt.Errorf("bind member %s: %w", memberID, mapped)
	}
	return result, nil
}

// FindMembersWithNonZeroTier lists members currently holding a tier.
func (r *MemberRepo) FindMembersWithNonZeroTier(ctx context.Context) ([]*model.Member, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM members WHERE tier <> 0 ORDER BY id`)
}

// FindMembersWithBoundAccount lists every bound member.
func (r *MemberRepo) FindMembersWithBoundAccount(ctx context.Context) ([]*model.Member, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM members WHERE external_account_id IS NOT NULL ORDER BY id`)
}

func (r *MemberRepo) list(ctx context.Context, query string) ([]*model.Member, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	var out []*model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return out, nil
}

// UpdateMember locks the member row, applies fn and writes tier, roles and
// sync flag in the same transaction, mirroring the tier onto the bound
// account. Bindings and identity fields are not changed by fn.
func (r *MemberRepo) UpdateMember(ctx context.Context, id string, fn core.MemberMutator) (*model.Member, bool, error) {
	if strings.TrimSpace(id) == "" {
		return nil, false, ErrMemberIDRequired
	}
	var (
		out     *model.Member
		written bool
	)
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{Attempts: txAttempts, Fn: func(tx *sql.Tx) error {
		stored, err := scanMember(tx.QueryRowContext(ctx,
			`SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		work := cloneMember(stored)
		if err := fn(work); err != nil {
			if errors.Is(err, core.ErrNoChange) {
				out = stored
				return nil
			}
			return err
		}

		now := r.Time.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE members SET tier = $2, roles = $3, sync_error = $4, updated_at = $5 WHERE id = $1`,
			id, work.Tier, work.Roles, work.SyncError, now); err != nil {
			return err
		}
		if stored.ExternalAccountID != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE external_accounts SET tier = $2, updated_at = $3 WHERE id = $1`,
				*stored.ExternalAccountID, work.Tier, now); err != nil {
				return err
			}
		}

		out = cloneMember(stored)
		out.Tier, out.Roles, out.SyncError, out.UpdatedAt = work.Tier, work.Roles, work.SyncError, now
		written = true
		return nil
	}})
	if err != nil {
		return nil, false, apperrors.MapDBError(err)
	}
	return out, written, nil
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
