package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/kasir/internal/domain/member"
)

const (
	listMembersSQL = `SELECT id, name, phone, points, join_date FROM members ORDER BY id`

	getMemberByIDSQL = `SELECT id, name, phone, points, join_date FROM members WHERE id = $1`

	countMembersSQL = `SELECT count(*) FROM members`

	upsertMemberSQL = `INSERT INTO members (id, name, phone, points, join_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			points = EXCLUDED.points,
			join_date = EXCLUDED.join_date`
)

var _ member.Repository = (*MemberRepository)(nil)

// MemberRepository implements member.Repository backed by PostgreSQL.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a MemberRepository that uses the given pool.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// List returns all members ordered by ID.
func (r *MemberRepository) List(ctx context.Context) ([]member.Member, error) {
	rows, err := r.pool.Query(ctx, listMembersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return pgx.CollectRows(rows, scanMember)
}

// GetByID returns member.ErrNotFound when no member has the id.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*member.Member, error) {
	rows, err := r.pool.Query(ctx, getMemberByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting member %q: %w", id, err)
	}

	m, err := pgx.CollectExactlyOneRow(rows, scanMember)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrNotFound
		}
		return nil, fmt.Errorf("getting member %q: %w", id, err)
	}
	return &m, nil
}

// Count returns the number of registered members.
func (r *MemberRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, countMembersSQL).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting members: %w", err)
	}
	return n, nil
}

// Upsert inserts or replaces members in a single batch.
func (r *MemberRepository) Upsert(ctx context.Context, members []member.Member) error {
	if len(members) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range members {
		batch.Queue(upsertMemberSQL, m.ID, m.Name, m.Phone, m.Points, m.JoinDate)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upserting %d members: %w", len(members), err)
	}
	return nil
}

func scanMember(row pgx.CollectableRow) (member.Member, error) {
	var m member.Member
	err := row.Scan(&m.ID, &m.Name, &m.Phone, &m.Points, &m.JoinDate)
	return m, err
}
