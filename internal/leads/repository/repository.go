package repository

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID             uuid.UUID
	CompanyName    string
	Region         *string
	ValueCents     int64
	LifecycleStage string
	AssignedToID   *uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

const leadSelectCols = `
	id, company_name, region, value_cents, lifecycle_stage, assigned_to_id, created_at, updated_at`

// leadRowScanner is satisfied by pgx.Rows and pgx.Row so scanLead can be
// shared between single-row and multi-row queries.
type leadRowScanner interface {
	Scan(dest ...any) error
}

func scanLead(s leadRowScanner) (Lead, error) {
	var lead Lead
	err := s.Scan(
		&lead.ID,
		&lead.CompanyName,
		&lead.Region,
		&lead.ValueCents,
		&lead.LifecycleStage,
		&lead.AssignedToID,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	return lead, err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, `
		SELECT`+leadSelectCols+`
		FROM leads WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// UpdateAssignment sets a lead's assignee in a single transaction and
// returns the updated lead together with the previous assignee. The row is
// locked before the prior assignee is read so that concurrent assignments
// of the same lead serialize instead of interleaving.
func (r *Repository) UpdateAssignment(ctx context.Context, leadID, repID uuid.UUID) (Lead, *uuid.UUID, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, nil, err
	}
	defer tx.Rollback(ctx)

	var prior *uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT assigned_to_id FROM leads WHERE id = $1 FOR UPDATE
	`, leadID).Scan(&prior)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, nil, ErrNotFound
	}
	if err != nil {
		return Lead{}, nil, err
	}

	lead, err := scanLead(tx.QueryRow(ctx, `
		UPDATE leads SET assigned_to_id = $2, updated_at = now()
		WHERE id = $1
		RETURNING`+leadSelectCols+`
	`, leadID, repID))
	if err != nil {
		return Lead{}, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, nil, err
	}
	return lead, prior, nil
}

// ActiveCountsByRep returns, for the given representatives, how many leads
// each currently holds in a non-terminal lifecycle stage. The result comes
// from one snapshot query; representatives with no active leads are simply
// absent from the returned map.
func (r *Repository) ActiveCountsByRep(ctx context.Context, repIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to_id, COUNT(*)
		FROM leads
		WHERE assigned_to_id = ANY($1)
		  AND lifecycle_stage NOT IN ($2, $3)
		GROUP BY assigned_to_id
	`, repIDs, domain.StageWon, domain.StageLost)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCounts(rows)
}

// ActiveCounts returns active-lead counts for every representative that
// currently holds at least one open lead.
func (r *Repository) ActiveCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to_id, COUNT(*)
		FROM leads
		WHERE assigned_to_id IS NOT NULL
		  AND lifecycle_stage NOT IN ($1, $2)
		GROUP BY assigned_to_id
	`, domain.StageWon, domain.StageLost)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCounts(rows)
}

// ActiveStageCounts returns how many open leads sit in each lifecycle
// stage. Terminal stages are excluded; stages with no leads are absent.
func (r *Repository) ActiveStageCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT lifecycle_stage, COUNT(*)
		FROM leads
		WHERE lifecycle_stage NOT IN ($1, $2)
		GROUP BY lifecycle_stage
	`, domain.StageWon, domain.StageLost)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, err
		}
		counts[stage] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func collectCounts(rows pgx.Rows) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var repID uuid.UUID
		var count int
		if err := rows.Scan(&repID, &count); err != nil {
			return nil, err
		}
		counts[repID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}
