package repository

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("opportunity not found")
	ErrStageNotFound = errors.New("stage not found in pipeline")
	ErrLeadNotFound  = errors.New("lead not found")
	// ErrLocked means another transaction holds the opportunity's row lock.
	ErrLocked = errors.New("opportunity is locked by another operation")
)

// pgLockNotAvailable is raised by FOR UPDATE NOWAIT when the row is taken.
const pgLockNotAvailable = "55P03"

// pgForeignKeyViolation fires when an opportunity references a missing lead.
const pgForeignKeyViolation = "23503"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Stage struct {
	ID           uuid.UUID
	PipelineID   uuid.UUID
	Name         string
	DisplayOrder int
	Probability  int
	IsFinal      bool
	RottingDays  *int
}

type Opportunity struct {
	ID             uuid.UUID
	PipelineID     uuid.UUID
	LeadID         uuid.UUID
	StageID        uuid.UUID
	Title          string
	ValueCents     int64
	OwnerID        *uuid.UUID
	EnteredStageAt time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// MoveOutcome describes a completed MoveStage call. Moved is false for a
// same-stage request, in which case no history was written and the
// opportunity is returned untouched.
type MoveOutcome struct {
	Opportunity  Opportunity
	Moved        bool
	FromStageID  uuid.UUID
	ToStageID    uuid.UUID
	DurationDays int
}

const opportunitySelectCols = `
	id, pipeline_id, lead_id, stage_id, title, value_cents, owner_id, entered_stage_at, closed_at, created_at, updated_at`

type opportunityRowScanner interface {
	Scan(dest ...any) error
}

func scanOpportunity(s opportunityRowScanner) (Opportunity, error) {
	var opp Opportunity
	err := s.Scan(
		&opp.ID,
		&opp.PipelineID,
		&opp.LeadID,
		&opp.StageID,
		&opp.Title,
		&opp.ValueCents,
		&opp.OwnerID,
		&opp.EnteredStageAt,
		&opp.ClosedAt,
		&opp.CreatedAt,
		&opp.UpdatedAt,
	)
	return opp, err
}

func (r *Repository) GetOpportunity(ctx context.Context, id uuid.UUID) (Opportunity, error) {
	opp, err := scanOpportunity(r.pool.QueryRow(ctx, `
		SELECT`+opportunitySelectCols+`
		FROM pipeline_opportunities WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Opportunity{}, ErrNotFound
	}
	if err != nil {
		return Opportunity{}, err
	}
	return opp, nil
}

// MoveStage moves an opportunity to another stage of its pipeline in one
// transaction. The opportunity row is locked with NOWAIT, so a concurrent
// move of the same opportunity surfaces as ErrLocked instead of queueing.
// The history insert and the stage update commit together or not at all.
//
// Moving to the stage the opportunity is already in is a no-op: the
// transaction ends without writing anything and Moved is false.
func (r *Repository) MoveStage(ctx context.Context, oppID, toStageID, movedByID uuid.UUID, now time.Time) (MoveOutcome, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return MoveOutcome{}, err
	}
	defer tx.Rollback(ctx)

	opp, err := scanOpportunity(tx.QueryRow(ctx, `
		SELECT`+opportunitySelectCols+`
		FROM pipeline_opportunities WHERE id = $1 FOR UPDATE NOWAIT
	`, oppID))
	if err != nil {
		return MoveOutcome{}, classifyLockErr(err)
	}

	if opp.StageID == toStageID {
		return MoveOutcome{Opportunity: opp, Moved: false, FromStageID: opp.StageID, ToStageID: toStageID}, nil
	}

	var target Stage
	err = tx.QueryRow(ctx, `
		SELECT id, pipeline_id, name, display_order, probability, is_final, rotting_days
		FROM pipeline_stages WHERE id = $1 AND pipeline_id = $2
	`, toStageID, opp.PipelineID).Scan(
		&target.ID, &target.PipelineID, &target.Name, &target.DisplayOrder,
		&target.Probability, &target.IsFinal, &target.RottingDays,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return MoveOutcome{}, ErrStageNotFound
	}
	if err != nil {
		return MoveOutcome{}, err
	}

	durationDays := domain.DurationDays(opp.EnteredStageAt, now)

	_, err = tx.Exec(ctx, `
		INSERT INTO pipeline_stage_history (opportunity_id, from_stage_id, to_stage_id, moved_by_id, duration_days)
		VALUES ($1, $2, $3, $4, $5)
	`, opp.ID, opp.StageID, toStageID, movedByID, durationDays)
	if err != nil {
		return MoveOutcome{}, err
	}

	var closedAt *time.Time
	if target.IsFinal {
		closedAt = &now
	}

	updated, err := scanOpportunity(tx.QueryRow(ctx, `
		UPDATE pipeline_opportunities
		SET stage_id = $2, entered_stage_at = $3, closed_at = $4, updated_at = $3
		WHERE id = $1
		RETURNING`+opportunitySelectCols+`
	`, opp.ID, toStageID, now, closedAt))
	if err != nil {
		return MoveOutcome{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return MoveOutcome{}, err
	}

	return MoveOutcome{
		Opportunity:  updated,
		Moved:        true,
		FromStageID:  opp.StageID,
		ToStageID:    toStageID,
		DurationDays: durationDays,
	}, nil
}

func classifyLockErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
		return ErrLocked
	}
	return err
}

type CreateOpportunityParams struct {
	PipelineID uuid.UUID
	LeadID     uuid.UUID
	StageID    uuid.UUID
	Title      string
	ValueCents int64
	OwnerID    *uuid.UUID
}

// CreateOpportunity inserts an opportunity into a stage of the pipeline.
// The stage must belong to the pipeline and the lead must exist.
func (r *Repository) CreateOpportunity(ctx context.Context, params CreateOpportunityParams) (Opportunity, error) {
	var stageID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM pipeline_stages WHERE id = $1 AND pipeline_id = $2
	`, params.StageID, params.PipelineID).Scan(&stageID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Opportunity{}, ErrStageNotFound
	}
	if err != nil {
		return Opportunity{}, err
	}

	opp, err := scanOpportunity(r.pool.QueryRow(ctx, `
		INSERT INTO pipeline_opportunities (pipeline_id, lead_id, stage_id, title, value_cents, owner_id, entered_stage_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING`+opportunitySelectCols+`
	`, params.PipelineID, params.LeadID, params.StageID, params.Title, params.ValueCents, params.OwnerID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return Opportunity{}, ErrLeadNotFound
		}
		return Opportunity{}, err
	}
	return opp, nil
}

// BoardOpportunity is an opportunity joined with its stage for board reads.
type BoardOpportunity struct {
	Opportunity
	StageName        string
	StageOrder       int
	StageProbability int
}

// ListBoard returns the pipeline's open opportunities ordered by stage
// display order, newest first within a stage.
func (r *Repository) ListBoard(ctx context.Context, pipelineID uuid.UUID) ([]BoardOpportunity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.pipeline_id, o.lead_id, o.stage_id, o.title, o.value_cents, o.owner_id,
			o.entered_stage_at, o.closed_at, o.created_at, o.updated_at,
			s.name, s.display_order, s.probability
		FROM pipeline_opportunities o
		JOIN pipeline_stages s ON s.id = o.stage_id
		WHERE o.pipeline_id = $1 AND o.closed_at IS NULL
		ORDER BY s.display_order ASC, o.created_at DESC
	`, pipelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]BoardOpportunity, 0)
	for rows.Next() {
		var item BoardOpportunity
		if err := rows.Scan(
			&item.ID, &item.PipelineID, &item.LeadID, &item.StageID, &item.Title, &item.ValueCents, &item.OwnerID,
			&item.EnteredStageAt, &item.ClosedAt, &item.CreatedAt, &item.UpdatedAt,
			&item.StageName, &item.StageOrder, &item.StageProbability,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
