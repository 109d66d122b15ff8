package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StageAggregate is one stage's rollup of open opportunities. Stages with
// no opportunities still produce a row with zero count and value.
type StageAggregate struct {
	StageID     uuid.UUID
	Name        string
	Probability int
	Count       int
	TotalCents  int64
}

// AggregateByStage rolls up open opportunities per stage of a pipeline in
// one snapshot query. Passing a stage ID narrows the result to that stage;
// the LEFT JOIN keeps empty stages present either way.
func (r *Repository) AggregateByStage(ctx context.Context, pipelineID uuid.UUID, stageID *uuid.UUID) ([]StageAggregate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.name, s.probability, COUNT(o.id), COALESCE(SUM(o.value_cents), 0)
		FROM pipeline_stages s
		LEFT JOIN pipeline_opportunities o ON o.stage_id = s.id AND o.closed_at IS NULL
		WHERE s.pipeline_id = $1 AND ($2::uuid IS NULL OR s.id = $2)
		GROUP BY s.id, s.name, s.probability, s.display_order
		ORDER BY s.display_order ASC
	`, pipelineID, stageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]StageAggregate, 0)
	for rows.Next() {
		var item StageAggregate
		if err := rows.Scan(&item.StageID, &item.Name, &item.Probability, &item.Count, &item.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// ListPipelineIDs returns every pipeline's ID for scan fan-out.
func (r *Repository) ListPipelineIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM pipelines ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// RottingOpportunity is an open opportunity that has outstayed its stage's
// rotting threshold.
type RottingOpportunity struct {
	OpportunityID  uuid.UUID
	PipelineID     uuid.UUID
	LeadID         uuid.UUID
	StageID        uuid.UUID
	StageName      string
	OwnerID        *uuid.UUID
	EnteredStageAt time.Time
	RottingDays    int
}

// ListRottingOpportunities finds open opportunities in the pipeline whose
// time in stage exceeds the stage's rotting_days. Stages without a
// threshold never rot.
func (r *Repository) ListRottingOpportunities(ctx context.Context, pipelineID uuid.UUID, now time.Time) ([]RottingOpportunity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT o.id, o.pipeline_id, o.lead_id, o.stage_id, s.name, o.owner_id, o.entered_stage_at, s.rotting_days
		FROM pipeline_opportunities o
		JOIN pipeline_stages s ON s.id = o.stage_id
		WHERE o.pipeline_id = $1
		  AND o.closed_at IS NULL
		  AND s.rotting_days IS NOT NULL
		  AND o.entered_stage_at < $2::timestamptz - make_interval(days => s.rotting_days)
		ORDER BY o.entered_stage_at ASC
	`, pipelineID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]RottingOpportunity, 0)
	for rows.Next() {
		var item RottingOpportunity
		if err := rows.Scan(
			&item.OpportunityID, &item.PipelineID, &item.LeadID, &item.StageID,
			&item.StageName, &item.OwnerID, &item.EnteredStageAt, &item.RottingDays,
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
