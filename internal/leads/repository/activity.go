package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Activity struct {
	ID            uuid.UUID
	LeadID        *uuid.UUID
	OpportunityID *uuid.UUID
	ActorID       uuid.UUID
	Action        string
	Title         string
	Detail        *string
	Metadata      map[string]any
	CreatedAt     time.Time
}

type CreateActivityParams struct {
	LeadID        *uuid.UUID
	OpportunityID *uuid.UUID
	ActorID       uuid.UUID
	Action        string
	Title         string
	Detail        *string
	Metadata      map[string]any
}

// RecordActivity appends one entry to the audit log. Entries are never
// updated or deleted afterwards.
func (r *Repository) RecordActivity(ctx context.Context, params CreateActivityParams) error {
	metadataJSON, err := json.Marshal(params.Metadata)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO lead_activity (lead_id, opportunity_id, actor_id, action, title, detail, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, params.LeadID, params.OpportunityID, params.ActorID, params.Action, params.Title, params.Detail, metadataJSON)
	return err
}

// ListActivities returns audit entries for a lead, newest first.
func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, opportunity_id, actor_id, action, title, detail, metadata, created_at
		FROM lead_activity
		WHERE lead_id = $1
		ORDER BY created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var entry Activity
		var rawMetadata []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.LeadID,
			&entry.OpportunityID,
			&entry.ActorID,
			&entry.Action,
			&entry.Title,
			&entry.Detail,
			&rawMetadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(rawMetadata) > 0 {
			_ = json.Unmarshal(rawMetadata, &entry.Metadata)
		}
		items = append(items, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
