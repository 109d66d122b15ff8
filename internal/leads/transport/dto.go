// Package transport defines request and response DTOs for the leads context.
package transport

import (
	"time"

	"leadflow_backend/internal/leads/repository"

	"github.com/google/uuid"
)

type BulkAssignRequest struct {
	LeadIDs     []uuid.UUID `json:"leadIds"`
	Method      string      `json:"method" validate:"required"`
	AssignToIDs []uuid.UUID `json:"assignToIds"`
	Reason      string      `json:"reason"`
}

type AssignRequest struct {
	RepID uuid.UUID `json:"repId" validate:"required"`
}

// AssignmentResult reports the outcome for one lead of a bulk assignment.
// AssignedTo is set on success, Error on failure.
type AssignmentResult struct {
	LeadID     uuid.UUID  `json:"leadId"`
	Success    bool       `json:"success"`
	AssignedTo *uuid.UUID `json:"assignedTo,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// BatchResult summarizes a bulk assignment. Every requested lead appears in
// Results exactly once per occurrence in the request, in request order.
type BatchResult struct {
	Total        int                `json:"total"`
	SuccessCount int                `json:"successCount"`
	FailCount    int                `json:"failCount"`
	Results      []AssignmentResult `json:"results"`
	Warning      string             `json:"warning,omitempty"`
}

type LeadResponse struct {
	ID             uuid.UUID  `json:"id"`
	CompanyName    string     `json:"companyName"`
	Region         *string    `json:"region,omitempty"`
	ValueCents     int64      `json:"valueCents"`
	LifecycleStage string     `json:"lifecycleStage"`
	AssignedToID   *uuid.UUID `json:"assignedToId,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:             lead.ID,
		CompanyName:    lead.CompanyName,
		Region:         lead.Region,
		ValueCents:     lead.ValueCents,
		LifecycleStage: lead.LifecycleStage,
		AssignedToID:   lead.AssignedToID,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
	}
}

// ActivityResponse is one audit log entry of a lead's timeline.
type ActivityResponse struct {
	ID            uuid.UUID      `json:"id"`
	LeadID        *uuid.UUID     `json:"leadId,omitempty"`
	OpportunityID *uuid.UUID     `json:"opportunityId,omitempty"`
	ActorID       uuid.UUID      `json:"actorId"`
	Action        string         `json:"action"`
	Title         string         `json:"title"`
	Detail        *string        `json:"detail,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
}

func ToActivityResponse(entry repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:            entry.ID,
		LeadID:        entry.LeadID,
		OpportunityID: entry.OpportunityID,
		ActorID:       entry.ActorID,
		Action:        entry.Action,
		Title:         entry.Title,
		Detail:        entry.Detail,
		Metadata:      entry.Metadata,
		CreatedAt:     entry.CreatedAt,
	}
}

// RepWorkload reports one representative's current active-lead count.
type RepWorkload struct {
	RepID       uuid.UUID `json:"repId"`
	ActiveLeads int       `json:"activeLeads"`
}

type WorkloadResponse struct {
	Workloads []RepWorkload `json:"workloads"`
}
