// Package transport defines request and response DTOs for the pipeline context.
package transport

import (
	"time"

	"leadflow_backend/internal/pipeline/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MoveRequest struct {
	StageID uuid.UUID `json:"stageId" validate:"required"`
}

type CreateOpportunityRequest struct {
	LeadID     uuid.UUID  `json:"leadId" validate:"required"`
	StageID    uuid.UUID  `json:"stageId" validate:"required"`
	Title      string     `json:"title" validate:"required,max=200"`
	ValueCents int64      `json:"valueCents" validate:"gte=0"`
	OwnerID    *uuid.UUID `json:"ownerId,omitempty"`
}

type OpportunityResponse struct {
	ID             uuid.UUID  `json:"id"`
	PipelineID     uuid.UUID  `json:"pipelineId"`
	LeadID         uuid.UUID  `json:"leadId"`
	StageID        uuid.UUID  `json:"stageId"`
	Title          string     `json:"title"`
	ValueCents     int64      `json:"valueCents"`
	OwnerID        *uuid.UUID `json:"ownerId,omitempty"`
	EnteredStageAt time.Time  `json:"enteredStageAt"`
	ClosedAt       *time.Time `json:"closedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func ToOpportunityResponse(opp repository.Opportunity) OpportunityResponse {
	return OpportunityResponse{
		ID:             opp.ID,
		PipelineID:     opp.PipelineID,
		LeadID:         opp.LeadID,
		StageID:        opp.StageID,
		Title:          opp.Title,
		ValueCents:     opp.ValueCents,
		OwnerID:        opp.OwnerID,
		EnteredStageAt: opp.EnteredStageAt,
		ClosedAt:       opp.ClosedAt,
		CreatedAt:      opp.CreatedAt,
		UpdatedAt:      opp.UpdatedAt,
	}
}

type BoardOpportunity struct {
	OpportunityResponse
	StageName string `json:"stageName"`
}

// BoardAnalytics summarizes the open opportunities of a board read.
// Monetary fields are decimal currency amounts, not cents.
type BoardAnalytics struct {
	TotalOpportunities int             `json:"totalOpportunities"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	WeightedValue      decimal.Decimal `json:"weightedValue"`
	AvgValue           decimal.Decimal `json:"avgValue"`
}

type BoardResponse struct {
	Opportunities []BoardOpportunity `json:"opportunities"`
	Analytics     BoardAnalytics     `json:"analytics"`
}

// StageForecast is one stage's contribution to the pipeline forecast.
// Empty stages report zero count and zero values but are never omitted.
type StageForecast struct {
	StageID       uuid.UUID       `json:"stageId"`
	Name          string          `json:"name"`
	Probability   int             `json:"probability"`
	Count         int             `json:"count"`
	TotalValue    decimal.Decimal `json:"totalValue"`
	WeightedValue decimal.Decimal `json:"weightedValue"`
}

type ForecastResponse struct {
	PipelineID         uuid.UUID       `json:"pipelineId"`
	Stages             []StageForecast `json:"stages"`
	TotalOpportunities int             `json:"totalOpportunities"`
	TotalValue         decimal.Decimal `json:"totalValue"`
	WeightedValue      decimal.Decimal `json:"weightedValue"`
	AvgValue           decimal.Decimal `json:"avgValue"`
}

type FunnelRow struct {
	Stage string `json:"stage"`
	Count int    `json:"count"`
}

type FunnelResponse struct {
	Funnel []FunnelRow `json:"funnel"`
}
