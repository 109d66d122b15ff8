// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadflow_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event     = events.Event
	Bus       = events.Bus
	Handler   = events.Handler
	BaseEvent = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadAssigned is published when a lead is assigned to a representative,
// including each applied item of a bulk distribution.
type LeadAssigned struct {
	BaseEvent
	LeadID      uuid.UUID  `json:"leadId"`
	PreviousRep *uuid.UUID `json:"previousRep,omitempty"`
	NewRep      uuid.UUID  `json:"newRep"`
	AssignedBy  uuid.UUID  `json:"assignedBy"`
	Method      string     `json:"method"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// =============================================================================
// Pipeline Domain Events
// =============================================================================

// OpportunityStageMoved is published when an opportunity changes pipeline stage.
// Same-stage moves are no-ops and never produce this event.
type OpportunityStageMoved struct {
	BaseEvent
	OpportunityID uuid.UUID  `json:"opportunityId"`
	PipelineID    uuid.UUID  `json:"pipelineId"`
	FromStageID   uuid.UUID  `json:"fromStageId"`
	ToStageID     uuid.UUID  `json:"toStageId"`
	MovedByID     uuid.UUID  `json:"movedById"`
	OwnerID       *uuid.UUID `json:"ownerId,omitempty"`
	DurationDays  int        `json:"durationDays"`
}

func (e OpportunityStageMoved) EventName() string { return "pipeline.stage.moved" }

// OpportunityRotting is published by the rotting scan when an open opportunity
// has sat in a stage longer than the stage's rotting threshold.
type OpportunityRotting struct {
	BaseEvent
	OpportunityID uuid.UUID  `json:"opportunityId"`
	PipelineID    uuid.UUID  `json:"pipelineId"`
	StageID       uuid.UUID  `json:"stageId"`
	OwnerID       *uuid.UUID `json:"ownerId,omitempty"`
	DaysInStage   int        `json:"daysInStage"`
}

func (e OpportunityRotting) EventName() string { return "pipeline.opportunity.rotting" }
