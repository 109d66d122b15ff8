// Package service implements the stage transition engine and the forecast
// aggregator for the pipeline context.
package service

import (
	"context"
	"errors"
	"time"

	"leadflow_backend/internal/events"
	leadsrepo "leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/pipeline/repository"
	"leadflow_backend/internal/pipeline/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	titleStageChanged       = "Stage Changed"
	titleOpportunityCreated = "Opportunity Created"

	actionStageMoved         = "opportunity.stage_moved"
	actionOpportunityCreated = "opportunity.created"
)

// Store defines the data access interface needed by the transition engine.
type Store interface {
	GetOpportunity(ctx context.Context, id uuid.UUID) (repository.Opportunity, error)
	MoveStage(ctx context.Context, oppID, toStageID, movedByID uuid.UUID, now time.Time) (repository.MoveOutcome, error)
	CreateOpportunity(ctx context.Context, params repository.CreateOpportunityParams) (repository.Opportunity, error)
	ListBoard(ctx context.Context, pipelineID uuid.UUID) ([]repository.BoardOpportunity, error)
}

// ActivityRecorder appends audit entries; implemented by the leads repository.
type ActivityRecorder interface {
	RecordActivity(ctx context.Context, params leadsrepo.CreateActivityParams) error
}

// Service moves opportunities between pipeline stages.
type Service struct {
	store    Store
	activity ActivityRecorder
	bus      events.Bus
	log      *logger.Logger
}

func New(store Store, activity ActivityRecorder, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, activity: activity, bus: bus, log: log}
}

// Move transitions an opportunity to another stage of its pipeline. The
// store performs the lock, the history insert and the stage update in one
// transaction; a request naming the current stage returns the opportunity
// unchanged without recording anything.
func (s *Service) Move(ctx context.Context, oppID, toStageID, movedByID uuid.UUID) (transport.OpportunityResponse, error) {
	outcome, err := s.store.MoveStage(ctx, oppID, toStageID, movedByID, time.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return transport.OpportunityResponse{}, apperr.NotFound("opportunity not found")
		case errors.Is(err, repository.ErrStageNotFound):
			return transport.OpportunityResponse{}, apperr.NotFound("stage not found in pipeline")
		case errors.Is(err, repository.ErrLocked):
			return transport.OpportunityResponse{}, apperr.Conflict("opportunity is being moved by another operation")
		default:
			return transport.OpportunityResponse{}, s.storeUnavailable("stage move", err)
		}
	}

	if !outcome.Moved {
		return transport.ToOpportunityResponse(outcome.Opportunity), nil
	}

	opp := outcome.Opportunity
	leadID := opp.LeadID
	oppRef := opp.ID
	err = s.activity.RecordActivity(ctx, leadsrepo.CreateActivityParams{
		LeadID:        &leadID,
		OpportunityID: &oppRef,
		ActorID:       movedByID,
		Action:        actionStageMoved,
		Title:         titleStageChanged,
		Metadata: map[string]any{
			"fromStageId":  outcome.FromStageID,
			"toStageId":    outcome.ToStageID,
			"durationDays": outcome.DurationDays,
		},
	})
	if err != nil {
		s.log.Error("failed to record stage move activity", "error", err, "opportunityId", opp.ID)
	}

	s.bus.Publish(ctx, events.OpportunityStageMoved{
		BaseEvent:     events.NewBaseEvent(),
		OpportunityID: opp.ID,
		PipelineID:    opp.PipelineID,
		FromStageID:   outcome.FromStageID,
		ToStageID:     outcome.ToStageID,
		MovedByID:     movedByID,
		OwnerID:       opp.OwnerID,
		DurationDays:  outcome.DurationDays,
	})

	return transport.ToOpportunityResponse(opp), nil
}

// Get returns a single opportunity by ID.
func (s *Service) Get(ctx context.Context, oppID uuid.UUID) (transport.OpportunityResponse, error) {
	opp, err := s.store.GetOpportunity(ctx, oppID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.OpportunityResponse{}, apperr.NotFound("opportunity not found")
		}
		return transport.OpportunityResponse{}, s.storeUnavailable("opportunity read", err)
	}
	return transport.ToOpportunityResponse(opp), nil
}

// CreateOpportunity opens an opportunity in a stage of the pipeline.
func (s *Service) CreateOpportunity(ctx context.Context, pipelineID uuid.UUID, req transport.CreateOpportunityRequest, actorID uuid.UUID) (transport.OpportunityResponse, error) {
	opp, err := s.store.CreateOpportunity(ctx, repository.CreateOpportunityParams{
		PipelineID: pipelineID,
		LeadID:     req.LeadID,
		StageID:    req.StageID,
		Title:      req.Title,
		ValueCents: req.ValueCents,
		OwnerID:    req.OwnerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrStageNotFound):
			return transport.OpportunityResponse{}, apperr.NotFound("stage not found in pipeline")
		case errors.Is(err, repository.ErrLeadNotFound):
			return transport.OpportunityResponse{}, apperr.NotFound("lead not found")
		default:
			return transport.OpportunityResponse{}, s.storeUnavailable("opportunity create", err)
		}
	}

	leadID := opp.LeadID
	oppRef := opp.ID
	recErr := s.activity.RecordActivity(ctx, leadsrepo.CreateActivityParams{
		LeadID:        &leadID,
		OpportunityID: &oppRef,
		ActorID:       actorID,
		Action:        actionOpportunityCreated,
		Title:         titleOpportunityCreated,
		Metadata: map[string]any{
			"stageId":    opp.StageID,
			"valueCents": opp.ValueCents,
		},
	})
	if recErr != nil {
		s.log.Error("failed to record opportunity activity", "error", recErr, "opportunityId", opp.ID)
	}

	return transport.ToOpportunityResponse(opp), nil
}

// Board returns the pipeline's open opportunities with rollup analytics.
func (s *Service) Board(ctx context.Context, pipelineID uuid.UUID) (transport.BoardResponse, error) {
	items, err := s.store.ListBoard(ctx, pipelineID)
	if err != nil {
		return transport.BoardResponse{}, s.storeUnavailable("board read", err)
	}

	resp := transport.BoardResponse{
		Opportunities: make([]transport.BoardOpportunity, 0, len(items)),
	}
	total := decimal.Zero
	weighted := decimal.Zero
	for _, item := range items {
		resp.Opportunities = append(resp.Opportunities, transport.BoardOpportunity{
			OpportunityResponse: transport.ToOpportunityResponse(item.Opportunity),
			StageName:           item.StageName,
		})
		total = total.Add(centsToDecimal(item.ValueCents))
		weighted = weighted.Add(weightedValue(item.ValueCents, item.StageProbability))
	}

	resp.Analytics = transport.BoardAnalytics{
		TotalOpportunities: len(items),
		TotalValue:         total,
		WeightedValue:      weighted,
		AvgValue:           average(total, len(items)),
	}
	return resp, nil
}

func (s *Service) storeUnavailable(op string, err error) *apperr.Error {
	s.log.DatabaseError(op, err)
	return apperr.Unavailable("pipeline store unavailable", err)
}
