package distribution

import (
	"context"
	"errors"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

// Audit titles written on successful assignments. A lead that already had
// an assignee is reassigned, everything else is a first assignment.
const (
	titleAssigned   = "Lead Assigned"
	titleReassigned = "Lead Reassigned"

	actionAssigned = "lead.assigned"
)

// Store defines the data access interface needed by the distribution
// service. This is a consumer-driven interface - only what distribution needs.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	UpdateAssignment(ctx context.Context, leadID, repID uuid.UUID) (repository.Lead, *uuid.UUID, error)
	ActiveCountsByRep(ctx context.Context, repIDs []uuid.UUID) (map[uuid.UUID]int, error)
	ActiveCounts(ctx context.Context) (map[uuid.UUID]int, error)
	RecordActivity(ctx context.Context, params repository.CreateActivityParams) error
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
}

// Service distributes leads across representatives and tracks workload.
type Service struct {
	store Store
	bus   events.Bus
	log   *logger.Logger
}

func New(store Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// Workloads returns active-lead counts per representative from one store
// snapshot. Every requested representative is present in the result;
// representatives the store has never seen report zero.
func (s *Service) Workloads(ctx context.Context, repIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(repIDs) == 0 {
		counts, err := s.store.ActiveCounts(ctx)
		if err != nil {
			return nil, s.storeUnavailable("workload snapshot", err)
		}
		return counts, nil
	}

	counts, err := s.store.ActiveCountsByRep(ctx, repIDs)
	if err != nil {
		return nil, s.storeUnavailable("workload snapshot", err)
	}

	result := make(map[uuid.UUID]int, len(repIDs))
	for _, repID := range repIDs {
		result[repID] = counts[repID]
	}
	return result, nil
}

// BulkAssign plans and applies a batch distribution. Planning failures
// (bad policy, missing representatives) reject the whole request before any
// write; once applying starts, items succeed or fail independently.
func (s *Service) BulkAssign(ctx context.Context, req transport.BulkAssignRequest, actorID uuid.UUID) (transport.BatchResult, error) {
	policy, err := ParsePolicy(req.Method)
	if err != nil {
		return transport.BatchResult{}, err
	}

	var workloads map[uuid.UUID]int
	if policy == PolicyByWorkload && len(req.LeadIDs) > 0 && len(req.AssignToIDs) > 0 {
		workloads, err = s.store.ActiveCountsByRep(ctx, req.AssignToIDs)
		if err != nil {
			return transport.BatchResult{}, s.storeUnavailable("workload snapshot", err)
		}
	}

	plan, err := BuildPlan(policy, req.LeadIDs, req.AssignToIDs, workloads)
	if err != nil {
		return transport.BatchResult{}, err
	}
	if plan.Warning != "" {
		s.log.Warn("distribution policy degraded", "method", string(policy), "warning", plan.Warning)
	}

	return s.Apply(ctx, plan, actorID, req.Reason), nil
}

// Apply executes a plan pair by pair, in plan order. Each pair is its own
// transaction: a failed lead never rolls back or aborts the others, and a
// lead listed twice is simply assigned twice with the later pair winning.
func (s *Service) Apply(ctx context.Context, plan Plan, actorID uuid.UUID, reason string) transport.BatchResult {
	result := transport.BatchResult{
		Total:   len(plan.Assignments),
		Results: make([]transport.AssignmentResult, 0, len(plan.Assignments)),
		Warning: plan.Warning,
	}

	for _, pair := range plan.Assignments {
		lead, prior, err := s.store.UpdateAssignment(ctx, pair.LeadID, pair.RepID)
		if err != nil {
			result.FailCount++
			result.Results = append(result.Results, transport.AssignmentResult{
				LeadID: pair.LeadID,
				Error:  s.classifyAssignError(err),
			})
			continue
		}

		s.recordAssignment(ctx, lead, prior, actorID, plan.Policy, reason)

		repID := pair.RepID
		result.SuccessCount++
		result.Results = append(result.Results, transport.AssignmentResult{
			LeadID:     pair.LeadID,
			Success:    true,
			AssignedTo: &repID,
		})
	}

	return result
}

// Assign assigns a single lead to a representative.
func (s *Service) Assign(ctx context.Context, leadID, repID, actorID uuid.UUID) (transport.LeadResponse, error) {
	if _, err := s.store.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, s.storeUnavailable("lead lookup", err)
	}

	lead, prior, err := s.store.UpdateAssignment(ctx, leadID, repID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, s.storeUnavailable("lead assignment", err)
	}

	s.recordAssignment(ctx, lead, prior, actorID, PolicyManual, "")

	return transport.ToLeadResponse(lead), nil
}

// Timeline returns the lead's audit log, newest first.
func (s *Service) Timeline(ctx context.Context, leadID uuid.UUID) ([]transport.ActivityResponse, error) {
	if _, err := s.store.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, s.storeUnavailable("lead lookup", err)
	}

	entries, err := s.store.ListActivities(ctx, leadID)
	if err != nil {
		return nil, s.storeUnavailable("timeline read", err)
	}

	out := make([]transport.ActivityResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, transport.ToActivityResponse(entry))
	}
	return out, nil
}

// recordAssignment writes the audit entry and publishes the domain event
// for one committed assignment. The assignment itself is already durable;
// an audit write failure is logged, not propagated.
func (s *Service) recordAssignment(ctx context.Context, lead repository.Lead, prior *uuid.UUID, actorID uuid.UUID, policy Policy, reason string) {
	title := titleAssigned
	if prior != nil {
		title = titleReassigned
	}

	leadID := lead.ID
	metadata := map[string]any{
		"method": string(policy),
		"repId":  lead.AssignedToID,
	}
	if prior != nil {
		metadata["previousRepId"] = *prior
	}

	detail := "assigned via " + string(policy)
	if reason != "" {
		detail += ". Reason: " + reason
	}

	err := s.store.RecordActivity(ctx, repository.CreateActivityParams{
		LeadID:   &leadID,
		ActorID:  actorID,
		Action:   actionAssigned,
		Title:    title,
		Detail:   &detail,
		Metadata: metadata,
	})
	if err != nil {
		s.log.Error("failed to record assignment activity", "error", err, "leadId", lead.ID)
	}

	if lead.AssignedToID == nil {
		return
	}
	s.bus.Publish(ctx, events.LeadAssigned{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		PreviousRep: prior,
		NewRep:      *lead.AssignedToID,
		AssignedBy:  actorID,
		Method:      string(policy),
	})
}

func (s *Service) classifyAssignError(err error) string {
	if errors.Is(err, repository.ErrNotFound) {
		return "lead not found"
	}
	s.log.DatabaseError("lead assignment", err)
	return "lead store unavailable"
}

func (s *Service) storeUnavailable(op string, err error) *apperr.Error {
	s.log.DatabaseError(op, err)
	return apperr.Unavailable("lead store unavailable", err)
}
