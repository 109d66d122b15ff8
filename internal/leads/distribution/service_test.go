package distribution

import (
	"context"
	"strings"
	"sync"
	"testing"

	"leadflow_backend/internal/events"
	"leadflow_backend/internal/leads/repository"
	"leadflow_backend/internal/leads/transport"
	"leadflow_backend/platform/apperr"
	"leadflow_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeStore struct {
	mu          sync.Mutex
	leads       map[uuid.UUID]*repository.Lead
	activities  []repository.CreateActivityParams
	counts      map[uuid.UUID]int
	countsCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		leads:  make(map[uuid.UUID]*repository.Lead),
		counts: make(map[uuid.UUID]int),
	}
}

func (f *fakeStore) addLead(assignedTo *uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.leads[id] = &repository.Lead{ID: id, CompanyName: "co", LifecycleStage: "NEW", AssignedToID: assignedTo}
	return id
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return *lead, nil
}

func (f *fakeStore) UpdateAssignment(_ context.Context, leadID, repID uuid.UUID) (repository.Lead, *uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.Lead{}, nil, repository.ErrNotFound
	}
	prior := lead.AssignedToID
	assigned := repID
	lead.AssignedToID = &assigned
	return *lead, prior, nil
}

func (f *fakeStore) ActiveCountsByRep(_ context.Context, repIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countsCalls++
	out := make(map[uuid.UUID]int)
	for _, repID := range repIDs {
		if count, ok := f.counts[repID]; ok {
			out[repID] = count
		}
	}
	return out, nil
}

func (f *fakeStore) ActiveCounts(_ context.Context) (map[uuid.UUID]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countsCalls++
	out := make(map[uuid.UUID]int, len(f.counts))
	for repID, count := range f.counts {
		out[repID] = count
	}
	return out, nil
}

func (f *fakeStore) RecordActivity(_ context.Context, params repository.CreateActivityParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activities = append(f.activities, params)
	return nil
}

func (f *fakeStore) ListActivities(_ context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Activity, 0)
	for _, params := range f.activities {
		if params.LeadID != nil && *params.LeadID == leadID {
			out = append(out, repository.Activity{
				ID:       uuid.New(),
				LeadID:   params.LeadID,
				ActorID:  params.ActorID,
				Action:   params.Action,
				Title:    params.Title,
				Detail:   params.Detail,
				Metadata: params.Metadata,
			})
		}
	}
	return out, nil
}

func newTestService(store Store) *Service {
	log := logger.New("test")
	return New(store, events.NewInMemoryBus(log), log)
}

func TestBulkAssign_PartialFailureAccounting(t *testing.T) {
	store := newFakeStore()
	leadA := store.addLead(nil)
	leadB := store.addLead(nil)
	missing := uuid.New()
	rep := uuid.New()

	svc := newTestService(store)
	result, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		LeadIDs:     []uuid.UUID{leadA, missing, leadB},
		Method:      string(PolicyRoundRobin),
		AssignToIDs: []uuid.UUID{rep},
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Total != 3 || result.SuccessCount != 2 || result.FailCount != 1 {
		t.Fatalf("expected 3/2/1 accounting, got %d/%d/%d", result.Total, result.SuccessCount, result.FailCount)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 item results, got %d", len(result.Results))
	}
	if result.Results[1].LeadID != missing || result.Results[1].Success {
		t.Fatalf("expected middle item to fail in request order")
	}
	if result.Results[1].Error != "lead not found" {
		t.Fatalf("expected not-found item error, got %q", result.Results[1].Error)
	}
	if !result.Results[0].Success || !result.Results[2].Success {
		t.Fatalf("expected surrounding items to succeed independently")
	}
	if result.Results[0].AssignedTo == nil || *result.Results[0].AssignedTo != rep {
		t.Fatalf("expected successful items to carry the assignee")
	}
}

func TestBulkAssign_ByWorkloadSnapshotTakenOnce(t *testing.T) {
	store := newFakeStore()
	leadIDs := []uuid.UUID{store.addLead(nil), store.addLead(nil), store.addLead(nil)}
	repA := uuid.New()
	repB := uuid.New()
	store.counts[repA] = 4
	store.counts[repB] = 1

	svc := newTestService(store)
	result, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		LeadIDs:     leadIDs,
		Method:      string(PolicyByWorkload),
		AssignToIDs: []uuid.UUID{repA, repB},
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.countsCalls != 1 {
		t.Fatalf("expected one workload snapshot, got %d", store.countsCalls)
	}
	if *result.Results[0].AssignedTo != repB {
		t.Fatalf("expected least-loaded rep to receive the first lead")
	}
}

func TestBulkAssign_ActivityTitleDependsOnPriorAssignee(t *testing.T) {
	store := newFakeStore()
	previousRep := uuid.New()
	fresh := store.addLead(nil)
	taken := store.addLead(&previousRep)
	rep := uuid.New()

	svc := newTestService(store)
	_, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		LeadIDs:     []uuid.UUID{fresh, taken},
		Method:      string(PolicyManual),
		AssignToIDs: []uuid.UUID{rep},
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.activities) != 2 {
		t.Fatalf("expected 2 activity entries, got %d", len(store.activities))
	}
	if store.activities[0].Title != "Lead Assigned" {
		t.Fatalf("expected first assignment title, got %q", store.activities[0].Title)
	}
	if store.activities[1].Title != "Lead Reassigned" {
		t.Fatalf("expected reassignment title, got %q", store.activities[1].Title)
	}
}

func TestBulkAssign_EmptyLeadsReturnsEmptySuccess(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	result, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		Method:      string(PolicyRoundRobin),
		AssignToIDs: []uuid.UUID{uuid.New()},
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Total != 0 || result.FailCount != 0 || len(result.Results) != 0 {
		t.Fatalf("expected empty success result, got %+v", result)
	}
	if len(store.activities) != 0 {
		t.Fatalf("expected no writes for an empty batch")
	}
}

func TestBulkAssign_UnknownPolicyHasNoSideEffects(t *testing.T) {
	store := newFakeStore()
	leadID := store.addLead(nil)

	svc := newTestService(store)
	_, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		LeadIDs:     []uuid.UUID{leadID},
		Method:      "alphabetical",
		AssignToIDs: []uuid.UUID{uuid.New()},
	}, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if store.leads[leadID].AssignedToID != nil {
		t.Fatalf("expected no assignment on planning failure")
	}
}

func TestBulkAssign_ByRegionWarningSurfacesInResult(t *testing.T) {
	store := newFakeStore()
	leadID := store.addLead(nil)

	svc := newTestService(store)
	result, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		LeadIDs:     []uuid.UUID{leadID},
		Method:      string(PolicyByRegion),
		AssignToIDs: []uuid.UUID{uuid.New()},
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Warning == "" {
		t.Fatalf("expected fallback warning in batch result")
	}
}

func TestBulkAssign_DuplicateLeadAppearsPerOccurrence(t *testing.T) {
	store := newFakeStore()
	leadID := store.addLead(nil)
	repA := uuid.New()
	repB := uuid.New()

	svc := newTestService(store)
	result, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		LeadIDs:     []uuid.UUID{leadID, leadID},
		Method:      string(PolicyRoundRobin),
		AssignToIDs: []uuid.UUID{repA, repB},
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected one result per occurrence, got %d", len(result.Results))
	}
	// Sequential apply means the later pair wins.
	if got := store.leads[leadID].AssignedToID; got == nil || *got != repB {
		t.Fatalf("expected last-write-wins assignment")
	}
}

func TestBulkAssign_ReasonRecordedInActivityDetail(t *testing.T) {
	store := newFakeStore()
	leadID := store.addLead(nil)

	svc := newTestService(store)
	_, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		LeadIDs:     []uuid.UUID{leadID},
		Method:      string(PolicyRoundRobin),
		AssignToIDs: []uuid.UUID{uuid.New()},
		Reason:      "territory rebalance",
	}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.activities) != 1 {
		t.Fatalf("expected one activity entry, got %d", len(store.activities))
	}
	detail := store.activities[0].Detail
	if detail == nil || !strings.Contains(*detail, "territory rebalance") {
		t.Fatalf("expected reason in activity detail, got %v", detail)
	}
	if !strings.Contains(*detail, "round-robin") {
		t.Fatalf("expected distribution method in activity detail, got %q", *detail)
	}
}

func TestBulkAssign_EmptyRepsRejectedEvenForEmptyBatch(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	_, err := svc.BulkAssign(context.Background(), transport.BulkAssignRequest{
		Method: string(PolicyRoundRobin),
	}, uuid.New())
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing representatives, got %v", err)
	}
	if len(store.activities) != 0 {
		t.Fatalf("expected no writes on planning failure")
	}
}

func TestTimeline_ReturnsRecordedEntries(t *testing.T) {
	store := newFakeStore()
	leadID := store.addLead(nil)
	rep := uuid.New()

	svc := newTestService(store)
	if _, err := svc.Assign(context.Background(), leadID, rep, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	entries, err := svc.Timeline(context.Background(), leadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one timeline entry, got %d", len(entries))
	}
	if entries[0].Title != "Lead Assigned" {
		t.Fatalf("expected assignment entry, got %q", entries[0].Title)
	}
}

func TestTimeline_UnknownLeadIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Timeline(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestWorkloads_ZeroFillsUnknownReps(t *testing.T) {
	store := newFakeStore()
	known := uuid.New()
	unknown := uuid.New()
	store.counts[known] = 7

	svc := newTestService(store)
	counts, err := svc.Workloads(context.Background(), []uuid.UUID{known, unknown})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[known] != 7 {
		t.Fatalf("expected known rep count 7, got %d", counts[known])
	}
	if count, ok := counts[unknown]; !ok || count != 0 {
		t.Fatalf("expected unknown rep present with 0, got %d (present=%v)", count, ok)
	}
}

func TestAssign_UnknownLeadIsNotFound(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Assign(context.Background(), uuid.New(), uuid.New(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
