package distribution

import (
	"testing"

	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

func newIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func TestBuildPlan_RoundRobinPositionalFormula(t *testing.T) {
	leads := newIDs(7)
	reps := newIDs(3)

	plan, err := BuildPlan(PolicyRoundRobin, leads, reps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Assignments) != 7 {
		t.Fatalf("expected 7 assignments, got %d", len(plan.Assignments))
	}

	for i, pair := range plan.Assignments {
		if pair.LeadID != leads[i] {
			t.Fatalf("assignment %d: lead order not preserved", i)
		}
		if pair.RepID != reps[i%len(reps)] {
			t.Fatalf("assignment %d: expected rep %d in rotation", i, i%len(reps))
		}
	}
}

func TestBuildPlan_RoundRobinFairness(t *testing.T) {
	leads := newIDs(10)
	reps := newIDs(3)

	plan, err := BuildPlan(PolicyRoundRobin, leads, reps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	counts := make(map[uuid.UUID]int)
	for _, pair := range plan.Assignments {
		counts[pair.RepID]++
	}

	min, max := len(leads), 0
	for _, rep := range reps {
		if counts[rep] < min {
			min = counts[rep]
		}
		if counts[rep] > max {
			max = counts[rep]
		}
	}
	if max-min > 1 {
		t.Fatalf("expected rep counts to differ by at most 1, got min=%d max=%d", min, max)
	}
}

func TestBuildPlan_ByWorkloadPrefersLeastLoaded(t *testing.T) {
	leads := newIDs(4)
	repA := uuid.New()
	repB := uuid.New()
	workloads := map[uuid.UUID]int{repA: 5, repB: 2}

	plan, err := BuildPlan(PolicyByWorkload, leads, []uuid.UUID{repA, repB}, workloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []uuid.UUID{repB, repA, repB, repA}
	for i, pair := range plan.Assignments {
		if pair.RepID != want[i] {
			t.Fatalf("assignment %d: expected cyclic order over workload-sorted reps", i)
		}
	}
}

func TestBuildPlan_ByWorkloadUnknownRepCountsAsZero(t *testing.T) {
	leads := newIDs(2)
	known := uuid.New()
	unknown := uuid.New()
	workloads := map[uuid.UUID]int{known: 1}

	plan, err := BuildPlan(PolicyByWorkload, leads, []uuid.UUID{known, unknown}, workloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Assignments[0].RepID != unknown {
		t.Fatalf("expected unknown rep (zero workload) to receive the first lead")
	}
}

func TestBuildPlan_ByWorkloadTiesKeepInputOrder(t *testing.T) {
	leads := newIDs(2)
	reps := newIDs(2)
	workloads := map[uuid.UUID]int{reps[0]: 3, reps[1]: 3}

	plan, err := BuildPlan(PolicyByWorkload, leads, reps, workloads)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Assignments[0].RepID != reps[0] || plan.Assignments[1].RepID != reps[1] {
		t.Fatalf("expected tied reps to keep input order")
	}
}

func TestBuildPlan_ManualRequiresExactlyOneRep(t *testing.T) {
	_, err := BuildPlan(PolicyManual, newIDs(2), newIDs(2), nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildPlan_ManualAssignsEverythingToTheRep(t *testing.T) {
	leads := newIDs(3)
	rep := uuid.New()

	plan, err := BuildPlan(PolicyManual, leads, []uuid.UUID{rep}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, pair := range plan.Assignments {
		if pair.RepID != rep {
			t.Fatalf("assignment %d: expected the single rep", i)
		}
	}
}

func TestBuildPlan_ByRegionFallsBackToRoundRobinWithWarning(t *testing.T) {
	leads := newIDs(4)
	reps := newIDs(2)

	plan, err := BuildPlan(PolicyByRegion, leads, reps, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Warning == "" {
		t.Fatalf("expected a fallback warning on the plan")
	}
	for i, pair := range plan.Assignments {
		if pair.RepID != reps[i%len(reps)] {
			t.Fatalf("assignment %d: expected round-robin fallback order", i)
		}
	}
}

func TestBuildPlan_EmptyLeadsYieldEmptyPlan(t *testing.T) {
	plan, err := BuildPlan(PolicyRoundRobin, nil, newIDs(2), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Assignments) != 0 {
		t.Fatalf("expected empty plan, got %d assignments", len(plan.Assignments))
	}
}

func TestBuildPlan_NoRepsRejected(t *testing.T) {
	_, err := BuildPlan(PolicyRoundRobin, newIDs(2), nil, nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildPlan_NoRepsRejectedForEmptyBatch(t *testing.T) {
	for _, policy := range []Policy{PolicyManual, PolicyRoundRobin, PolicyByRegion, PolicyByWorkload} {
		if _, err := BuildPlan(policy, nil, nil, nil); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("policy %q: expected validation error for missing representatives, got %v", policy, err)
		}
	}
}

func TestParsePolicy_RejectsUnknown(t *testing.T) {
	if _, err := ParsePolicy("alphabetical"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
