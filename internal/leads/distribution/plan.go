// Package distribution handles assigning batches of leads to sales
// representatives. Planning is a pure computation over the inputs; applying
// a plan performs one independent write per lead.
package distribution

import (
	"sort"

	"leadflow_backend/platform/apperr"

	"github.com/google/uuid"
)

// Policy selects how leads are spread across representatives.
type Policy string

const (
	PolicyManual     Policy = "manual"
	PolicyRoundRobin Policy = "round-robin"
	PolicyByRegion   Policy = "by-region"
	PolicyByWorkload Policy = "by-workload"
)

// regionFallbackWarning surfaces in the bulk-assign response whenever the
// by-region policy silently degrades. Callers must be able to tell the
// difference between a real region match and the fallback.
const regionFallbackWarning = "region-based matching is not available; distributed round-robin instead"

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(s); p {
	case PolicyManual, PolicyRoundRobin, PolicyByRegion, PolicyByWorkload:
		return p, nil
	default:
		return "", apperr.Validation("unknown distribution policy: " + s)
	}
}

// Assignment pairs one lead with the representative chosen for it.
type Assignment struct {
	LeadID uuid.UUID
	RepID  uuid.UUID
}

// Plan is the outcome of the planning phase. Building a plan performs no
// writes; a plan that is never applied has no effect.
type Plan struct {
	Policy      Policy
	Assignments []Assignment
	Warning     string
}

// BuildPlan computes lead/representative pairs for the given policy.
// workloads is only consulted for PolicyByWorkload and must come from a
// single snapshot taken before planning; it is never recomputed mid-batch.
// Policy and representative validation applies even when leadIDs is empty:
// an empty batch with no representatives is still rejected.
func BuildPlan(policy Policy, leadIDs, repIDs []uuid.UUID, workloads map[uuid.UUID]int) (Plan, error) {
	if len(repIDs) == 0 {
		return Plan{}, apperr.Validation("at least one representative is required")
	}

	plan := Plan{Policy: policy}
	reps := repIDs
	switch policy {
	case PolicyManual:
		if len(repIDs) != 1 {
			return Plan{}, apperr.Validation("manual assignment requires exactly one representative")
		}
	case PolicyRoundRobin:
	case PolicyByRegion:
		plan.Warning = regionFallbackWarning
	case PolicyByWorkload:
		reps = sortByWorkload(repIDs, workloads)
	default:
		return Plan{}, apperr.Validation("unknown distribution policy: " + string(policy))
	}

	plan.Assignments = roundRobin(leadIDs, reps)
	return plan, nil
}

// roundRobin assigns lead i to rep i mod len(repIDs), preserving the input
// order of both lists.
func roundRobin(leadIDs, repIDs []uuid.UUID) []Assignment {
	out := make([]Assignment, len(leadIDs))
	for i, leadID := range leadIDs {
		out[i] = Assignment{LeadID: leadID, RepID: repIDs[i%len(repIDs)]}
	}
	return out
}

// sortByWorkload orders representatives by ascending active-lead count.
// Representatives missing from the snapshot count as zero; ties keep the
// caller's order.
func sortByWorkload(repIDs []uuid.UUID, workloads map[uuid.UUID]int) []uuid.UUID {
	sorted := make([]uuid.UUID, len(repIDs))
	copy(sorted, repIDs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return workloads[sorted[i]] < workloads[sorted[j]]
	})
	return sorted
}
