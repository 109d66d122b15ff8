// Package domain holds the lead lifecycle vocabulary shared by the leads
// and pipeline contexts.
package domain

// Lifecycle stage labels for a lead. The label set is ordered from first
// contact to a closed outcome; WON and LOST are terminal.
const (
	StageNew         = "NEW"
	StageContacted   = "CONTACTED"
	StageQualified   = "QUALIFIED"
	StageProposal    = "PROPOSAL"
	StageNegotiation = "NEGOTIATION"
	StageWon         = "WON"
	StageLost        = "LOST"
)

// DefaultFunnelOrder is the funnel report's label order when no external
// configuration overrides it. Terminal stages are excluded from the funnel.
var DefaultFunnelOrder = []string{
	StageNew,
	StageContacted,
	StageQualified,
	StageProposal,
	StageNegotiation,
}

// IsTerminal reports whether a lifecycle stage represents a closed lead.
// Leads in a terminal stage do not count toward a representative's workload.
func IsTerminal(stage string) bool {
	return stage == StageWon || stage == StageLost
}
