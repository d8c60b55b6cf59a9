// Package outline supplies the plan-proposal capability the planner consumes:
// given an instruction and canonical section list, a Proposer returns a raw
// JSON payload describing per-section targets, key points, and evidence
// queries. The planner validates and normalizes whatever comes back, so a
// proposer may be sloppy; it must not be load-bearing.
package outline

import "context"

// Proposer produces a raw plan payload for planner.ParseProposal.
type Proposer interface {
	ProposePlan(ctx context.Context, title, instruction string, sections []string, totalChars int) (string, error)
}
