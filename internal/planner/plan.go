// Package planner turns a (possibly AI-proposed) outline into a normalized
// per-section writing plan: character targets, length envelopes, table/figure
// floors, and evidence queries, rescaled to track the requested document size.
package planner

import (
	"math"
)

// Section is the normalized unit the planner emits per logical section.
// MinChars/MaxChars bound the eventual generated length; TargetChars is the
// writer's aim point and may sit below MinChars.
type Section struct {
	Title           string           `json:"title"`
	TargetChars     int              `json:"target_chars"`
	MinChars        int              `json:"min_chars"`
	MaxChars        int              `json:"max_chars"`
	MinTables       int              `json:"min_tables"`
	MinFigures      int              `json:"min_figures"`
	KeyPoints       []string         `json:"key_points,omitempty"`
	Figures         []map[string]any `json:"figures,omitempty"`
	Tables          []map[string]any `json:"tables,omitempty"`
	EvidenceQueries []string         `json:"evidence_queries,omitempty"`
}

// BaseTarget holds the deterministic fallback targets for a canonical section.
type BaseTarget struct {
	Weight     float64
	MinParas   int
	MinChars   int
	MaxChars   int
	MinTables  int
	MinFigures int
}

const minTargetChars = 180

type envelopeRule struct {
	minFloor int
	minMul   float64
	gap      int
	maxMul   float64
}

// Envelopes for proposal-informed plans. Method sections expand far beyond
// their outline bullets; conclusions compress.
var planEnvelopes = map[SectionType]envelopeRule{
	TypeIntro:      {400, 1.2, 300, 1.6},
	TypeMethod:     {800, 2.0, 600, 2.5},
	TypeConclusion: {500, 1.5, 400, 1.9},
	TypeGeneric:    {600, 1.7, 500, 2.3},
}

// Envelopes for the deterministic default plan; generic sections get a looser
// band when no proposal informed the target.
var defaultEnvelopes = map[SectionType]envelopeRule{
	TypeIntro:      {400, 1.2, 300, 1.6},
	TypeMethod:     {800, 2.0, 600, 2.5},
	TypeConclusion: {500, 1.5, 400, 1.9},
	TypeGeneric:    {500, 1.4, 400, 1.8},
}

func (r envelopeRule) apply(target int) (minChars, maxChars int) {
	minChars = int(math.Round(float64(target) * r.minMul))
	if minChars < r.minFloor {
		minChars = r.minFloor
	}
	maxChars = int(math.Round(float64(target) * r.maxMul))
	if maxChars < minChars+r.gap {
		maxChars = minChars + r.gap
	}
	return minChars, maxChars
}

// DefaultPlan builds the deterministic plan: weight-shared targets with
// type-aware envelopes and base table/figure floors.
func DefaultPlan(sections []string, base map[string]BaseTarget, totalChars int, cls Classifier) map[string]Section {
	if cls == nil {
		cls = KeywordClassifier{}
	}
	weights := make(map[string]float64, len(sections))
	denom := 0.0
	for _, sec := range sections {
		w := clampWeight(SectionWeight(sec, cls))
		if bt, ok := base[sec]; ok && bt.Weight > 0 {
			w = clampWeight(bt.Weight)
		}
		weights[sec] = w
		denom += w
	}
	if denom == 0 {
		denom = 1
	}

	plan := make(map[string]Section, len(sections))
	for _, sec := range sections {
		share := int(math.Round(float64(totalChars) * weights[sec] / denom))
		target := share
		if target < 200 {
			target = 200
		}
		if cls.IsReference(sec) {
			target = clampInt(target, 220, 1200)
		}
		minChars, maxChars := defaultEnvelopes[cls.Classify(sec)].apply(target)

		var minTables, minFigures int
		if bt, ok := base[sec]; ok {
			minTables = bt.MinTables
			minFigures = bt.MinFigures
		}
		if cls.IsReference(sec) {
			minTables, minFigures = 0, 0
		}
		plan[sec] = Section{
			Title:       sec,
			TargetChars: target,
			MinChars:    minChars,
			MaxChars:    maxChars,
			MinTables:   minTables,
			MinFigures:  minFigures,
		}
	}
	return plan
}

// Normalize merges a proposal with the deterministic defaults. Malformed
// proposals, or any malformed field inside one, degrade to the default for
// that scope; Normalize always returns a usable plan.
//
// When the summed targets drift more than 5% from totalChars, every target is
// rescaled uniformly and the envelopes recomputed. Section types are not
// re-classified after rescaling: type is a property of the title.
func Normalize(proposal *Proposal, sections []string, base map[string]BaseTarget, totalChars int, cls Classifier) map[string]Section {
	if cls == nil {
		cls = KeywordClassifier{}
	}
	defaults := DefaultPlan(sections, base, totalChars, cls)
	if proposal == nil || len(proposal.Sections) == 0 {
		return defaults
	}

	byTitle := make(map[string]ProposalSection, len(proposal.Sections))
	for _, item := range proposal.Sections {
		if item.Title != "" {
			byTitle[item.Title] = item
		}
	}

	plan := make(map[string]Section, len(sections))
	total := 0
	for _, sec := range sections {
		entry := byTitle[sec]

		target := defaults[sec].TargetChars
		if entry.TargetChars != nil && *entry.TargetChars > 0 {
			target = *entry.TargetChars
		}
		if target < minTargetChars {
			target = minTargetChars
		}
		total += target

		minTables := entry.MinTables
		minFigures := entry.MinFigures
		if bt, ok := base[sec]; ok {
			minTables = maxInt(minTables, bt.MinTables)
			minFigures = maxInt(minFigures, bt.MinFigures)
		}
		// Attached artifacts implicitly raise the floor.
		minTables = maxInt(minTables, len(entry.Tables))
		minFigures = maxInt(minFigures, len(entry.Figures))
		if cls.IsReference(sec) {
			minTables, minFigures = 0, 0
		}

		minChars, maxChars := planEnvelopes[cls.Classify(sec)].apply(target)
		plan[sec] = Section{
			Title:           sec,
			TargetChars:     target,
			MinChars:        minChars,
			MaxChars:        maxChars,
			MinTables:       minTables,
			MinFigures:      minFigures,
			KeyPoints:       entry.KeyPoints,
			Figures:         entry.Figures,
			Tables:          entry.Tables,
			EvidenceQueries: entry.EvidenceQueries,
		}
	}

	if totalChars > 0 && total > 0 {
		scale := float64(totalChars) / float64(total)
		if math.Abs(scale-1.0) > 0.05 {
			for _, sec := range sections {
				p, ok := plan[sec]
				if !ok {
					continue
				}
				target := int(math.Round(float64(p.TargetChars) * scale))
				if target < minTargetChars {
					target = minTargetChars
				}
				p.TargetChars = target
				p.MinChars, p.MaxChars = planEnvelopes[cls.Classify(p.Title)].apply(target)
				plan[sec] = p
			}
		}
	}
	return plan
}

func clampWeight(w float64) float64 {
	if w < 0.3 {
		return 0.3
	}
	if w > 3.0 {
		return 3.0
	}
	return w
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
