package router

import (
	"strings"
	"sync"
	"time"
)

// Policy tunes routing. Only ComplexityThreshold affects model choice today;
// the latency and quality targets are carried for callers that report or
// tune them alongside the threshold.
type Policy struct {
	ComplexityThreshold int
	LatencyTargetMS     int
	QualityTarget       string
}

// DefaultPolicy mirrors the service defaults: balanced quality, 6s latency target.
func DefaultPolicy() Policy {
	return Policy{
		ComplexityThreshold: 140,
		LatencyTargetMS:     6000,
		QualityTarget:       "balanced",
	}
}

// Roles is the minimal-diversity assignment over a candidate pool: planning and
// review share the most capable model, writing may use a cheaper one.
type Roles struct {
	Planner  string
	Writer   string
	Reviewer string
}

// complexity keywords; each counted once regardless of repetition.
var complexityKeywords = []string{"review", "citation", "long", "analysis", "compare", "multi"}

type circuitState struct {
	failures int
	openedAt time.Time
}

// Router chooses generation models and tracks per-model circuit-breaker state.
// Circuit state is process-scoped and shared across documents, so all map
// access is serialized.
type Router struct {
	policy Policy

	mu      sync.Mutex
	circuit map[string]*circuitState
	now     func() time.Time
}

func New(policy Policy) *Router {
	if policy.ComplexityThreshold <= 0 {
		policy.ComplexityThreshold = DefaultPolicy().ComplexityThreshold
	}
	return &Router{
		policy:  policy,
		circuit: make(map[string]*circuitState),
		now:     time.Now,
	}
}

// ChooseModel picks the first (most capable) candidate when the task looks
// complex, otherwise the last (cheapest). Empty candidates yield "": the
// caller must treat that as "no model available", not an error.
func (r *Router) ChooseModel(task string, promptLen int, candidates []string) string {
	rows := cleanCandidates(candidates)
	if len(rows) == 0 {
		return ""
	}
	if estimateComplexity(task, promptLen) >= r.policy.ComplexityThreshold {
		return rows[0]
	}
	return rows[len(rows)-1]
}

// AssignRoles maps a candidate pool onto planner/writer/reviewer roles.
func (r *Router) AssignRoles(candidates []string) Roles {
	rows := cleanCandidates(candidates)
	if len(rows) == 0 {
		return Roles{}
	}
	primary := rows[0]
	secondary := primary
	if len(rows) > 1 {
		secondary = rows[1]
	}
	return Roles{Planner: primary, Writer: secondary, Reviewer: primary}
}

// FallbackChain returns the preferred model followed by each candidate in
// original order, without duplicates. Deterministic for identical inputs.
func (r *Router) FallbackChain(preferred string, candidates []string) []string {
	chain := make([]string, 0, len(candidates)+1)
	seen := make(map[string]bool, len(candidates)+1)
	if p := strings.TrimSpace(preferred); p != "" {
		chain = append(chain, p)
		seen[p] = true
	}
	for _, c := range cleanCandidates(candidates) {
		if seen[c] {
			continue
		}
		seen[c] = true
		chain = append(chain, c)
	}
	return chain
}

// AllowRequest is the circuit-breaker gate for one model. A model with no
// recorded failures is always allowed; once failures reach maxFailures the
// model is blocked until cooldown has elapsed, after which a single half-open
// retry is allowed.
func (r *Router) AllowRequest(model string, cooldown time.Duration, maxFailures int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.circuit[model]
	if !ok {
		return true
	}
	if state.failures < maxFailures {
		return true
	}
	if cooldown < time.Second {
		cooldown = time.Second
	}
	return r.now().Sub(state.openedAt) >= cooldown
}

// RecordSuccess closes the circuit for a model.
func (r *Router) RecordSuccess(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.circuit[model] = &circuitState{}
}

// RecordFailure counts one failure and refreshes the open timer.
func (r *Router) RecordFailure(model string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.circuit[model]
	if !ok {
		state = &circuitState{}
		r.circuit[model] = state
	}
	state.failures++
	state.openedAt = r.now()
}

func estimateComplexity(task string, promptLen int) int {
	score := promptLen
	raw := strings.ToLower(task)
	for _, kw := range complexityKeywords {
		if strings.Contains(raw, kw) {
			score += 40
		}
	}
	return score
}

func cleanCandidates(candidates []string) []string {
	rows := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			rows = append(rows, c)
		}
	}
	return rows
}
