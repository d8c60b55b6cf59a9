package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"drafter/internal/budget"
	"drafter/internal/docir"
	"drafter/internal/outline"
	"drafter/internal/planner"
	"drafter/internal/router"
	"drafter/internal/scheduler"
	"drafter/internal/version"
)

// SectionRequest is what a writer backend receives for one section.
type SectionRequest struct {
	Title       string
	KeyPoints   []string
	TargetChars int
	TokenBudget int
	Model       string
	PreferGPU   bool
}

// SectionWriter produces the body text for one section. Implementations may
// call a model service; the cycle retries along the fallback chain on error.
type SectionWriter func(ctx context.Context, req SectionRequest) (string, error)

// SectionResult records what happened to one section during a cycle.
type SectionResult struct {
	Title string
	Model string
	Text  string
	Err   error
}

// Report summarizes one generation cycle for callers and the CLI.
type Report struct {
	Decision  scheduler.Decision
	Roles     router.Roles
	Budgets   []budget.SectionBudget
	Plan      map[string]planner.Section
	Sections  []SectionResult
	VersionID string
	Elapsed   time.Duration
}

// Cycle runs one full generation pass: schedule, route, plan, write, commit.
type Cycle struct {
	Router      *router.Router
	Proposer    outline.Proposer
	Writer      SectionWriter
	Models      []string
	Author      string
	Cooldown    time.Duration
	MaxFailures int
}

func NewCycle(r *router.Router, proposer outline.Proposer, writer SectionWriter, models []string) *Cycle {
	return &Cycle{
		Router:      r,
		Proposer:    proposer,
		Writer:      writer,
		Models:      models,
		Author:      "system",
		Cooldown:    30 * time.Second,
		MaxFailures: 3,
	}
}

// Run executes one cycle against a session and auto-commits the result.
// The session is mutated in place; persisting it is the caller's business.
func (c *Cycle) Run(ctx context.Context, sess *version.Session, title, instruction string, sections []string, totalChars int) (*Report, error) {
	start := time.Now()
	report := &Report{}

	sections = planner.SanitizeSections(sections, nil)
	if len(sections) == 0 {
		return nil, fmt.Errorf("no writable sections for document %q", title)
	}

	report.Decision = c.scheduleStage(ctx)
	report.Roles = c.routeStage(title, instruction)
	report.Plan = c.planStage(ctx, title, instruction, sections, totalChars)
	report.Budgets = budget.AllocateTokenBudget(sections, budget.TokensForChars(totalChars))

	report.Sections = c.writeStage(ctx, report, sections)

	body := assembleDocument(sections, report.Sections)
	sess.DocText = body
	sess.DocStructure = docir.Split(title, body)
	report.VersionID = version.AutoCommit(sess, "auto: after generation cycle", c.Author, nil)

	report.Elapsed = time.Since(start)
	return report, nil
}

func (c *Cycle) scheduleStage(ctx context.Context) scheduler.Decision {
	snap := scheduler.Capture(ctx)
	decision := scheduler.Schedule(snap)
	fmt.Printf("🧭 Scheduler: cpu=%.1f%% workers=%d gpu=%v backpressure=%v\n",
		snap.CPUPercent, decision.WorkerCount, decision.PreferGPU, decision.QueueBackpressure)
	return decision
}

func (c *Cycle) routeStage(title, instruction string) router.Roles {
	roles := c.Router.AssignRoles(c.Models)
	task := title + " " + instruction
	writer := c.Router.ChooseModel(task, len([]rune(instruction)), c.Models)
	if writer != "" {
		roles.Writer = writer
	}
	return roles
}

func (c *Cycle) planStage(ctx context.Context, title, instruction string, sections []string, totalChars int) map[string]planner.Section {
	var proposal *planner.Proposal
	if c.Proposer != nil {
		raw, err := c.Proposer.ProposePlan(ctx, title, instruction, sections, totalChars)
		if err != nil {
			log.Printf("⚠️ Plan proposal failed, using default plan: %v", err)
		} else if proposal, err = planner.ParseProposal(raw); err != nil {
			log.Printf("⚠️ Plan proposal unusable, using default plan: %v", err)
			proposal = nil
		}
	}
	return planner.Normalize(proposal, sections, nil, totalChars, nil)
}

func (c *Cycle) writeStage(ctx context.Context, report *Report, sections []string) []SectionResult {
	budgets := make(map[string]int, len(report.Budgets))
	for _, b := range report.Budgets {
		budgets[b.Section] = b.TokenBudget
	}

	workers := report.Decision.WorkerCount
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	results := make([]SectionResult, len(sections))

	var wg sync.WaitGroup
	for i, sec := range sections {
		wg.Add(1)
		go func(i int, sec string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			plan := report.Plan[sec]
			results[i] = c.writeSection(ctx, report.Roles.Writer, SectionRequest{
				Title:       sec,
				KeyPoints:   plan.KeyPoints,
				TargetChars: plan.TargetChars,
				TokenBudget: budgets[sec],
				PreferGPU:   report.Decision.PreferGPU,
			})
		}(i, sec)
	}
	wg.Wait()
	return results
}

// writeSection walks the fallback chain, skipping models whose circuit is
// open, until one succeeds.
func (c *Cycle) writeSection(ctx context.Context, preferred string, req SectionRequest) SectionResult {
	chain := c.Router.FallbackChain(preferred, c.Models)
	var lastErr error
	for _, model := range chain {
		if !c.Router.AllowRequest(model, c.Cooldown, c.MaxFailures) {
			continue
		}
		req.Model = model
		text, err := c.Writer(ctx, req)
		if err != nil {
			lastErr = err
			c.Router.RecordFailure(model)
			continue
		}
		c.Router.RecordSuccess(model)
		return SectionResult{Title: req.Title, Model: model, Text: text}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no model available for section %q", req.Title)
	}
	return SectionResult{Title: req.Title, Err: lastErr}
}

func assembleDocument(sections []string, results []SectionResult) string {
	byTitle := make(map[string]SectionResult, len(results))
	for _, r := range results {
		byTitle[r.Title] = r
	}
	var sb strings.Builder
	for _, sec := range sections {
		fmt.Fprintf(&sb, "# %s\n\n", sec)
		r := byTitle[sec]
		if r.Err != nil || strings.TrimSpace(r.Text) == "" {
			sb.WriteString("（本节内容待补充）\n\n")
			continue
		}
		sb.WriteString(strings.TrimSpace(r.Text))
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// StaticWriter is the offline writer backend: deterministic placeholder prose
// expanded from the plan's key points toward the target length.
func StaticWriter(_ context.Context, req SectionRequest) (string, error) {
	points := req.KeyPoints
	if len(points) == 0 {
		points = []string{fmt.Sprintf("围绕《%s》展开论述。", req.Title)}
	}

	var sb strings.Builder
	for _, p := range points {
		sb.WriteString(strings.TrimSpace(p))
		if !strings.HasSuffix(p, "。") && !strings.HasSuffix(p, ".") {
			sb.WriteString("。")
		}
		sb.WriteString("\n\n")
	}
	filler := "本节将结合上述要点进行系统阐述，补充必要的背景、数据与论证。"
	for len([]rune(sb.String())) < req.TargetChars/2 {
		sb.WriteString(filler)
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String()), nil
}
