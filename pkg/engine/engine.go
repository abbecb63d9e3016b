// Package engine scores questionnaire assessments and plans remediation.
//
// Findings are resolved into a current snapshot, which is scored,
// projected into post-patch and post-checklist tiers, merged into a
// deduplicated task plan, and compared against the previous run.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Package-level hooks so tests can freeze time and ids.
var (
	timeNow = time.Now
	newID   = uuid.NewString
)

// RepoInfo identifies the assessed source tree.
type RepoInfo struct {
	Repository string
	Branch     string
	Commit     string
}

// Input is everything one assessment run consumes besides the rule data.
type Input struct {
	Findings []Finding
	// Patched holds the question ids an automated patch was generated for.
	Patched map[string]bool
	Repo    RepoInfo
}

// Assessment is the result of one run. PlanErr is set when the task plan
// could not be built; the snapshots and scores are still valid.
type Assessment struct {
	Current       *Snapshot
	PostPatch     *Snapshot
	PostChecklist *Snapshot
	Scores        map[Tier]*Scores
	Plan          *TaskPlan
	PlanErr       error
	Delta         *Delta
	Diagnostics   []Diagnostic
}

// Snapshot returns the snapshot of a tier.
func (a *Assessment) Snapshot(t Tier) *Snapshot {
	switch t {
	case TierPostPatch:
		return a.PostPatch
	case TierPostChecklist:
		return a.PostChecklist
	default:
		return a.Current
	}
}

// Engine runs assessments against one catalog and rule set.
type Engine struct {
	Catalog *Catalog
	Weights Weights
	Rules   *RuleSet
	logger  hclog.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(c *Catalog, w Weights, rules *RuleSet, logger hclog.Logger) *Engine {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if rules == nil {
		rules = &RuleSet{}
	}
	if w == nil {
		w = Weights{}
	}
	return &Engine{Catalog: c, Weights: w, Rules: rules, logger: logger}
}

// Validate checks weights and rule tables against the catalog.
func (e *Engine) Validate() []Diagnostic {
	diags := e.Weights.Validate(e.Catalog)
	diags = append(diags, e.Rules.Validate(e.Catalog)...)
	for _, d := range diags {
		e.log(d)
	}
	return diags
}

// Assess resolves findings and derives every output of a run except the
// delta, which needs an archive (see CompareWithLatest).
func (e *Engine) Assess(ctx context.Context, in Input) (*Assessment, error) {
	current, diags := Resolve(e.Catalog, e.Rules, in.Findings, in.Patched)
	for _, d := range diags {
		e.log(d)
	}
	current.ID = newID()
	current.AssessmentDate = timeNow().UTC()
	current.Repository = in.Repo.Repository
	current.Branch = in.Repo.Branch
	current.Commit = in.Repo.Commit
	e.logger.Debug("resolved current snapshot", "answers", len(current.Answers), "findings", len(in.Findings))

	a, err := e.Evaluate(ctx, current)
	if err != nil {
		return nil, err
	}
	a.Diagnostics = diags
	return a, nil
}

// Evaluate scores, projects and plans an already resolved current
// snapshot, such as one loaded from a previous run's output.
func (e *Engine) Evaluate(ctx context.Context, current *Snapshot) (*Assessment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	postPatch, postChecklist, err := Project(current)
	if err != nil {
		return nil, err
	}
	for _, id := range postPatch.PatchDowngrades {
		e.logger.Debug("patchable gap without generated patch", "question", id)
	}

	a := &Assessment{
		Current:       current,
		PostPatch:     postPatch,
		PostChecklist: postChecklist,
		Scores:        make(map[Tier]*Scores, len(Tiers)),
	}
	for _, t := range Tiers {
		sc := Score(e.Catalog, e.Weights, a.Snapshot(t))
		a.Scores[t] = sc
		e.logger.Info("scored tier", "tier", t, "raw", sc.RawScore, "weighted", sc.WeightedScore,
			"confidence_adjusted", sc.ConfidenceAdjustedScore)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.Plan, a.PlanErr = BuildPlan(e.Catalog, e.Weights, e.Rules, current)
	if a.PlanErr != nil {
		var cycle *CycleError
		if errors.As(a.PlanErr, &cycle) {
			e.logger.Error("task plan rejected", "stream", cycle.Stream, "cycle", cycle.Tasks)
		} else {
			e.logger.Error("task plan failed", "error", a.PlanErr)
		}
	} else {
		e.logger.Info("built task plan", "tasks", a.Plan.Metadata.TotalTasks,
			"resolved", a.Plan.Metadata.TotalQuestionsResolved, "dedup_ratio", a.Plan.Metadata.DeduplicationRatio)
	}
	return a, nil
}

// CompareWithLatest fills a.Delta by diffing the current snapshot against
// the newest archived one. An empty archive leaves Delta nil.
func (e *Engine) CompareWithLatest(ctx context.Context, store SnapshotStore, a *Assessment) error {
	d, err := CompareWithLatest(ctx, store, e.Catalog, e.Weights, a.Current)
	if err != nil {
		return err
	}
	a.Delta = d
	if d == nil {
		e.logger.Info("no baseline snapshot; skipping delta")
		return nil
	}
	e.logger.Info("compared with baseline", "baseline", d.OldID, "improved", len(d.Improved),
		"regressed", len(d.Regressed), "weighted_delta", d.WeightedScoreDelta)
	return nil
}

func (e *Engine) log(d Diagnostic) {
	switch d.Level {
	case LevelWarn:
		e.logger.Warn(d.Message, "question", d.QuestionID)
	default:
		e.logger.Debug(d.Message, "question", d.QuestionID)
	}
}
