package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Task is one unit of remediation work. Resolving it closes every
// question in Questions.
type Task struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Questions     []string      `json:"hecvat_questions"`
	FixType       FixType       `json:"fix_type"`
	FixComplexity FixComplexity `json:"fix_complexity"`
	Priority      Priority      `json:"priority"`
	DependsOn     []string      `json:"depends_on"`
	Patchable     bool          `json:"patchable"`
	ResolvesCount int           `json:"resolves_count"`
	Categories    []string      `json:"categories"`

	stream  string
	aliases []string
	weight  float64
}

// WorkStream is an ordered group of tasks sharing a primary category.
type WorkStream struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Tasks []Task `json:"tasks"`
}

// PlanMetadata summarizes a task plan.
type PlanMetadata struct {
	GeneratedAt            time.Time `json:"generated_at"`
	SnapshotID             string    `json:"snapshot_id,omitempty"`
	TotalTasks             int       `json:"total_tasks"`
	TotalQuestionsResolved int       `json:"total_questions_resolved"`
	DeduplicationRatio     float64   `json:"deduplication_ratio"`
}

// OrgAttestationGaps counts gaps no code or document change can close:
// attestation-only questions and gaps classified organizational.
type OrgAttestationGaps struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
	Questions  []string       `json:"questions"`
}

// TaskPlan is the deduplicated, dependency-ordered remediation plan.
type TaskPlan struct {
	Metadata           PlanMetadata       `json:"metadata"`
	WorkStreams        []WorkStream       `json:"work_streams"`
	OrgAttestationGaps OrgAttestationGaps `json:"org_attestation_gaps"`
}

// Task looks up a task by id across all streams.
func (p *TaskPlan) Task(id string) (Task, string, bool) {
	for _, ws := range p.WorkStreams {
		for _, t := range ws.Tasks {
			if t.ID == id {
				return t, ws.Key, true
			}
		}
	}
	return Task{}, "", false
}

// TaskFor returns the task that resolves a question.
func (p *TaskPlan) TaskFor(questionID string) (Task, bool) {
	for _, ws := range p.WorkStreams {
		for _, t := range ws.Tasks {
			for _, q := range t.Questions {
				if q == questionID {
					return t, true
				}
			}
		}
	}
	return Task{}, false
}

// BuildPlan merges the gaps of a current snapshot into tasks. Questions
// linked through cluster rules, directly or transitively, become a single
// task. Tasks are grouped into work streams and ordered by the dependency
// rules; a dependency cycle inside a stream fails with *CycleError.
func BuildPlan(c *Catalog, w Weights, rules *RuleSet, current *Snapshot) (*TaskPlan, error) {
	if current.Tier != TierCurrent {
		return nil, fmt.Errorf("task plan from %s snapshot: %w", current.Tier, ErrWrongTier)
	}
	if rules == nil {
		rules = &RuleSet{}
	}

	var candidates []string
	for _, q := range c.Questions() {
		a, ok := current.Answers[q.ID]
		if ok && a.Value == No && a.FixType != "" && a.FixType != FixOrganizational {
			candidates = append(candidates, q.ID)
		}
	}

	uf := newUnionFind(candidates)
	for _, cl := range rules.Clusters {
		prev := ""
		for _, id := range candidates {
			if !cl.matches(id) {
				continue
			}
			if prev != "" {
				uf.union(prev, id)
			}
			prev = id
		}
	}

	tasks := make(map[string]*Task)
	var taskOrder []string
	alias := make(map[string]string)
	for _, group := range uf.groups(candidates) {
		t := buildTask(c, w, rules, current, group)
		if _, clash := tasks[t.ID]; clash {
			t.ID = fmt.Sprintf("%s-%s", t.ID, singletonTaskID(group[0]))
		}
		tasks[t.ID] = t
		taskOrder = append(taskOrder, t.ID)
		alias[t.ID] = t.ID
		for _, a := range t.aliases {
			alias[a] = t.ID
		}
	}

	deps := newDepGraph()
	var edges []streamEdge
	for _, r := range rules.Dependencies {
		task, ok := alias[r.Task]
		if !ok {
			continue
		}
		for _, d := range r.DependsOn {
			prereq, ok := alias[d]
			if !ok || prereq == task {
				continue
			}
			deps.addEdge(task, prereq)
			edges = append(edges, streamEdge{task: task, prereq: prereq, stream: r.Stream})
		}
	}
	reclassifyStreams(tasks, taskOrder, deps, edges)

	byStream := make(map[string][]string)
	var streamKeys []string
	for _, id := range taskOrder {
		s := tasks[id].stream
		if _, ok := byStream[s]; !ok {
			streamKeys = append(streamKeys, s)
		}
		byStream[s] = append(byStream[s], id)
	}
	sort.Strings(streamKeys)

	less := func(a, b string) bool {
		pa, pb := tasks[a].Priority.Rank(), tasks[b].Priority.Rank()
		if pa != pb {
			return pa > pb
		}
		return a < b
	}

	plan := &TaskPlan{
		Metadata: PlanMetadata{
			GeneratedAt: timeNow().UTC(),
			SnapshotID:  current.ID,
			TotalTasks:  len(tasks),
		},
	}
	for _, key := range streamKeys {
		ordered, cycle := deps.order(byStream[key], less)
		if cycle != nil {
			return nil, &CycleError{Stream: key, Tasks: cycle}
		}
		ws := WorkStream{Key: key, Name: rules.StreamName(key)}
		for _, id := range ordered {
			t := tasks[id]
			t.DependsOn = deps.dependsOn(id)
			if t.DependsOn == nil {
				t.DependsOn = []string{}
			}
			ws.Tasks = append(ws.Tasks, *t)
			plan.Metadata.TotalQuestionsResolved += t.ResolvesCount
		}
		plan.WorkStreams = append(plan.WorkStreams, ws)
	}

	plan.Metadata.DeduplicationRatio = 1.0
	if plan.Metadata.TotalTasks > 0 {
		plan.Metadata.DeduplicationRatio = float64(plan.Metadata.TotalQuestionsResolved) / float64(plan.Metadata.TotalTasks)
	}
	plan.OrgAttestationGaps = orgGaps(c, current)
	return plan, nil
}

func buildTask(c *Catalog, w Weights, rules *RuleSet, current *Snapshot, group []string) *Task {
	t := &Task{Questions: group, ResolvesCount: len(group)}

	var involved []ClusterRule
	for _, cl := range rules.Clusters {
		for _, id := range group {
			if cl.matches(id) {
				involved = append(involved, cl)
				break
			}
		}
	}

	counts := make(map[string]int)
	var fixType FixType
	patchable := true
	for _, id := range group {
		q, _ := c.Question(id)
		a := current.Answers[id]
		if a.FixComplexity.Rank() > t.FixComplexity.Rank() {
			t.FixComplexity = a.FixComplexity
		}
		if fixType == "" || a.FixType.rank() > fixType.rank() {
			fixType = a.FixType
		}
		if !a.Patchable {
			patchable = false
		}
		if cw := w.Weight(q.Category); cw > t.weight {
			t.weight = cw
		}
		if counts[q.Category] == 0 {
			t.Categories = append(t.Categories, q.Category)
		}
		counts[q.Category]++
	}
	sort.Strings(t.Categories)

	primary := ""
	for _, cat := range t.Categories {
		switch {
		case primary == "",
			counts[cat] > counts[primary],
			counts[cat] == counts[primary] && w.Weight(cat) > w.Weight(primary):
			primary = cat
		}
	}
	t.stream = primary

	if len(involved) > 0 {
		lead := involved[0]
		t.ID = lead.ID
		t.Title = lead.Title
		if t.Title == "" {
			t.Title = lead.ID
		}
		for _, cl := range involved {
			t.aliases = append(t.aliases, cl.ID)
		}
		for _, cl := range involved {
			if cl.Stream != "" {
				t.stream = cl.Stream
				break
			}
		}
		for _, cl := range involved {
			if cl.FixType != "" && cl.FixType.clusterOverride() {
				fixType = cl.FixType
				break
			}
		}
	} else {
		id := group[0]
		q, _ := c.Question(id)
		t.ID = singletonTaskID(id)
		if rule, ok := rules.FixFor(q); ok && rule.Title != "" {
			t.Title = rule.Title
		} else {
			t.Title = fmt.Sprintf("Resolve %s: %s", id, strings.TrimSpace(q.Text))
		}
	}

	t.FixType = fixType
	// Members carry their own patch eligibility; a cluster override only
	// changes how the task is labelled.
	t.Patchable = patchable
	t.Priority = priorityForWeight(t.weight)
	return t
}

type streamEdge struct {
	task, prereq, stream string
}

// reclassifyStreams moves every task of a dependency component that spans
// several streams into one stream: the first stream declared by a rule in
// the component, or else the stream of its first root prerequisite.
func reclassifyStreams(tasks map[string]*Task, order []string, deps *depGraph, edges []streamEdge) {
	if len(edges) == 0 {
		return
	}
	uf := newUnionFind(order)
	for _, e := range edges {
		uf.union(e.task, e.prereq)
	}

	for _, comp := range uf.groups(order) {
		if len(comp) < 2 {
			continue
		}
		streams := make(map[string]bool)
		for _, id := range comp {
			streams[tasks[id].stream] = true
		}
		if len(streams) < 2 {
			continue
		}

		root := uf.find(comp[0])
		target := ""
		for _, e := range edges {
			if e.stream != "" && uf.find(e.task) == root {
				target = e.stream
				break
			}
		}
		if target == "" {
			sorted := append([]string(nil), comp...)
			sort.Strings(sorted)
			target = tasks[sorted[0]].stream
			for _, id := range sorted {
				if len(deps.dependsOn(id)) == 0 {
					target = tasks[id].stream
					break
				}
			}
		}
		for _, id := range comp {
			tasks[id].stream = target
		}
	}
}

func orgGaps(c *Catalog, current *Snapshot) OrgAttestationGaps {
	gaps := OrgAttestationGaps{Categories: make(map[string]int), Questions: []string{}}
	for _, q := range c.Questions() {
		a, ok := current.Answers[q.ID]
		if !ok {
			continue
		}
		if a.Value == Unanswered || (a.Value == No && (a.FixType == FixOrganizational || a.FixType == "")) {
			gaps.Total++
			gaps.Categories[q.Category]++
			gaps.Questions = append(gaps.Questions, q.ID)
		}
	}
	return gaps
}
