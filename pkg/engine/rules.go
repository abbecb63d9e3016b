package engine

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FixRule classifies the fix for questions answered "No". Exactly one of
// Question, Pattern or Category selects the questions it applies to.
type FixRule struct {
	Question   string        `yaml:"question,omitempty"`
	Pattern    string        `yaml:"pattern,omitempty"`
	Category   string        `yaml:"category,omitempty"`
	FixType    FixType       `yaml:"fix_type"`
	Complexity FixComplexity `yaml:"fix_complexity"`
	Title      string        `yaml:"title,omitempty"`
}

// specificity ranks how narrowly a rule selects questions.
func (r FixRule) specificity() int {
	switch {
	case r.Question != "":
		return 3
	case r.Pattern != "":
		return 2
	case r.Category != "":
		return 1
	default:
		return 0
	}
}

func (r FixRule) matches(q Question) bool {
	switch {
	case r.Question != "":
		return r.Question == q.ID
	case r.Pattern != "":
		ok, _ := path.Match(r.Pattern, q.ID)
		return ok
	case r.Category != "":
		return r.Category == q.Category
	}
	return false
}

// ClusterRule declares that its questions are resolved by the same fix.
// Entries in Questions may be exact ids or glob patterns.
type ClusterRule struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Questions []string `yaml:"questions"`
	Stream    string   `yaml:"stream,omitempty"`
	FixType   FixType  `yaml:"fix_type,omitempty"`
}

func (c ClusterRule) matches(id string) bool {
	for _, p := range c.Questions {
		if p == id {
			return true
		}
		if ok, _ := path.Match(p, id); ok {
			return true
		}
	}
	return false
}

// DependencyRule orders tasks: Task cannot start before DependsOn finish.
// Stream, when set, is where both ends go if the rule crosses streams.
type DependencyRule struct {
	Task      string   `yaml:"task"`
	DependsOn []string `yaml:"depends_on"`
	Stream    string   `yaml:"stream,omitempty"`
}

// RuleSet holds the remediation rule tables.
type RuleSet struct {
	FixRules     []FixRule         `yaml:"fix_rules"`
	Clusters     []ClusterRule     `yaml:"clusters"`
	Dependencies []DependencyRule  `yaml:"dependencies"`
	Streams      map[string]string `yaml:"streams"`
}

// LoadRules reads rule tables from a YAML file, or merges every YAML file
// in a directory.
func LoadRules(p string) (*RuleSet, error) {
	files, err := dataFiles(p)
	if err != nil {
		return nil, err
	}

	rs := &RuleSet{Streams: make(map[string]string)}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		var part RuleSet
		if err := yaml.Unmarshal(data, &part); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(f), err)
		}
		rs.FixRules = append(rs.FixRules, part.FixRules...)
		rs.Clusters = append(rs.Clusters, part.Clusters...)
		rs.Dependencies = append(rs.Dependencies, part.Dependencies...)
		for k, v := range part.Streams {
			rs.Streams[k] = v
		}
	}
	if err := rs.check(); err != nil {
		return nil, err
	}
	return rs, nil
}

// check rejects structurally invalid rule tables.
func (rs *RuleSet) check() error {
	for i, r := range rs.FixRules {
		if r.specificity() == 0 {
			return fmt.Errorf("fix rule %d: one of question, pattern or category is required", i)
		}
		if r.Pattern != "" {
			if _, err := path.Match(r.Pattern, ""); err != nil {
				return fmt.Errorf("fix rule %d: bad pattern %q: %w", i, r.Pattern, err)
			}
		}
		if !r.FixType.Valid() {
			return fmt.Errorf("fix rule %d: unknown fix_type %q", i, r.FixType)
		}
		if r.Complexity.Rank() == 0 {
			return fmt.Errorf("fix rule %d: unknown fix_complexity %q", i, r.Complexity)
		}
	}

	seen := make(map[string]bool)
	for _, c := range rs.Clusters {
		if c.ID == "" {
			return fmt.Errorf("cluster without id")
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate cluster id %q", c.ID)
		}
		seen[c.ID] = true
		if len(c.Questions) == 0 {
			return fmt.Errorf("cluster %s has no questions", c.ID)
		}
		if c.FixType != "" && !c.FixType.Valid() {
			return fmt.Errorf("cluster %s: unknown fix_type %q", c.ID, c.FixType)
		}
		if !c.FixType.clusterOverride() {
			return fmt.Errorf("cluster %s: fix_type %q cannot be set on a cluster", c.ID, c.FixType)
		}
	}

	for i, d := range rs.Dependencies {
		if d.Task == "" || len(d.DependsOn) == 0 {
			return fmt.Errorf("dependency rule %d: task and depends_on are required", i)
		}
	}
	return nil
}

// FixFor returns the fix classification for a question answered "No".
// The most specific matching rule wins; ties go to the earlier rule. A
// question no rule covers is classified organizational and large.
func (rs *RuleSet) FixFor(q Question) (FixRule, bool) {
	best := -1
	bestSpec := 0
	if rs != nil {
		for i, r := range rs.FixRules {
			if s := r.specificity(); s > bestSpec && r.matches(q) {
				best, bestSpec = i, s
			}
		}
	}
	if best < 0 {
		return FixRule{FixType: FixOrganizational, Complexity: Large}, false
	}
	return rs.FixRules[best], true
}

// StreamName returns the display name of a work stream key.
func (rs *RuleSet) StreamName(key string) string {
	if rs != nil {
		if n, ok := rs.Streams[key]; ok && n != "" {
			return n
		}
	}
	return key
}

// Validate checks the rule tables against the catalog and returns
// completeness warnings.
func (rs *RuleSet) Validate(c *Catalog) []Diagnostic {
	var diags []Diagnostic
	warn := func(id, format string, args ...any) {
		diags = append(diags, Diagnostic{Level: LevelWarn, QuestionID: id, Message: fmt.Sprintf(format, args...)})
	}

	for _, q := range c.Questions() {
		if !q.Assessable {
			continue
		}
		if _, ok := rs.FixFor(q); !ok {
			warn(q.ID, "no fix rule; gaps will be classified organizational")
		}
	}

	for i, r := range rs.FixRules {
		if !anyQuestion(c, r.matches) {
			warn("", "fix rule %d (%s) matches no catalog question", i, r.selector())
		}
	}

	taskIDs := make(map[string]bool)
	for _, cl := range rs.Clusters {
		taskIDs[cl.ID] = true
		for _, p := range cl.Questions {
			if !anyQuestion(c, func(q Question) bool { return ClusterRule{Questions: []string{p}}.matches(q.ID) }) {
				warn("", "cluster %s entry %q matches no catalog question", cl.ID, p)
			}
		}
	}
	for _, q := range c.Questions() {
		taskIDs[singletonTaskID(q.ID)] = true
	}
	for _, d := range rs.Dependencies {
		for _, id := range append([]string{d.Task}, d.DependsOn...) {
			if !taskIDs[id] {
				warn("", "dependency rule references unknown task %q", id)
			}
		}
	}
	return diags
}

func (r FixRule) selector() string {
	switch {
	case r.Question != "":
		return "question " + r.Question
	case r.Pattern != "":
		return "pattern " + r.Pattern
	default:
		return "category " + r.Category
	}
}

func anyQuestion(c *Catalog, pred func(Question) bool) bool {
	for _, q := range c.Questions() {
		if pred(q) {
			return true
		}
	}
	return false
}

// singletonTaskID is the task id of an unclustered question.
func singletonTaskID(questionID string) string {
	return strings.ToLower(questionID)
}
