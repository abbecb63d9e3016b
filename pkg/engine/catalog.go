package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var questionIDPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*-[0-9A-Za-z.]+$`)

// Question is one immutable questionnaire item.
type Question struct {
	ID              string      `yaml:"id" json:"id"`
	Category        string      `yaml:"category" json:"category"`
	Text            string      `yaml:"text" json:"text"`
	Assessable      bool        `yaml:"assessable" json:"assessable"`
	CompliantAnswer string      `yaml:"compliant_answer,omitempty" json:"compliant_answer,omitempty"`
	DefaultAnswer   AnswerValue `yaml:"default_answer,omitempty" json:"default_answer,omitempty"`
}

// CategoryOf derives a category code from a question id ("AAAI-03" -> "AAAI").
func CategoryOf(id string) string {
	if i := strings.LastIndex(id, "-"); i > 0 {
		return id[:i]
	}
	return id
}

type catalogFile struct {
	Version   string     `yaml:"version"`
	Questions []Question `yaml:"questions"`
}

// Catalog is the fixed, ordered set of questions.
type Catalog struct {
	Version   string
	questions []Question
	index     map[string]int
}

// NewCatalog builds a catalog from questions, filling missing categories
// from the id prefix. Duplicate or malformed ids are rejected.
func NewCatalog(questions []Question) (*Catalog, error) {
	c := &Catalog{index: make(map[string]int, len(questions))}
	for _, q := range questions {
		q.ID = strings.TrimSpace(q.ID)
		if !questionIDPattern.MatchString(q.ID) {
			return nil, fmt.Errorf("invalid question id %q", q.ID)
		}
		if _, dup := c.index[q.ID]; dup {
			return nil, fmt.Errorf("duplicate question id %q", q.ID)
		}
		if q.Category == "" {
			q.Category = CategoryOf(q.ID)
		}
		if q.DefaultAnswer != Unanswered {
			v, ok := ParseAnswerValue(string(q.DefaultAnswer))
			if !ok || v == Yes {
				return nil, fmt.Errorf("question %s: unsupported default_answer %q", q.ID, q.DefaultAnswer)
			}
			q.DefaultAnswer = v
		}
		c.index[q.ID] = len(c.questions)
		c.questions = append(c.questions, q)
	}
	return c, nil
}

// LoadCatalog reads a catalog from a YAML or JSON file, or from every
// *.yaml, *.yml and *.json file in a directory.
func LoadCatalog(path string) (*Catalog, error) {
	files, err := dataFiles(path)
	if err != nil {
		return nil, err
	}

	var version string
	var all []Question
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		cf, err := parseCatalog(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(f), err)
		}
		if version == "" {
			version = cf.Version
		}
		all = append(all, cf.Questions...)
	}

	c, err := NewCatalog(all)
	if err != nil {
		return nil, err
	}
	c.Version = version
	return c, nil
}

func parseCatalog(data []byte) (catalogFile, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err == nil {
		return cf, nil
	}
	var list []Question
	if err := yaml.Unmarshal(data, &list); err != nil {
		return cf, err
	}
	cf.Questions = list
	return cf, nil
}

// dataFiles expands path into the data files it names.
func dataFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".yaml", ".yml", ".json":
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Question looks up a question by id.
func (c *Catalog) Question(id string) (Question, bool) {
	i, ok := c.index[id]
	if !ok {
		return Question{}, false
	}
	return c.questions[i], true
}

// Questions returns the questions in catalog order.
func (c *Catalog) Questions() []Question {
	out := make([]Question, len(c.questions))
	copy(out, c.questions)
	return out
}

// Len returns the number of questions.
func (c *Catalog) Len() int {
	return len(c.questions)
}

// Categories returns the distinct category codes, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, q := range c.questions {
		if !seen[q.Category] {
			seen[q.Category] = true
			cats = append(cats, q.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// CategoryWeight is the relative importance of one category.
type CategoryWeight struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// Weights maps category codes to their weights.
type Weights map[string]CategoryWeight

type weightsFile struct {
	CategoryWeights Weights `yaml:"category_weights"`
}

// LoadWeights reads a category_weights YAML document.
func LoadWeights(path string) (Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var wf weightsFile
	if err := yaml.Unmarshal(data, &wf); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if wf.CategoryWeights == nil {
		return nil, fmt.Errorf("%s: missing category_weights", filepath.Base(path))
	}
	for cat, w := range wf.CategoryWeights {
		if w.Weight < 0 {
			return nil, fmt.Errorf("%s: negative weight for %s", filepath.Base(path), cat)
		}
	}
	return wf.CategoryWeights, nil
}

// Weight returns the weight of a category, or 0 when it has no entry.
func (w Weights) Weight(category string) float64 {
	return w[category].Weight
}

// Name returns the display name of a category, falling back to its code.
func (w Weights) Name(category string) string {
	if cw, ok := w[category]; ok && cw.Name != "" {
		return cw.Name
	}
	return category
}

// Validate reports catalog categories that have no weight entry.
func (w Weights) Validate(c *Catalog) []Diagnostic {
	var diags []Diagnostic
	for _, cat := range c.Categories() {
		if _, ok := w[cat]; !ok {
			diags = append(diags, Diagnostic{
				Level:   LevelWarn,
				Message: fmt.Sprintf("category %s has no weight entry; using 0", cat),
			})
		}
	}
	return diags
}
