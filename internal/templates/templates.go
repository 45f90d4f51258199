// Package templates ships the pre-built request templates offered when
// creating a test.
package templates

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/NordCoder/apiwatch/internal/domain/apitest"
)

//go:embed templates.yaml
var raw []byte

type Template struct {
	ID            string            `yaml:"id" json:"id"`
	Name          string            `yaml:"name" json:"name"`
	Category      string            `yaml:"category" json:"category"`
	Description   string            `yaml:"description" json:"description"`
	Method        apitest.Method    `yaml:"method" json:"method"`
	URL           string            `yaml:"url" json:"url"`
	Headers       map[string]string `yaml:"headers" json:"headers"`
	QueryParams   map[string]string `yaml:"query_params" json:"query_params"`
	Body          string            `yaml:"body" json:"body"`
	Documentation string            `yaml:"documentation" json:"documentation"`
	Tags          []string          `yaml:"tags" json:"tags"`
}

// Group is one category of templates in catalogue order.
type Group struct {
	Category  string     `json:"category"`
	Templates []Template `json:"templates"`
}

type NotFoundError struct {
	ID         string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("unknown template %q, did you mean %q?", e.ID, e.Suggestion)
	}
	return fmt.Sprintf("unknown template %q", e.ID)
}

var (
	loadOnce sync.Once
	catalog  []Template
	loadErr  error
)

func load() ([]Template, error) {
	loadOnce.Do(func() {
		catalog, loadErr = Parse(raw)
	})
	return catalog, loadErr
}

// Parse decodes a template catalogue and rejects duplicate or incomplete
// entries.
func Parse(data []byte) ([]Template, error) {
	var out []Template
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	seen := make(map[string]struct{}, len(out))
	for i := range out {
		t := &out[i]
		if t.ID == "" || t.Name == "" || t.URL == "" {
			return nil, fmt.Errorf("template #%d: id, name and url are required", i)
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("template %q defined twice", t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Method == "" {
			t.Method = apitest.MethodGet
		}
		if !t.Method.Valid() {
			return nil, fmt.Errorf("template %q: %w", t.ID, apitest.ErrInvalidMethod)
		}
	}
	return out, nil
}

// List returns every template in catalogue order.
func List() ([]Template, error) {
	ts, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]Template, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.clone())
	}
	return out, nil
}

// Grouped returns the templates grouped by category, categories in order of
// first appearance.
func Grouped() ([]Group, error) {
	ts, err := load()
	if err != nil {
		return nil, err
	}
	var (
		out []Group
		idx = map[string]int{}
	)
	for _, t := range ts {
		i, ok := idx[t.Category]
		if !ok {
			i = len(out)
			idx[t.Category] = i
			out = append(out, Group{Category: t.Category})
		}
		out[i].Templates = append(out[i].Templates, t.clone())
	}
	return out, nil
}

func Get(id string) (Template, error) {
	ts, err := load()
	if err != nil {
		return Template{}, err
	}
	id = strings.ToLower(strings.TrimSpace(id))
	for _, t := range ts {
		if t.ID == id {
			return t.clone(), nil
		}
	}
	return Template{}, &NotFoundError{ID: id, Suggestion: suggest(id, ts)}
}

// suggest returns the closest template id when it is within a third of the
// id's length in edits.
func suggest(id string, ts []Template) string {
	if id == "" {
		return ""
	}
	type cand struct {
		id   string
		dist int
	}
	cands := make([]cand, 0, len(ts))
	for _, t := range ts {
		cands = append(cands, cand{t.ID, levenshtein.ComputeDistance(id, t.ID)})
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].dist < cands[j].dist })
	best := cands[0]
	if best.dist > len(best.id)/3+1 {
		return ""
	}
	return best.id
}

// ToTest turns the template into an unsaved test.
func (t Template) ToTest() *apitest.Test {
	tt := &apitest.Test{
		Name:          t.Name,
		Method:        t.Method,
		URL:           t.URL,
		Headers:       cloneMap(t.Headers),
		QueryParams:   cloneMap(t.QueryParams),
		Body:          t.Body,
		Documentation: t.Documentation,
		Tags:          append([]string(nil), t.Tags...),
	}
	tt.Normalize()
	return tt
}

func (t Template) clone() Template {
	t.Headers = cloneMap(t.Headers)
	t.QueryParams = cloneMap(t.QueryParams)
	t.Tags = append([]string(nil), t.Tags...)
	return t
}

func cloneMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
