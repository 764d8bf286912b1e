// Package validation runs data-driven relevance checks against a loaded
// search index.
//
// A suite is a YAML file of queries with the refs they are expected to find,
// plus negative queries that must find nothing. Editing the suite needs no
// rebuild, so site authors can pin the results their visitors rely on.
package validation

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/sitesearch/internal/search"
)

// DefaultWithin is how many top hits a query's expected refs must appear in.
const DefaultWithin = 10

// QuerySpec defines a query with its expected results.
type QuerySpec struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	Query string `yaml:"query" json:"query"`
	// Expected are refs or ref prefixes. Any one of them matching passes.
	Expected []string `yaml:"expected" json:"expected,omitempty"`
	// Within limits the match to the top N hits. 0 means DefaultWithin.
	Within int    `yaml:"within" json:"within,omitempty"`
	Notes  string `yaml:"notes" json:"notes,omitempty"`
}

// Suite holds all queries loaded from YAML.
type Suite struct {
	Queries  []QuerySpec `yaml:"queries"`
	Negative []QuerySpec `yaml:"negative"`
}

// LoadSuite reads a suite from path.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read query suite %s: %w", path, err)
	}
	return ParseSuite(data)
}

// ParseSuite decodes a suite and checks every query has text and every
// positive query has expectations.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse query suite: %w", err)
	}
	for i := range s.Queries {
		q := &s.Queries[i]
		if strings.TrimSpace(q.Query) == "" {
			return nil, fmt.Errorf("query %s has no text", q.label(i))
		}
		if len(q.Expected) == 0 {
			return nil, fmt.Errorf("query %s has no expected refs", q.label(i))
		}
	}
	for i := range s.Negative {
		if strings.TrimSpace(s.Negative[i].Query) == "" {
			return nil, fmt.Errorf("negative query %s has no text", s.Negative[i].label(i))
		}
	}
	if len(s.Queries)+len(s.Negative) == 0 {
		return nil, fmt.Errorf("query suite is empty")
	}
	return &s, nil
}

func (q QuerySpec) label(i int) string {
	if q.ID != "" {
		return q.ID
	}
	return fmt.Sprintf("#%d", i+1)
}

// TestResult captures the outcome of a single query.
type TestResult struct {
	Spec     QuerySpec     `json:"spec"`
	Passed   bool          `json:"passed"`
	Duration time.Duration `json:"duration_ns"`
	Total    int           `json:"total"`
	// TopRefs are the refs of the hits that were inspected.
	TopRefs []string `json:"top_refs"`
	// MatchedAt is the position of the first expected ref, -1 if none.
	MatchedAt int `json:"matched_at"`
}

// Result captures a full suite run.
type Result struct {
	Timestamp     time.Time    `json:"timestamp"`
	Queries       []TestResult `json:"queries"`
	Negative      []TestResult `json:"negative"`
	QueryPass     int          `json:"query_pass"`
	QueryTotal    int          `json:"query_total"`
	NegativePass  int          `json:"negative_pass"`
	NegativeTotal int          `json:"negative_total"`
}

// Failed returns how many queries did not pass.
func (r *Result) Failed() int {
	return r.QueryTotal - r.QueryPass + r.NegativeTotal - r.NegativePass
}

// Searcher evaluates a query. *search.Engine implements it.
type Searcher interface {
	Search(ctx context.Context, query string) search.Result
}

// Validator runs suites against one index.
type Validator struct {
	searcher Searcher
}

// NewValidator creates a validator.
func NewValidator(s Searcher) *Validator {
	return &Validator{searcher: s}
}

// RunQuery executes a positive query.
func (v *Validator) RunQuery(ctx context.Context, spec QuerySpec) TestResult {
	within := spec.Within
	if within <= 0 {
		within = DefaultWithin
	}

	start := time.Now()
	res := v.searcher.Search(ctx, spec.Query)
	result := TestResult{
		Spec:      spec,
		Duration:  time.Since(start),
		Total:     res.Total,
		TopRefs:   topRefs(res, within),
		MatchedAt: -1,
	}
	result.Passed, result.MatchedAt = checkExpected(result.TopRefs, spec.Expected)
	return result
}

// RunNegative executes a query that must find nothing.
func (v *Validator) RunNegative(ctx context.Context, spec QuerySpec) TestResult {
	start := time.Now()
	res := v.searcher.Search(ctx, spec.Query)
	return TestResult{
		Spec:      spec,
		Passed:    res.Total == 0,
		Duration:  time.Since(start),
		Total:     res.Total,
		TopRefs:   topRefs(res, DefaultWithin),
		MatchedAt: -1,
	}
}

// RunAll executes every query in the suite.
func (v *Validator) RunAll(ctx context.Context, suite *Suite) *Result {
	result := &Result{Timestamp: time.Now()}

	for _, spec := range suite.Queries {
		tr := v.RunQuery(ctx, spec)
		result.Queries = append(result.Queries, tr)
		result.QueryTotal++
		if tr.Passed {
			result.QueryPass++
		}
	}

	for _, spec := range suite.Negative {
		tr := v.RunNegative(ctx, spec)
		result.Negative = append(result.Negative, tr)
		result.NegativeTotal++
		if tr.Passed {
			result.NegativePass++
		}
	}

	return result
}

func topRefs(res search.Result, n int) []string {
	refs := make([]string, 0, min(n, len(res.Hits)))
	for i, h := range res.Hits {
		if i >= n {
			break
		}
		refs = append(refs, h.Ref)
	}
	return refs
}

// checkExpected reports whether any expected ref prefixes one of refs.
func checkExpected(refs []string, expected []string) (bool, int) {
	for i, ref := range refs {
		for _, exp := range expected {
			if strings.HasPrefix(ref, exp) {
				return true, i
			}
		}
	}
	return false, -1
}
