package store

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

// BleveIndex wraps an in-memory Bleve v2 index.
type BleveIndex struct {
	mu      sync.RWMutex
	index   bleve.Index
	mapping *mapping.IndexMappingImpl
	spec    IndexSpec
	closed  bool
}

// NewBleveIndex creates an empty in-memory index for spec.
func NewBleveIndex(spec IndexSpec) (*BleveIndex, error) {
	if len(spec.Fields) == 0 {
		return nil, fmt.Errorf("index requires at least one field")
	}
	if spec.Language.Analyzer == "" {
		spec.Language = Generic
	}

	indexMapping, err := createIndexMapping(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to create index mapping: %w", err)
	}

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &BleveIndex{
		index:   idx,
		mapping: indexMapping,
		spec:    spec,
	}, nil
}

// createIndexMapping maps only the declared fields, all analyzed with the
// language's analyzer. Other document properties are ignored.
func createIndexMapping(spec IndexSpec) (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	analyzer := spec.Language.Analyzer
	if spec.Language.Custom != nil {
		if err := indexMapping.AddCustomAnalyzer(analyzer, spec.Language.Custom); err != nil {
			return nil, fmt.Errorf("failed to add analyzer %s: %w", analyzer, err)
		}
	}
	indexMapping.DefaultAnalyzer = analyzer

	docMapping := bleve.NewDocumentMapping()
	docMapping.Dynamic = false
	for _, field := range spec.Fields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = analyzer
		fm.Store = false
		fm.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, fm)
	}
	indexMapping.DefaultMapping = docMapping

	if err := indexMapping.Validate(); err != nil {
		return nil, err
	}
	return indexMapping, nil
}

// Spec returns the spec the index was built with.
func (b *BleveIndex) Spec() IndexSpec {
	return b.spec
}

// Add indexes a single document.
func (b *BleveIndex) Add(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Ref == "" {
		return fmt.Errorf("document has no reference")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}
	if err := b.index.Index(doc.Ref, b.fieldsOf(doc)); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.Ref, err)
	}
	return nil
}

// AddBatch indexes documents in a single batch; any failure fails the batch.
func (b *BleveIndex) AddBatch(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		if doc.Ref == "" {
			return fmt.Errorf("document has no reference")
		}
		if err := batch.Index(doc.Ref, b.fieldsOf(doc)); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.Ref, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

func (b *BleveIndex) fieldsOf(doc Document) map[string]interface{} {
	data := make(map[string]interface{}, len(b.spec.Fields))
	for _, field := range b.spec.Fields {
		if v, ok := doc.Fields[field]; ok && v != "" {
			data[field] = v
		}
	}
	return data
}

// Search implements Index.
func (b *BleveIndex) Search(ctx context.Context, q Query) ([]Hit, int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, 0, fmt.Errorf("index is closed")
	}

	text := strings.TrimSpace(q.Text)
	if text == "" || len(q.Fields) == 0 {
		return []Hit{}, 0, nil
	}

	clauses := b.buildClauses(text, q)
	if len(clauses) == 0 {
		return []Hit{}, 0, nil
	}

	size := q.Limit
	if size <= 0 {
		count, _ := b.index.DocCount()
		size = int(count)
	}
	if size <= 0 {
		return []Hit{}, 0, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(clauses...), size, 0, false)
	// Equal scores fall back to reference order so repeated searches agree.
	req.SortBy([]string{"-_score", "_id"})

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		hits = append(hits, Hit{Ref: hit.ID, Score: hit.Score})
	}
	return hits, int(result.Total), nil
}

// buildClauses creates one boosted match query per field, plus a prefix
// query per analyzed term when expansion is enabled.
func (b *BleveIndex) buildClauses(text string, q Query) []query.Query {
	var terms []string
	if q.Expand {
		terms = b.analyze(text)
	}

	clauses := make([]query.Query, 0, len(q.Fields)*(1+len(terms)))
	for _, fb := range q.Fields {
		boost := fb.Boost
		if boost <= 0 {
			boost = 1
		}

		match := bleve.NewMatchQuery(text)
		match.SetField(fb.Field)
		match.SetBoost(boost)
		match.SetOperator(query.MatchQueryOperatorOr)
		clauses = append(clauses, match)

		for _, term := range terms {
			prefix := bleve.NewPrefixQuery(term)
			prefix.SetField(fb.Field)
			prefix.SetBoost(boost)
			clauses = append(clauses, prefix)
		}
	}
	return clauses
}

// analyze runs text through the index analyzer and returns the distinct terms.
func (b *BleveIndex) analyze(text string) []string {
	analyzer := b.mapping.AnalyzerNamed(b.spec.Language.Analyzer)
	if analyzer == nil {
		return nil
	}

	seen := make(map[string]struct{})
	var terms []string
	for _, token := range analyzer.Analyze([]byte(text)) {
		term := string(token.Term)
		if term == "" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	return terms
}

// DocCount implements Index.
func (b *BleveIndex) DocCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}
	count, _ := b.index.DocCount()
	return int(count)
}

// Refs implements Index.
func (b *BleveIndex) Refs() ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	count, _ := b.index.DocCount()
	if count == 0 {
		return []string{}, nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	req.Fields = []string{}
	req.SortBy([]string{"_id"})

	result, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list references: %w", err)
	}

	refs := make([]string, len(result.Hits))
	for i, hit := range result.Hits {
		refs[i] = hit.ID
	}
	return refs, nil
}

// Close implements Index.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.index.Close()
}

// Verify interface implementation
var _ Index = (*BleveIndex)(nil)
