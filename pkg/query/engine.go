package query

import (
	"context"
	"fmt"

	"github.com/ssargent/chemcomp/pkg/index"
)

// SimpleQueryEngine implements field-based queries using secondary indexes
type SimpleQueryEngine struct {
	indexManager *index.IndexManager
	extractor    FieldExtractor
}

// NewSimpleQueryEngine creates a new query engine. Query values are
// normalized by extractor before they are looked up.
func NewSimpleQueryEngine(indexManager *index.IndexManager, extractor FieldExtractor) *SimpleQueryEngine {
	if extractor == nil {
		extractor = &RecordExtractor{}
	}
	return &SimpleQueryEngine{
		indexManager: indexManager,
		extractor:    extractor,
	}
}

// ExecuteQuery executes a single field query
func (qe *SimpleQueryEngine) ExecuteQuery(ctx context.Context, query FieldQuery) (QueryIterator, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, value, err := qe.prepare(query)
	if err != nil {
		return nil, err
	}

	switch query.Operator {
	case "=":
		return newIterator(idx.Search(value)), nil
	case "^":
		prefix, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("prefix search on non-string field %s", query.Field)
		}
		return newIterator(idx.SearchPrefix(prefix)), nil
	case ">", ">=", "<", "<=":
		return qe.executeRangeQuery(idx, query.Operator, value)
	default:
		return nil, fmt.Errorf("unsupported operator: %s", query.Operator)
	}
}

// ExecuteRangeQuery executes a range query between two field conditions.
// startQuery must use ">" or ">=", endQuery "<" or "<=".
func (qe *SimpleQueryEngine) ExecuteRangeQuery(ctx context.Context, startQuery, endQuery FieldQuery) (QueryIterator, error) {
	if err := startQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid start query: %w", err)
	}
	if err := endQuery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid end query: %w", err)
	}
	if startQuery.Field != endQuery.Field {
		return nil, fmt.Errorf("range query fields must match: %s != %s", startQuery.Field, endQuery.Field)
	}
	if startQuery.Operator != ">" && startQuery.Operator != ">=" {
		return nil, fmt.Errorf("range start needs > or >=, got %s", startQuery.Operator)
	}
	if endQuery.Operator != "<" && endQuery.Operator != "<=" {
		return nil, fmt.Errorf("range end needs < or <=, got %s", endQuery.Operator)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx, lo, err := qe.prepare(startQuery)
	if err != nil {
		return nil, err
	}
	hi, err := qe.extractor.Normalize(endQuery.Field, endQuery.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid end query: %w", err)
	}

	postings, err := idx.SearchRange(
		&index.Bound{Value: lo, Exclusive: startQuery.Operator == ">"},
		&index.Bound{Value: hi, Exclusive: endQuery.Operator == "<"},
	)
	if err != nil {
		return nil, fmt.Errorf("range search failed: %w", err)
	}
	return newIterator(postings), nil
}

func (qe *SimpleQueryEngine) prepare(query FieldQuery) (*index.SecondaryIndex, interface{}, error) {
	idx, ok := qe.indexManager.Index(query.Field)
	if !ok {
		return nil, nil, fmt.Errorf("field '%s' is not indexed", query.Field)
	}
	value, err := qe.extractor.Normalize(query.Field, query.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid query: %w", err)
	}
	return idx, value, nil
}

// executeRangeQuery handles single-field range queries
func (qe *SimpleQueryEngine) executeRangeQuery(idx *index.SecondaryIndex, op string, value interface{}) (QueryIterator, error) {
	var lower, upper *index.Bound

	switch op {
	case ">":
		lower = &index.Bound{Value: value, Exclusive: true}
	case ">=":
		lower = &index.Bound{Value: value}
	case "<":
		upper = &index.Bound{Value: value, Exclusive: true}
	case "<=":
		upper = &index.Bound{Value: value}
	default:
		return nil, fmt.Errorf("unsupported range operator: %s", op)
	}

	postings, err := idx.SearchRange(lower, upper)
	if err != nil {
		return nil, fmt.Errorf("range search failed: %w", err)
	}
	return newIterator(postings), nil
}

// newIterator keeps the first posting of each component. A component filed
// under several matching values, such as two synonyms, is returned once.
func newIterator(postings []index.Posting) *simpleIterator {
	seen := make(map[string]struct{}, len(postings))
	results := make([]QueryResult, 0, len(postings))
	for _, p := range postings {
		if _, dup := seen[p.CompID]; dup {
			continue
		}
		seen[p.CompID] = struct{}{}
		results = append(results, QueryResult{CompID: p.CompID, Revision: p.Revision})
	}
	return &simpleIterator{results: results}
}

// simpleIterator implements QueryIterator for basic result streaming
type simpleIterator struct {
	results []QueryResult
	index   int
}

func (it *simpleIterator) Next() bool {
	if it.index < len(it.results) {
		it.index++
		return true
	}
	return false
}

func (it *simpleIterator) Result() QueryResult {
	if it.index > 0 && it.index <= len(it.results) {
		return it.results[it.index-1]
	}
	return QueryResult{}
}

func (it *simpleIterator) Close() error {
	it.results = nil
	it.index = 0
	return nil
}
