// Package library holds a collection of chemical component records with
// secondary indexes for lookups by id, name, formula, descriptor and weight.
package library

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/codec"
	"github.com/ssargent/chemcomp/pkg/index"
	"github.com/ssargent/chemcomp/pkg/metrics"
	"github.com/ssargent/chemcomp/pkg/query"
)

// DefaultIndexOrder is the branching factor of the library indexes.
const DefaultIndexOrder = 32

// Library is an in-memory component collection. It is safe for concurrent use.
type Library struct {
	entries    map[string]Entry
	indexes    *index.IndexManager
	queries    *query.SimpleQueryEngine
	extractor  query.FieldExtractor
	codec      *codec.RecordCodec
	logger     *zap.Logger
	metrics    *metrics.Metrics
	indexOrder int
	workers    int
	mutex      sync.RWMutex
}

// Option configures a Library
type Option func(*Library)

// WithCodec sets the codec used by Load and Render
func WithCodec(c *codec.RecordCodec) Option {
	return func(l *Library) {
		l.codec = c
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Library) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Library) {
		l.metrics = m
	}
}

// WithIndexOrder sets the branching factor of the indexes
func WithIndexOrder(order int) Option {
	return func(l *Library) {
		l.indexOrder = order
	}
}

// WithWorkers bounds the number of blocks Load parses at once
func WithWorkers(n int) Option {
	return func(l *Library) {
		l.workers = n
	}
}

// New creates an empty library
func New(opts ...Option) *Library {
	l := &Library{
		entries:    make(map[string]Entry),
		extractor:  &query.RecordExtractor{},
		logger:     zap.NewNop(),
		indexOrder: DefaultIndexOrder,
		workers:    4,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.codec == nil {
		l.codec = codec.NewRecordCodec(codec.WithLogger(l.logger), codec.WithMetrics(l.metrics))
	}
	if l.workers < 1 {
		l.workers = 1
	}

	l.indexes = index.NewIndexManager(l.indexOrder)
	for _, field := range query.Fields() {
		l.indexes.GetOrCreateIndex(field)
	}
	l.queries = query.NewSimpleQueryEngine(l.indexes, l.extractor)
	return l
}

// Add validates rec and stores a copy of it, replacing any component with
// the same id, and returns the revision it was stored under. A record with
// hard violations yields a *validate.ValidationError and is not stored.
func (l *Library) Add(rec chemcomp.Record) (ksuid.KSUID, error) {
	if strings.TrimSpace(rec.Header.ID) == "" {
		return ksuid.Nil, ErrInvalidID
	}
	if _, err := l.codec.Validate(rec); err != nil {
		return ksuid.Nil, err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	rev, err := l.addInternal(rec)
	if err != nil {
		return ksuid.Nil, err
	}
	l.metrics.SetLibraryComponents(len(l.entries))
	return rev, nil
}

func (l *Library) addInternal(rec chemcomp.Record) (ksuid.KSUID, error) {
	id := rec.Header.ID
	if old, exists := l.entries[id]; exists {
		l.logger.Warn("component replaced",
			zap.String("comp_id", id),
			zap.String("previous_revision", old.Revision.String()))
		l.unindex(&old.Record)
	}

	entry := Entry{
		Record:   chemcomp.NewRecord(rec.Header, rec.Synonyms, rec.Atoms, rec.Bonds, rec.Descriptors, rec.Identifiers),
		Revision: ksuid.New(),
	}
	if err := l.index(&entry); err != nil {
		l.unindex(&entry.Record)
		delete(l.entries, id)
		return ksuid.Nil, err
	}
	l.entries[id] = entry

	l.logger.Debug("component added",
		zap.String("comp_id", id),
		zap.String("revision", entry.Revision.String()))
	return entry.Revision, nil
}

func (l *Library) index(e *Entry) error {
	for _, field := range query.Fields() {
		values, err := l.extractor.Extract(&e.Record, field)
		if err != nil {
			return fmt.Errorf("failed to index %s: %w", e.Record.Header.ID, err)
		}
		idx := l.indexes.GetOrCreateIndex(field)
		for _, v := range values {
			if err := idx.Insert(v, e.Record.Header.ID, e.Revision); err != nil {
				return fmt.Errorf("failed to index %s: %w", e.Record.Header.ID, err)
			}
		}
	}
	return nil
}

func (l *Library) unindex(rec *chemcomp.Record) {
	for _, field := range query.Fields() {
		values, err := l.extractor.Extract(rec, field)
		if err != nil {
			continue
		}
		idx := l.indexes.GetOrCreateIndex(field)
		for _, v := range values {
			idx.Delete(v, rec.Header.ID)
		}
	}
}

// Get returns the component with the given id
func (l *Library) Get(id string) (chemcomp.Record, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	e, ok := l.entries[id]
	if !ok {
		return chemcomp.Record{}, ErrNotFound
	}
	return e.Record.Clone(), nil
}

// Entry returns the component with the given id and its revision
func (l *Library) Entry(id string) (Entry, bool) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	e, ok := l.entries[id]
	if ok {
		e.Record = e.Record.Clone()
	}
	return e, ok
}

// Has reports whether a component with the given id is stored
func (l *Library) Has(id string) bool {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	_, ok := l.entries[id]
	return ok
}

// Remove deletes a component and reports whether it was present
func (l *Library) Remove(id string) bool {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	e, ok := l.entries[id]
	if !ok {
		return false
	}
	l.unindex(&e.Record)
	delete(l.entries, id)
	l.metrics.SetLibraryComponents(len(l.entries))
	return true
}

// Merge adds every component of other, replacing components with the same
// id, and returns the number of components taken. Components are checked
// against this library's rules first; if any fails nothing is taken.
func (l *Library) Merge(other *Library) (int, error) {
	if other == l {
		return 0, nil
	}
	other.mutex.RLock()
	recs := make([]chemcomp.Record, 0, len(other.entries))
	for _, id := range sortedKeys(other.entries) {
		recs = append(recs, other.entries[id].Record)
	}
	other.mutex.RUnlock()

	for _, rec := range recs {
		if _, err := l.codec.Validate(rec); err != nil {
			return 0, fmt.Errorf("failed to merge %s: %w", rec.Header.ID, err)
		}
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	for i, rec := range recs {
		if _, err := l.addInternal(rec); err != nil {
			l.metrics.SetLibraryComponents(len(l.entries))
			return i, err
		}
	}
	l.metrics.SetLibraryComponents(len(l.entries))
	return len(recs), nil
}

// IDs returns the component ids in sorted order
func (l *Library) IDs() []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return sortedKeys(l.entries)
}

// Formulas returns the formula of each component in id order
func (l *Library) Formulas() []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	ids := sortedKeys(l.entries)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = l.entries[id].Record.Header.Formula
	}
	return out
}

// Len returns the number of components
func (l *Library) Len() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	return len(l.entries)
}

// Stats returns library statistics
func (l *Library) Stats() *Stats {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	s := &Stats{Components: len(l.entries), Postings: make(map[string]int)}
	for _, field := range l.indexes.Fields() {
		if idx, ok := l.indexes.Index(field); ok {
			s.Postings[field] = idx.Len()
		}
	}
	return s
}

// Find returns the components matching q, ordered by id. Names match the
// component name, synonyms and identifiers ignoring case; formulas ignore
// spacing and case; descriptors match exactly.
func (l *Library) Find(by By, q string) ([]chemcomp.Record, error) {
	switch by {
	case ByID, ByName, ByFormula, ByDescriptor:
	default:
		return nil, fmt.Errorf("invalid search type: %s", by)
	}
	return l.Query(context.Background(), query.FieldQuery{Field: string(by), Operator: "=", Value: q})
}

// Query returns the components matching a field query
func (l *Library) Query(ctx context.Context, q query.FieldQuery) ([]chemcomp.Record, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	it, err := l.queries.ExecuteQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	return l.collect(it)
}

// QueryRange returns the components whose field lies between two bounds
func (l *Library) QueryRange(ctx context.Context, start, end query.FieldQuery) ([]chemcomp.Record, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	it, err := l.queries.ExecuteRangeQuery(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return l.collect(it)
}

// collect must be called with the read lock held.
func (l *Library) collect(it query.QueryIterator) ([]chemcomp.Record, error) {
	results, err := query.Collect(it)
	if err != nil {
		return nil, err
	}
	out := make([]chemcomp.Record, 0, len(results))
	for _, r := range results {
		if e, ok := l.entries[r.CompID]; ok && e.Revision == r.Revision {
			out = append(out, e.Record.Clone())
		}
	}
	return out, nil
}

// TranslateThreeToOne maps component ids to their one-letter codes.
// Unknown components and components without a code map to "X".
func (l *Library) TranslateThreeToOne(ids []string) []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = UnknownOneLetterCode
		if e, ok := l.entries[id]; ok && e.Record.Header.OneLetterCode != nil {
			out[i] = *e.Record.Header.OneLetterCode
		}
	}
	return out
}

// TranslateOneToThree maps one-letter codes to three-letter codes. When
// several components share a code, a standard component (one without a
// parent) wins, then the lowest id. Unknown codes map to "XXX".
func (l *Library) TranslateOneToThree(codes []string) []string {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	idx, _ := l.indexes.Index(query.FieldOneLetterCode)
	out := make([]string, len(codes))
	for i, code := range codes {
		var standard, variant string
		for _, p := range idx.Search(code) {
			h := l.entries[p.CompID].Record.Header
			switch {
			case h.ThreeLetterCode == nil:
			case h.ParentCompID == nil && standard == "":
				standard = *h.ThreeLetterCode
			case variant == "":
				variant = *h.ThreeLetterCode
			}
		}

		switch {
		case standard != "":
			out[i] = standard
		case variant != "":
			out[i] = variant
		default:
			out[i] = UnknownThreeLetterCode
		}
	}
	return out
}

// Load parses a document of one or more records and adds them. Blocks are
// parsed concurrently; if any block fails nothing is added. It returns the
// number of components added.
func (l *Library) Load(ctx context.Context, text string) (int, error) {
	start := time.Now()
	blocks := codec.SplitBlocks(text)
	if len(blocks) == 0 {
		l.metrics.RecordOperation(metrics.OpLoad, false, time.Since(start))
		return 0, fmt.Errorf("no data_ blocks found")
	}

	recs := make([]chemcomp.Record, len(blocks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, block := range blocks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := l.codec.Parse(block)
			if err != nil {
				return fmt.Errorf("block %d: %w", i+1, err)
			}
			recs[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		l.logger.Error("load failed", zap.Int("blocks", len(blocks)), zap.Error(err))
		l.metrics.RecordOperation(metrics.OpLoad, false, time.Since(start))
		return 0, err
	}

	l.mutex.Lock()
	defer l.mutex.Unlock()

	for _, rec := range recs {
		if _, err := l.addInternal(rec); err != nil {
			l.metrics.SetLibraryComponents(len(l.entries))
			l.metrics.RecordOperation(metrics.OpLoad, false, time.Since(start))
			return 0, err
		}
	}
	l.metrics.SetLibraryComponents(len(l.entries))
	l.metrics.RecordOperation(metrics.OpLoad, true, time.Since(start))
	l.logger.Info("components loaded",
		zap.Int("count", len(recs)),
		zap.Int("total", len(l.entries)),
		zap.Duration("elapsed", time.Since(start)))
	return len(recs), nil
}

// LoadFile reads a document from path and loads it
func (l *Library) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.Load(ctx, string(data))
}

// Render serializes every component in id order into one document
func (l *Library) Render() (string, error) {
	l.mutex.RLock()
	defer l.mutex.RUnlock()

	var b strings.Builder
	for _, id := range sortedKeys(l.entries) {
		text, err := l.codec.Serialize(l.entries[id].Record)
		if err != nil {
			return "", fmt.Errorf("failed to render %s: %w", id, err)
		}
		b.WriteString(text)
	}
	return b.String(), nil
}

func sortedKeys(m map[string]Entry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
