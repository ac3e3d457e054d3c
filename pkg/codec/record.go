package codec

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ssargent/chemcomp/pkg/chemcomp"
	"github.com/ssargent/chemcomp/pkg/config"
	"github.com/ssargent/chemcomp/pkg/loop"
	"github.com/ssargent/chemcomp/pkg/metrics"
	"github.com/ssargent/chemcomp/pkg/token"
	"github.com/ssargent/chemcomp/pkg/validate"
)

// Report carries the warnings of a successful operation
type Report struct {
	CompID   string
	Warnings []validate.Violation
}

// RecordCodec converts component records to and from text
type RecordCodec struct {
	constants    chemcomp.Constants
	coordPrec    int
	weightPrec   int
	strictCharge bool
	engine       *validate.Engine
	logger       *zap.Logger
	metrics      *metrics.Metrics
	tables       tables
}

// Option configures a RecordCodec
type Option func(*RecordCodec)

// WithConfig applies the header constants, precisions and validation
// settings of cfg
func WithConfig(cfg *config.Config) Option {
	return func(c *RecordCodec) {
		c.constants = cfg.Constants()
		c.coordPrec = cfg.Format.CoordinatePrecision
		c.weightPrec = cfg.Format.WeightPrecision
		c.strictCharge = cfg.Validation.StrictCharge
	}
}

// WithConstants sets the constants filled into records that leave them unset
func WithConstants(constants chemcomp.Constants) Option {
	return func(c *RecordCodec) {
		c.constants = constants
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *RecordCodec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *RecordCodec) {
		c.metrics = m
	}
}

// WithEngine replaces the default validation rules
func WithEngine(engine *validate.Engine) Option {
	return func(c *RecordCodec) {
		c.engine = engine
	}
}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec(opts ...Option) *RecordCodec {
	c := &RecordCodec{
		constants:  chemcomp.DefaultConstants(),
		coordPrec:  token.DefaultPrecision,
		weightPrec: token.DefaultPrecision,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = validate.NewDefaultEngine(validate.Options{StrictCharge: c.strictCharge})
	}
	c.tables = newTables(loop.DefaultRegistry(), c.coordPrec)
	return c
}

// Serialize validates rec and renders it as text
func (c *RecordCodec) Serialize(rec chemcomp.Record) (string, error) {
	text, _, err := c.SerializeWithReport(rec)
	return text, err
}

// SerializeWithReport is Serialize that also returns the warnings found.
// Unset header constants are filled from the codec defaults first. A record
// with any hard violation yields a *validate.ValidationError and no text.
func (c *RecordCodec) SerializeWithReport(rec chemcomp.Record) (string, Report, error) {
	start := time.Now()
	rec.Header.Constants = rec.Header.Constants.WithDefaults(c.constants)
	report := Report{CompID: rec.Header.ID}

	res := c.check(&rec)
	report.Warnings = res.Warnings()
	if err := res.Err(); err != nil {
		c.logger.Debug("serialize rejected",
			zap.String("comp_id", rec.Header.ID),
			zap.Int("errors", len(res.Errors())),
			zap.Error(err))
		c.metrics.RecordOperation(metrics.OpSerialize, false, time.Since(start))
		return "", report, err
	}

	text, err := c.encode(&rec)
	if err != nil {
		c.metrics.RecordOperation(metrics.OpSerialize, false, time.Since(start))
		return "", report, fmt.Errorf("failed to serialize %s: %w", rec.Header.ID, err)
	}

	c.recordRows(&rec)
	c.metrics.RecordOperation(metrics.OpSerialize, true, time.Since(start))
	return text, report, nil
}

// Validate runs the codec's rules over rec, with unset header constants
// filled from the codec defaults as Serialize would. A record with any hard
// violation yields a *validate.ValidationError.
func (c *RecordCodec) Validate(rec chemcomp.Record) (Report, error) {
	rec.Header.Constants = rec.Header.Constants.WithDefaults(c.constants)
	res := c.check(&rec)
	return Report{CompID: rec.Header.ID, Warnings: res.Warnings()}, res.Err()
}

// Parse decodes and validates one record
func (c *RecordCodec) Parse(text string) (chemcomp.Record, error) {
	rec, _, err := c.ParseWithReport(text)
	return rec, err
}

// ParseWithReport is Parse that also returns the warnings found. Structural
// failures yield a *ParseError, hard violations a *validate.ValidationError;
// in both cases no record is returned.
func (c *RecordCodec) ParseWithReport(text string) (chemcomp.Record, Report, error) {
	start := time.Now()

	rec, err := c.decode(text)
	if err != nil {
		c.logger.Debug("parse failed", zap.Error(err))
		c.metrics.RecordOperation(metrics.OpParse, false, time.Since(start))
		return chemcomp.Record{}, Report{}, err
	}

	report := Report{CompID: rec.Header.ID}
	res := c.check(&rec)
	report.Warnings = res.Warnings()
	if err := res.Err(); err != nil {
		c.logger.Debug("parsed record rejected",
			zap.String("comp_id", rec.Header.ID),
			zap.Int("errors", len(res.Errors())),
			zap.Error(err))
		c.metrics.RecordOperation(metrics.OpParse, false, time.Since(start))
		return chemcomp.Record{}, report, err
	}

	c.recordRows(&rec)
	c.metrics.RecordOperation(metrics.OpParse, true, time.Since(start))
	return rec, report, nil
}

func (c *RecordCodec) check(rec *chemcomp.Record) validate.Result {
	res := c.engine.Evaluate(rec)
	for _, v := range res.Violations {
		c.metrics.RecordViolation(v.Code, string(v.Severity))
		if v.Severity == validate.SeverityWarning {
			c.logger.Warn("record warning",
				zap.String("comp_id", rec.Header.ID),
				zap.String("code", v.Code),
				zap.String("table", v.Table),
				zap.Int("row", v.Row),
				zap.String("message", v.Message))
		}
	}
	return res
}

func (c *RecordCodec) recordRows(rec *chemcomp.Record) {
	c.metrics.RecordRows(string(loop.KindSynonyms), len(rec.Synonyms))
	c.metrics.RecordRows(string(loop.KindAtoms), len(rec.Atoms))
	c.metrics.RecordRows(string(loop.KindBonds), len(rec.Bonds))
	c.metrics.RecordRows(string(loop.KindDescriptors), len(rec.Descriptors))
	c.metrics.RecordRows(string(loop.KindIdentifiers), len(rec.Identifiers))
}

// encode writes the sections in their fixed order. Empty tables keep their
// loop header.
func (c *RecordCodec) encode(rec *chemcomp.Record) (string, error) {
	var b strings.Builder
	if err := encodeHeader(&b, &rec.Header, c.weightPrec); err != nil {
		return "", err
	}

	sections := []func() error{
		func() error { return c.tables.synonyms.Encode(&b, rec.Synonyms) },
		func() error { return c.tables.atoms.Encode(&b, rec.Atoms) },
		func() error { return c.tables.bonds.Encode(&b, rec.Bonds) },
		func() error { return c.tables.descriptors.Encode(&b, rec.Descriptors) },
		func() error { return c.tables.identifiers.Encode(&b, rec.Identifiers) },
	}
	for _, encode := range sections {
		b.WriteString("#\n")
		if err := encode(); err != nil {
			return "", err
		}
	}
	b.WriteString("##\n")
	return b.String(), nil
}

type sectionReader struct {
	section Section
	schema  loop.Schema
	read    func(sc *token.Scanner) error
}

func readInto[T any](t *loop.Table[T], dst *[]T) func(*token.Scanner) error {
	return func(sc *token.Scanner) error {
		rows, err := t.Read(sc)
		if err != nil {
			return err
		}
		*dst = rows
		return nil
	}
}

// decode runs the section state machine over text. A table whose section is
// skipped decodes as empty; sections out of order, unknown categories and a
// missing "##" terminator are errors.
func (c *RecordCodec) decode(text string) (chemcomp.Record, error) {
	sc := token.NewScanner(text)

	header, err := decodeHeader(sc)
	if err != nil {
		return chemcomp.Record{}, err
	}
	rec := chemcomp.Record{Header: header}

	readers := []sectionReader{
		{SectionSynonymLoop, c.tables.synonyms.Schema(), readInto(c.tables.synonyms, &rec.Synonyms)},
		{SectionAtomLoop, c.tables.atoms.Schema(), readInto(c.tables.atoms, &rec.Atoms)},
		{SectionBondLoop, c.tables.bonds.Schema(), readInto(c.tables.bonds, &rec.Bonds)},
		{SectionDescriptorLoop, c.tables.descriptors.Schema(), readInto(c.tables.descriptors, &rec.Descriptors)},
		{SectionIdentifierLoop, c.tables.identifiers.Schema(), readInto(c.tables.identifiers, &rec.Identifiers)},
	}
	current := func(next int) Section {
		if next < len(readers) {
			return readers[next].section
		}
		return SectionEnd
	}

	next := 0
	for {
		sc.SkipCosmetic()
		l, ok := sc.Peek()
		if !ok {
			return chemcomp.Record{}, &ParseError{Section: SectionEnd, Line: l.Num, Reason: "missing ## terminator"}
		}
		if l.Trimmed() == "##" {
			sc.Next()
			break
		}

		category, ok := upcomingCategory(sc)
		if !ok {
			return chemcomp.Record{}, &ParseError{Section: current(next), Line: l.Num, Reason: fmt.Sprintf("unexpected %q", l.Trimmed())}
		}
		idx := -1
		for i, r := range readers {
			if r.schema.Category == category {
				idx = i
				break
			}
		}
		if idx < 0 {
			return chemcomp.Record{}, &ParseError{Section: current(next), Line: l.Num, Reason: fmt.Sprintf("unrecognized category _%s", category)}
		}
		if idx < next {
			return chemcomp.Record{}, &ParseError{Section: readers[idx].section, Line: l.Num, Reason: fmt.Sprintf("_%s out of order", category)}
		}
		next = idx + 1

		if err := readers[idx].read(sc); err != nil {
			return chemcomp.Record{}, sectionError(readers[idx].section, l.Num, err)
		}
	}

	for {
		l, ok := sc.Next()
		if !ok {
			break
		}
		if !l.IsBlank() && !l.IsSeparator() {
			return chemcomp.Record{}, &ParseError{Section: SectionEnd, Line: l.Num, Reason: "unexpected content after ##"}
		}
	}
	return rec, nil
}

// upcomingCategory returns the category introduced by the next line, either
// a loop_ followed by a tag or a key-value tag.
func upcomingCategory(sc *token.Scanner) (string, bool) {
	l, _ := sc.Peek()
	t := l.Trimmed()
	if strings.EqualFold(t, "loop_") {
		tagLine, ok := sc.PeekAt(1)
		if !ok {
			return "", false
		}
		t = tagLine.Trimmed()
	}
	fields := strings.Fields(t)
	if len(fields) == 0 {
		return "", false
	}
	category, _, ok := loop.SplitTag(fields[0])
	return category, ok
}

// SplitBlocks splits a document holding several records at its data_ lines.
// Lines inside text fields never start a block. Text before the first block
// is dropped.
func SplitBlocks(text string) []string {
	sc := token.NewScanner(text)
	var (
		blocks  []string
		cur     []string
		inField bool
	)
	flush := func() {
		if cur != nil {
			blocks = append(blocks, strings.TrimRight(strings.Join(cur, "\n"), "\n")+"\n")
		}
	}
	for {
		l, ok := sc.Next()
		if !ok {
			break
		}
		if l.IsTextFieldStart() {
			inField = !inField
		} else if _, isBlock := blockName(l.Text); isBlock && !inField && l.Text == strings.TrimLeft(l.Text, " \t") {
			flush()
			cur = []string{l.Text}
			continue
		}
		if cur != nil {
			cur = append(cur, l.Text)
		}
	}
	flush()
	return blocks
}

var defaultCodec = NewRecordCodec()

// Serialize renders rec with the default codec
func Serialize(rec chemcomp.Record) (string, error) {
	return defaultCodec.Serialize(rec)
}

// Parse decodes text with the default codec
func Parse(text string) (chemcomp.Record, error) {
	return defaultCodec.Parse(text)
}
