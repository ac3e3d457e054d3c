package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/chemcomp/pkg/bptree"
)

// Posting is one component filed under an index value.
type Posting struct {
	CompID   string
	Revision ksuid.KSUID
}

// Bound limits one side of a range search. A nil *Bound is unbounded.
type Bound struct {
	Value     interface{}
	Exclusive bool
}

// SecondaryIndex manages a B+Tree-based index for a specific field
type SecondaryIndex struct {
	fieldName string
	tree      *bptree.BPlusTree[string, Posting]
	mutex     sync.RWMutex
}

// NewSecondaryIndex creates a new secondary index for a field
func NewSecondaryIndex(fieldName string, order int) *SecondaryIndex {
	return &SecondaryIndex{
		fieldName: fieldName,
		tree:      bptree.NewBPlusTree[string, Posting](order),
	}
}

// Field returns the indexed field name.
func (idx *SecondaryIndex) Field() string {
	return idx.fieldName
}

// Len returns the number of postings.
func (idx *SecondaryIndex) Len() int {
	return idx.tree.Len()
}

// Insert files compID under fieldValue. The index key is the encoded field
// value followed by the component id, so one value may list many components.
func (idx *SecondaryIndex) Insert(fieldValue interface{}, compID string, rev ksuid.KSUID) error {
	if compID == "" {
		return fmt.Errorf("index %s: empty component id", idx.fieldName)
	}
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	idx.tree.Insert(createIndexKey(fieldValue, compID), Posting{CompID: compID, Revision: rev})
	return nil
}

// Delete removes compID from under fieldValue.
func (idx *SecondaryIndex) Delete(fieldValue interface{}, compID string) bool {
	idx.mutex.Lock()
	defer idx.mutex.Unlock()

	return idx.tree.Delete(createIndexKey(fieldValue, compID))
}

// Search finds the postings with an exact field value match, ordered by
// component id.
func (idx *SecondaryIndex) Search(fieldValue interface{}) []Posting {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	prefix := serializeValue(fieldValue)
	var out []Posting
	idx.tree.Ascend(prefix, func(key string, p Posting) bool {
		if fieldPart(key, p) != prefix {
			return false
		}
		out = append(out, p)
		return true
	})
	return out
}

// SearchPrefix finds the postings whose string value starts with prefix,
// ordered by value and then component id.
func (idx *SecondaryIndex) SearchPrefix(prefix string) []Posting {
	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	// The string encoding without its terminator is a byte prefix of every
	// longer value.
	start := serializeValue(prefix)
	start = start[:len(start)-1]

	var out []Posting
	idx.tree.Ascend(start, func(key string, p Posting) bool {
		if !strings.HasPrefix(key, start) {
			return false
		}
		out = append(out, p)
		return true
	})
	return out
}

// SearchRange finds the postings whose value lies between lower and upper.
// Values of another type than the bounds are never returned.
func (idx *SecondaryIndex) SearchRange(lower, upper *Bound) ([]Posting, error) {
	if lower == nil && upper == nil {
		return nil, fmt.Errorf("index %s: range search needs at least one bound", idx.fieldName)
	}
	var lo, hi string
	if lower != nil {
		lo = serializeValue(lower.Value)
	}
	if upper != nil {
		hi = serializeValue(upper.Value)
	}
	if lower != nil && upper != nil && lo[0] != hi[0] {
		return nil, fmt.Errorf("index %s: range bounds have different types", idx.fieldName)
	}

	marker := lo
	if lower == nil {
		marker = hi
	}
	marker = marker[:1]
	start := lo
	if lower == nil {
		start = marker
	}

	idx.mutex.RLock()
	defer idx.mutex.RUnlock()

	var out []Posting
	idx.tree.Ascend(start, func(key string, p Posting) bool {
		if !strings.HasPrefix(key, marker) {
			return false
		}
		v := fieldPart(key, p)
		if lower != nil && lower.Exclusive && v == lo {
			return true
		}
		if upper != nil && (v > hi || (upper.Exclusive && v == hi)) {
			return false
		}
		out = append(out, p)
		return true
	})
	return out, nil
}

// createIndexKey creates a composite key: field_value + primary_key
func createIndexKey(fieldValue interface{}, compID string) string {
	return serializeValue(fieldValue) + compID
}

func fieldPart(key string, p Posting) string {
	return key[:len(key)-len(p.CompID)]
}

// serializeValue encodes a value so that byte order matches value order
// within each type. Numbers share one encoding.
func serializeValue(value interface{}) string {
	var buf strings.Builder
	switch v := value.(type) {
	case int:
		writeFloat(&buf, float64(v))
	case int64:
		writeFloat(&buf, float64(v))
	case float64:
		writeFloat(&buf, v)
	case string:
		buf.WriteByte(2) // Type marker for string
		buf.WriteString(v)
		buf.WriteByte(0) // Null terminator
	default:
		// For unknown types, convert to string
		buf.WriteByte(2)
		buf.WriteString(fmt.Sprintf("%v", v))
		buf.WriteByte(0)
	}
	return buf.String()
}

func writeFloat(buf *strings.Builder, f float64) {
	buf.WriteByte(1) // Type marker for numbers
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		bits = ^bits
	} else {
		bits |= 1 << 63
	}
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], bits)
	buf.Write(b[:])
}

// IndexManager manages the secondary indexes of a component library
type IndexManager struct {
	indexes map[string]*SecondaryIndex
	mutex   sync.RWMutex
	order   int
}

// NewIndexManager creates a new index manager
func NewIndexManager(order int) *IndexManager {
	return &IndexManager{
		indexes: make(map[string]*SecondaryIndex),
		order:   order,
	}
}

// GetOrCreateIndex gets an existing index or creates a new one for a field
func (im *IndexManager) GetOrCreateIndex(fieldName string) *SecondaryIndex {
	im.mutex.Lock()
	defer im.mutex.Unlock()

	if idx, exists := im.indexes[fieldName]; exists {
		return idx
	}

	idx := NewSecondaryIndex(fieldName, im.order)
	im.indexes[fieldName] = idx
	return idx
}

// Index returns the index for a field if it exists.
func (im *IndexManager) Index(fieldName string) (*SecondaryIndex, bool) {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	idx, ok := im.indexes[fieldName]
	return idx, ok
}

// Fields returns the indexed field names in sorted order.
func (im *IndexManager) Fields() []string {
	im.mutex.RLock()
	defer im.mutex.RUnlock()

	fields := make([]string, 0, len(im.indexes))
	for name := range im.indexes {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
