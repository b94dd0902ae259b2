package state

import (
	"fmt"
	"strconv"

	"firestige.xyz/webhookd/internal/core"
)

// NonMapAccessError reports Set descending through an existing scalar.
type NonMapAccessError struct {
	Field string
	Type  string
}

func (e *NonMapAccessError) Error() string {
	return fmt.Sprintf("unable to access field %s from type %s", e.Field, e.Type)
}

func (e *NonMapAccessError) Unwrap() error { return core.ErrNonMapAccess }

// IndexOutOfBoundError reports an array index past the end of an existing
// array while descending through an intermediate segment.
type IndexOutOfBoundError struct {
	Index int
	Len   int
}

func (e *IndexOutOfBoundError) Error() string {
	return fmt.Sprintf("index %d out of bound in array with length %d", e.Index, e.Len)
}

func (e *IndexOutOfBoundError) Unwrap() error { return core.ErrIndexOutOfBound }

// InvalidIndexError reports an array segment that does not parse as a
// non-negative decimal integer.
type InvalidIndexError struct {
	Reason string
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid index: %s", e.Reason)
}

func (e *InvalidIndexError) Unwrap() error { return core.ErrInvalidIndex }

// State is a map[string]Item accessed via Identifier. A fresh State is
// constructed per message and discarded after ack; it is never a shared,
// daemon-wide store, so no locking is required.
type State struct {
	m map[string]Item
}

// New returns an empty State.
func New() State {
	return State{m: make(map[string]Item)}
}

// Len returns the top-level key count.
func (s State) Len() int {
	return len(s.m)
}

// AsItem snapshots the whole state as a Map Item, for callers (e.g. a
// target that wants to serialize the full state for correlation) that need
// a value rather than key-by-key access.
func (s State) AsItem() Item {
	return NewMapItem(s.m)
}

// Get performs recursive descent by segment; numeric segments index into an
// existing array. A non-existent segment, or a segment descending through a
// scalar, yields (Item{}, false) rather than an error.
func (s State) Get(id Identifier) (Item, bool) {
	return getFromMap(s.m, id)
}

func getFromMap(m map[string]Item, id Identifier) (Item, bool) {
	head, tail, hasTail := id.Split()
	v, ok := m[head]
	if !ok {
		return Item{}, false
	}
	if !hasTail {
		return v, true
	}
	return getFromChild(tail, v)
}

func getFromArray(arr []Item, id Identifier) (Item, bool) {
	head, tail, hasTail := id.Split()
	idx, err := parseIndex(head)
	if err != nil || idx >= len(arr) {
		return Item{}, false
	}
	v := arr[idx]
	if !hasTail {
		return v, true
	}
	return getFromChild(tail, v)
}

func getFromChild(path Identifier, v Item) (Item, bool) {
	switch v.Kind {
	case ItemMap:
		return getFromMap(v.MapV, path)
	case ItemArray:
		return getFromArray(v.Arr, path)
	default:
		return Item{}, false
	}
}

// Set performs constructive recursive descent: missing intermediate map
// entries are auto-created. It returns the displaced item at the leaf, if
// any was previously bound there.
func (s State) Set(id Identifier, value Item) (Item, bool, error) {
	return setMap(s.m, id, value)
}

func setMap(m map[string]Item, id Identifier, value Item) (Item, bool, error) {
	head, tail, hasTail := id.Split()
	if !hasTail {
		old, had := m[head]
		m[head] = value
		return old, had, nil
	}

	rec, exists := m[head]
	if !exists {
		rec = NewMapItem(make(map[string]Item))
		m[head] = rec
	}

	switch rec.Kind {
	case ItemMap:
		return setMap(rec.MapV, tail, value)
	case ItemArray:
		return setArray(rec.Arr, tail, value)
	default:
		return Item{}, false, &NonMapAccessError{Field: head, Type: rec.TypeName()}
	}
}

// setArray mutates arr in place; extending an array is not supported, so a
// leaf set past the end of the array is a silent no-op. IndexOutOfBound is
// only raised when a *recursive* segment passes through a missing array
// element, since that case can't silently no-op without losing the rest of
// the path.
func setArray(arr []Item, id Identifier, value Item) (Item, bool, error) {
	head, tail, hasTail := id.Split()
	idx, perr := parseIndex(head)

	if !hasTail {
		if perr != nil {
			return Item{}, false, &InvalidIndexError{Reason: perr.Error()}
		}
		if idx >= len(arr) {
			return Item{}, false, nil
		}
		old := arr[idx]
		arr[idx] = value
		return old, true, nil
	}

	if perr != nil {
		return Item{}, false, &InvalidIndexError{Reason: perr.Error()}
	}
	if idx >= len(arr) {
		return Item{}, false, &IndexOutOfBoundError{Index: idx, Len: len(arr)}
	}

	rec := arr[idx]
	switch rec.Kind {
	case ItemMap:
		return setMap(rec.MapV, tail, value)
	case ItemArray:
		return setArray(rec.Arr, tail, value)
	default:
		return Item{}, false, &NonMapAccessError{Field: head, Type: rec.TypeName()}
	}
}

// parseIndex parses a segment as a non-negative decimal index, matching the
// reference's usize::from_str (which rejects negative numbers).
func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, strconv.ErrSyntax
	}
	return n, nil
}
