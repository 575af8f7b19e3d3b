package edition

import (
	"encoding/json"
	"log/slog"
	"maps"
	"strings"
)

// Store is the parameter tree that property sets write into and the draw
// routine reads from. Branches are map[string]any; anything else is a leaf.
// Paths are dot-separated ("shape.radius").
//
// The structure is expected to be declared up front. Set therefore treats the
// two kinds of missing segments differently: a missing intermediate segment is
// an error (ErrUnknownPath), a missing final segment is created with a warning.
type Store struct {
	root   map[string]any
	logger *slog.Logger
}

// NewStore wraps root. The store takes ownership of root; a nil root starts
// an empty tree.
func NewStore(root map[string]any) *Store {
	if root == nil {
		root = map[string]any{}
	}
	return &Store{root: root, logger: slog.Default().With("component", "store")}
}

// SetLogger replaces the logger used for missing-segment warnings.
func (s *Store) SetLogger(l *slog.Logger) {
	s.logger = l.With("component", "store")
}

// Get returns the value at path.
func (s *Store) Get(path string) (any, bool) {
	var cur any = s.root
	for _, part := range strings.Split(path, ".") {
		branch, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = branch[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Float returns the value at path as a float64. Integers are converted; any
// other type reports false.
func (s *Store) Float(path string) (float64, bool) {
	v, ok := s.Get(path)
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Check reports whether Set(path, ...) would succeed without writing.
func (s *Store) Check(path string) error {
	_, _, err := s.parent(path)
	return err
}

// Set writes v at path.
func (s *Store) Set(path string, v any) error {
	branch, last, err := s.parent(path)
	if err != nil {
		return err
	}
	if _, ok := branch[last]; !ok {
		s.logger.Warn("store segment does not exist; creating it", "path", path, "segment", last)
	}
	branch[last] = v
	return nil
}

// parent resolves every segment but the last and returns the branch that
// holds it.
func (s *Store) parent(path string) (map[string]any, string, error) {
	if path == "" {
		return nil, "", &PathError{Path: path}
	}
	parts := strings.Split(path, ".")
	branch := s.root
	for _, part := range parts[:len(parts)-1] {
		next, ok := branch[part].(map[string]any)
		if !ok {
			return nil, "", &PathError{Path: path, Segment: part}
		}
		branch = next
	}
	return branch, parts[len(parts)-1], nil
}

// Snapshot returns a deep copy of the tree.
func (s *Store) Snapshot() map[string]any {
	return cloneTree(s.root)
}

// MarshalJSON encodes the tree. Keys are sorted, so equal trees encode to
// equal bytes.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.root)
}

func cloneTree(m map[string]any) map[string]any {
	out := maps.Clone(m)
	for k, v := range out {
		switch t := v.(type) {
		case map[string]any:
			out[k] = cloneTree(t)
		case []any:
			cp := make([]any, len(t))
			copy(cp, t)
			out[k] = cp
		}
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
