package edition

import (
	"fmt"
	"log/slog"
)

// DefaultSeed is the seed every property set is materialized with, so that a
// sequence number always maps to the same parameter values.
const DefaultSeed = 1

// SetRange is the contiguous block of sequence numbers owned by one set.
type SetRange struct {
	Name  string
	First int
	Last  int
	Count int
}

// State is a snapshot of the manager's selection. SetIndex, LocalIndex and
// SequenceNumber are -1/0 before the first selection.
type State struct {
	SetName        string
	SetIndex       int
	SetCount       int
	LocalIndex     int
	SequenceNumber int
	SequenceCount  int
	// SetChanged is true when this selection activated a different set than
	// the previous one and the set's values were materialized again.
	SetChanged bool
}

// Manager maps sequence numbers onto property sets and writes the selected
// slot's values into a Store.
//
// The sequence-number space is the concatenation of every set's local index
// range in declaration order: with sets A (3) and B (2), numbers 1..3 are A's
// local indices 0..2 and 4..5 are B's 0..1.
type Manager struct {
	sets   []PropertySet
	byName map[string]int
	ranges []SetRange
	total  int

	store  *Store
	stream *Stream
	seed   uint64

	active     int
	values     [][]any
	localIndex int
	seqNo      int
	changed    bool

	observers []func(State)
	logger    *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithSeed overrides DefaultSeed.
func WithSeed(seed uint64) ManagerOption {
	return func(m *Manager) { m.seed = seed }
}

// WithManagerLogger sets the manager's logger.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// NewManager validates sets and computes the sequence-number partition. No
// set is active until the first selection.
func NewManager(sets []PropertySet, store *Store, opts ...ManagerOption) (*Manager, error) {
	if len(sets) == 0 {
		return nil, fmt.Errorf("new manager: no property sets: %w", ErrInvalidRule)
	}
	m := &Manager{
		sets:   sets,
		byName: make(map[string]int, len(sets)),
		store:  store,
		seed:   DefaultSeed,
		active: -1,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "sequence")
	m.stream = NewStream(m.seed)

	first := 1
	for i, set := range sets {
		if set.Name == "" {
			return nil, fmt.Errorf("new manager: set %d has no name: %w", i, ErrInvalidRule)
		}
		if _, dup := m.byName[set.Name]; dup {
			return nil, fmt.Errorf("new manager: duplicate set %q: %w", set.Name, ErrInvalidRule)
		}
		if set.Count < 1 {
			return nil, fmt.Errorf("new manager: set %q count %d < 1: %w", set.Name, set.Count, ErrInvalidRule)
		}
		m.byName[set.Name] = i
		m.ranges = append(m.ranges, SetRange{
			Name:  set.Name,
			First: first,
			Last:  first + set.Count - 1,
			Count: set.Count,
		})
		first += set.Count
	}
	m.total = first - 1
	return m, nil
}

// OnSelect registers fn to run synchronously after every selection.
func (m *Manager) OnSelect(fn func(State)) {
	m.observers = append(m.observers, fn)
}

// Store returns the store the manager writes into.
func (m *Manager) Store() *Store { return m.store }

// Sets returns the declared property sets. The returned slice MUST NOT be mutated.
func (m *Manager) Sets() []PropertySet { return m.sets }

// Ranges returns every set's sequence-number block in declaration order. The
// returned slice MUST NOT be mutated.
func (m *Manager) Ranges() []SetRange { return m.ranges }

// Range returns the block owned by the named set.
func (m *Manager) Range(name string) (SetRange, bool) {
	i, ok := m.byName[name]
	if !ok {
		return SetRange{}, false
	}
	return m.ranges[i], true
}

// Total returns the number of valid sequence numbers.
func (m *Manager) Total() int { return m.total }

// State returns the current selection.
func (m *Manager) State() State {
	st := State{
		SetIndex:       m.active,
		SetCount:       len(m.sets),
		LocalIndex:     m.localIndex,
		SequenceNumber: m.seqNo,
		SequenceCount:  m.total,
		SetChanged:     m.changed,
	}
	if m.active >= 0 {
		st.SetName = m.sets[m.active].Name
	}
	return st
}

// Locate resolves sequence number n, clamped to [1, Total], to a set index and
// local index without selecting it.
func (m *Manager) Locate(n int) (setIdx, local int) {
	n = min(max(n, 1), m.total)
	local = n - 1
	for i, set := range m.sets {
		setIdx = i
		if local < set.Count {
			break
		}
		local -= set.Count
	}
	return setIdx, local
}

// SequenceNumber returns the sequence number of a set's local index. The local
// index is clamped into the set.
func (m *Manager) SequenceNumber(setIdx, local int) int {
	r := m.ranges[setIdx]
	return r.First + min(max(local, 0), r.Count-1)
}

// SelectByName selects local index local of the named set.
func (m *Manager) SelectByName(name string, local int) error {
	i, ok := m.byName[name]
	if !ok {
		return fmt.Errorf("select %q: %w", name, ErrUnknownSet)
	}
	return m.selectSlot(i, local)
}

// SelectByIndex selects local index local of the set declared at setIdx.
func (m *Manager) SelectByIndex(setIdx, local int) error {
	if setIdx < 0 || setIdx >= len(m.sets) {
		return fmt.Errorf("select set %d: %w", setIdx, ErrUnknownSet)
	}
	return m.selectSlot(setIdx, local)
}

// SelectSequenceNumber selects sequence number n, clamped to [1, Total].
func (m *Manager) SelectSequenceNumber(n int) error {
	setIdx, local := m.Locate(n)
	return m.selectSlot(setIdx, local)
}

// Step moves delta slots within the active set. It never leaves the set; the
// local index is clamped at either end.
func (m *Manager) Step(delta int) error {
	if m.active < 0 {
		return ErrNoActiveSet
	}
	return m.selectSlot(m.active, m.localIndex+delta)
}

// StepSequenceNumber moves delta sequence numbers, crossing set boundaries.
func (m *Manager) StepSequenceNumber(delta int) error {
	if m.active < 0 {
		return ErrNoActiveSet
	}
	return m.SelectSequenceNumber(m.seqNo + delta)
}

func (m *Manager) selectSlot(setIdx, local int) error {
	set := m.sets[setIdx]
	values := m.values
	changed := setIdx != m.active
	if changed {
		m.stream.Seed(m.seed)
		var err error
		values, err = set.Materialize(m.stream)
		if err != nil {
			return err
		}
	}
	for _, rule := range set.Rules {
		if err := m.store.Check(rule.Path); err != nil {
			return fmt.Errorf("set %q: %w", set.Name, err)
		}
	}

	local = min(max(local, 0), set.Count-1)
	for i, rule := range set.Rules {
		if err := m.store.Set(rule.Path, values[i][local]); err != nil {
			return fmt.Errorf("set %q: %w", set.Name, err)
		}
	}
	if changed {
		m.logger.Debug("property set activated", "set", set.Name, "count", set.Count)
	}
	m.active = setIdx
	m.values = values
	m.localIndex = local
	m.seqNo = m.ranges[setIdx].First + local
	m.changed = changed

	st := m.State()
	for _, fn := range m.observers {
		fn(st)
	}
	return nil
}
