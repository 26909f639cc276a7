package registry

import (
	"fmt"

	"github.com/ruteri/balancer-helper-registry/interfaces"
)

// poolStore is the ordered pool collection. Deletion is swap-remove, so
// indices are not stable across deletions. poolStore is not safe for
// concurrent use; Registry serializes access to it.
type poolStore struct {
	entries []interfaces.PoolEntry
}

func (s *poolStore) length() uint64 {
	return uint64(len(s.entries))
}

func (s *poolStore) append(entry interfaces.PoolEntry) {
	s.entries = append(s.entries, entry)
}

func (s *poolStore) checkIndex(i uint64) error {
	if i >= s.length() {
		return fmt.Errorf("%w: index %d, count %d", interfaces.ErrOutOfRange, i, s.length())
	}
	return nil
}

func (s *poolStore) checkRange(from, to uint64) error {
	if from > to {
		return fmt.Errorf("%w: from %d, to %d", interfaces.ErrFromGreaterThanTo, from, to)
	}
	if to > s.length() {
		return fmt.Errorf("%w: to %d, count %d", interfaces.ErrOutOfRange, to, s.length())
	}
	return nil
}

// removeAt moves the last entry into slot i and shrinks the store by one.
func (s *poolStore) removeAt(i uint64) (interfaces.PoolEntry, error) {
	if err := s.checkIndex(i); err != nil {
		return interfaces.PoolEntry{}, err
	}

	last := len(s.entries) - 1
	removed := s.entries[i]
	s.entries[i] = s.entries[last]
	s.entries[last] = interfaces.PoolEntry{}
	s.entries = s.entries[:last]
	return removed, nil
}

// removeRange removes to-from entries by repeatedly swap-removing whatever
// currently occupies index from.
func (s *poolStore) removeRange(from, to uint64) ([]interfaces.PoolEntry, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}

	removed := make([]interfaces.PoolEntry, 0, to-from)
	for n := from; n < to; n++ {
		entry, err := s.removeAt(from)
		if err != nil {
			// unreachable after checkRange
			return removed, err
		}
		removed = append(removed, entry)
	}
	return removed, nil
}

func (s *poolStore) clear() {
	s.entries = nil
}

func (s *poolStore) at(i uint64) (interfaces.PoolEntry, error) {
	if err := s.checkIndex(i); err != nil {
		return interfaces.PoolEntry{}, err
	}
	return s.entries[i], nil
}

// slice returns a copy of entries [from, min(to, count)).
func (s *poolStore) slice(from, to uint64) ([]interfaces.PoolEntry, error) {
	if from > to {
		return nil, fmt.Errorf("%w: from %d, to %d", interfaces.ErrFromGreaterThanTo, from, to)
	}
	if s.length() == 0 {
		return nil, interfaces.ErrEmptyRegistry
	}

	if to > s.length() {
		to = s.length()
	}
	if from >= to {
		return []interfaces.PoolEntry{}, nil
	}

	res := make([]interfaces.PoolEntry, to-from)
	copy(res, s.entries[from:to])
	return res, nil
}

// setPaused marks entries [from, to) paused and returns the ones that changed.
func (s *poolStore) setPaused(from, to uint64) ([]interfaces.ContractAddress, error) {
	if err := s.checkRange(from, to); err != nil {
		return nil, err
	}

	var changed []interfaces.ContractAddress
	for i := from; i < to; i++ {
		if s.entries[i].Paused {
			continue
		}
		s.entries[i].Paused = true
		changed = append(changed, s.entries[i].Address)
	}
	return changed, nil
}

func (s *poolStore) pausedCount() int {
	n := 0
	for _, e := range s.entries {
		if e.Paused {
			n++
		}
	}
	return n
}

func (s *poolStore) copyEntries() []interfaces.PoolEntry {
	res := make([]interfaces.PoolEntry, len(s.entries))
	copy(res, s.entries)
	return res
}
