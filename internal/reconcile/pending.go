package reconcile

import (
	"sort"

	"github.com/angelmondragon/packfinderz-storefront/pkg/enums"
)

// settleLimit bounds how many snapshots may disagree with an acknowledged
// mutation before the snapshot is trusted over local state.
const settleLimit = 2

// pendingMutation is an optimistic change not yet confirmed by a snapshot.
type pendingMutation[T any] struct {
	seq   uint64
	kind  enums.MutationKind
	key   string
	prior T
	next  T
	index int
	acked bool
	// misses counts snapshots that arrived after acknowledgement without
	// reflecting the change.
	misses int
}

type pendingSet[T any] struct {
	nextSeq uint64
	byseq   map[uint64]*pendingMutation[T]
}

func newPendingSet[T any]() *pendingSet[T] {
	return &pendingSet[T]{byseq: make(map[uint64]*pendingMutation[T])}
}

func (p *pendingSet[T]) add(m *pendingMutation[T]) *pendingMutation[T] {
	p.nextSeq++
	m.seq = p.nextSeq
	p.byseq[m.seq] = m
	return m
}

func (p *pendingSet[T]) drop(m *pendingMutation[T]) {
	delete(p.byseq, m.seq)
}

func (p *pendingSet[T]) reset() {
	p.byseq = make(map[uint64]*pendingMutation[T])
}

func (p *pendingSet[T]) len() int {
	return len(p.byseq)
}

func (p *pendingSet[T]) ordered() []*pendingMutation[T] {
	out := make([]*pendingMutation[T], 0, len(p.byseq))
	for _, m := range p.byseq {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

// overlay lays the pending set over an authoritative list. Unacknowledged
// mutations always win; acknowledged ones win until the snapshot reflects
// them or settleLimit snapshots have disagreed.
func (s *Store[T]) overlay(list []T, countMisses bool) []T {
	for _, m := range s.pending.ordered() {
		idx := s.indexByID(list, m.key)
		switch m.kind {
		case enums.MutationKindInsert:
			if idx >= 0 {
				if m.acked {
					s.pending.drop(m)
				}
				continue
			}
			if !m.acked && s.indexBySameLine(list, m.next) >= 0 {
				// The write already landed under its backend id.
				continue
			}
			if s.expired(m, countMisses) {
				continue
			}
			list = insertAt(list, clampIndex(m.index, len(list)), m.next)

		case enums.MutationKindUpdate:
			if idx < 0 {
				s.pending.drop(m)
				continue
			}
			want, _ := s.policy.Quantity(m.next)
			got, _ := s.policy.Quantity(list[idx])
			if got == want {
				if m.acked {
					s.pending.drop(m)
				}
				continue
			}
			if s.expired(m, countMisses) {
				continue
			}
			if patched, err := s.policy.WithQuantity(list[idx], want); err == nil {
				list[idx] = patched
			}

		case enums.MutationKindRemove:
			if idx < 0 {
				if m.acked {
					s.pending.drop(m)
				}
				continue
			}
			if s.expired(m, countMisses) {
				continue
			}
			list = removeAt(list, idx)
		}
	}
	return list
}

// retargetPendingLocked points earlier mutations of key at an acknowledged
// quantity so the overlay cannot restore a superseded value.
func (s *Store[T]) retargetPendingLocked(key string, quantity int) {
	for _, m := range s.pending.ordered() {
		if m.key != key || m.kind == enums.MutationKindRemove {
			continue
		}
		if patched, err := s.policy.WithQuantity(m.next, quantity); err == nil {
			m.next = patched
		}
	}
}

func (s *Store[T]) expired(m *pendingMutation[T], countMisses bool) bool {
	if !m.acked {
		return false
	}
	if countMisses {
		m.misses++
	}
	if m.misses > settleLimit {
		s.pending.drop(m)
		return true
	}
	return false
}

func insertAt[T any](list []T, idx int, item T) []T {
	list = append(list, item)
	copy(list[idx+1:], list[idx:])
	list[idx] = item
	return list
}

func removeAt[T any](list []T, idx int) []T {
	return append(list[:idx], list[idx+1:]...)
}

func clampIndex(idx, n int) int {
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}
