package nqueens

import (
	"github.com/MarcyGO/optaplanner/internal/director"
	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/score"
	"github.com/MarcyGO/optaplanner/internal/score/constraint"
	"github.com/MarcyGO/optaplanner/internal/score/holder"
)

const constraintPackage = "nqueens"

var (
	HorizontalConflict         = constraint.NewRef(constraintPackage, "Horizontal conflict")
	AscendingDiagonalConflict  = constraint.NewRef(constraintPackage, "Ascending diagonal conflict")
	DescendingDiagonalConflict = constraint.NewRef(constraintPackage, "Descending diagonal conflict")
)

// conflicts lists every constraint with the line a queen sits on for it.
var conflicts = []struct {
	ref  constraint.Ref
	line func(q *Queen) int
}{
	{HorizontalConflict, func(q *Queen) int { return q.Row.Index }},
	{AscendingDiagonalConflict, (*Queen).ascendingDiagonal},
	{DescendingDiagonalConflict, (*Queen).descendingDiagonal},
}

func defineConstraints() []constraint.Definition[score.SimpleScore] {
	defs := make([]constraint.Definition[score.SimpleScore], len(conflicts))
	for i, c := range conflicts {
		defs[i] = constraint.Definition[score.SimpleScore]{Ref: c.ref, Weight: score.OfSimple(1)}
	}
	return defs
}

// conflictMatch justifies a conflict by both queens, lowest ID first.
func conflictMatch(ref constraint.Ref, a, b *Queen) holder.Match {
	if b.ID < a.ID {
		a, b = b, a
	}
	return holder.NewMatch(ref, a, b)
}

// ScratchProvider evaluates every queen pair on each flush.
func ScratchProvider() director.FromScratchProvider[*Board, score.SimpleScore] {
	return director.FromScratchProvider[*Board, score.SimpleScore]{
		Constraints: defineConstraints(),
		Evaluate:    evaluateBoard,
	}
}

func evaluateBoard(b *Board, h holder.Holder[score.SimpleScore]) ([]holder.Retraction, error) {
	var rs []holder.Retraction
	for i, a := range b.Queens {
		if a.Row == nil {
			continue
		}
		for _, other := range b.Queens[i+1:] {
			if other.Row == nil {
				continue
			}
			for _, c := range conflicts {
				if c.line(a) != c.line(other) {
					continue
				}
				r, err := h.Penalize(conflictMatch(c.ref, a, other))
				if err != nil {
					return rs, err
				}
				rs = append(rs, r)
			}
		}
	}
	return rs, nil
}

// IncrementalProvider keeps the queens of every row and diagonal, so a row
// change only touches the lines the queen leaves and enters.
type IncrementalProvider struct{}

func (IncrementalProvider) DefineConstraints() []constraint.Definition[score.SimpleScore] {
	return defineConstraints()
}

func (IncrementalProvider) NewSession(h holder.Holder[score.SimpleScore]) director.ConstraintSession[*Board] {
	s := &session{h: h, pairs: make(map[pairKey]holder.Retraction)}
	for i := range s.lines {
		s.lines[i] = make(map[int][]*Queen)
	}
	return s
}

type pairKey struct {
	conflict int
	a, b     *Queen
}

func newPairKey(conflict int, a, b *Queen) pairKey {
	if b.ID < a.ID {
		a, b = b, a
	}
	return pairKey{conflict: conflict, a: a, b: b}
}

type session struct {
	h     holder.Holder[score.SimpleScore]
	lines [3]map[int][]*Queen
	pairs map[pairKey]holder.Retraction
	err   error
}

func (s *session) Insert(b *Board) error {
	for _, q := range b.Queens {
		s.add(q)
	}
	return s.err
}

func (s *session) BeforeVariableChanged(_ domain.VariableDescriptor, entity any) {
	s.remove(entity.(*Queen))
}

func (s *session) AfterVariableChanged(_ domain.VariableDescriptor, entity any) {
	s.add(entity.(*Queen))
}

func (s *session) add(q *Queen) {
	if q.Row == nil {
		return
	}
	for i, c := range conflicts {
		line := c.line(q)
		for _, other := range s.lines[i][line] {
			r, err := s.h.Penalize(conflictMatch(c.ref, q, other))
			if err != nil {
				if s.err == nil {
					s.err = err
				}
				continue
			}
			s.pairs[newPairKey(i, q, other)] = r
		}
		s.lines[i][line] = append(s.lines[i][line], q)
	}
}

func (s *session) remove(q *Queen) {
	if q.Row == nil {
		return
	}
	for i, c := range conflicts {
		line := c.line(q)
		queens := s.lines[i][line]
		kept := queens[:0]
		for _, other := range queens {
			if other == q {
				continue
			}
			kept = append(kept, other)
			key := newPairKey(i, q, other)
			if r, ok := s.pairs[key]; ok {
				r()
				delete(s.pairs, key)
			}
		}
		if len(kept) == 0 {
			delete(s.lines[i], line)
		} else {
			s.lines[i][line] = kept
		}
	}
}

func (s *session) Flush() error { return s.err }

func (s *session) Close() {
	s.pairs = nil
	for i := range s.lines {
		s.lines[i] = nil
	}
}
