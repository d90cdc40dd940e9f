package score

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// BendableScore has a configurable number of hard and soft int levels.
// Scores are only comparable and addable when their level counts match;
// mixing shapes is a programming error and panics.
type BendableScore struct {
	initScore int
	hard      []int
	soft      []int
}

// OfBendable copies the given levels into a new score.
func OfBendable(hard, soft []int) BendableScore {
	return OfUninitializedBendable(0, hard, soft)
}

func OfUninitializedBendable(initScore int, hard, soft []int) BendableScore {
	return BendableScore{
		initScore: initScore,
		hard:      append([]int(nil), hard...),
		soft:      append([]int(nil), soft...),
	}
}

// ZeroBendable returns a zero score with the given shape.
func ZeroBendable(hardLevels, softLevels int) BendableScore {
	return BendableScore{hard: make([]int, hardLevels), soft: make([]int, softLevels)}
}

func (s BendableScore) HardLevelsSize() int     { return len(s.hard) }
func (s BendableScore) SoftLevelsSize() int     { return len(s.soft) }
func (s BendableScore) HardScore(level int) int { return s.hard[level] }
func (s BendableScore) SoftScore(level int) int { return s.soft[level] }
func (s BendableScore) InitScore() int          { return s.initScore }

// HardScores returns a copy of the hard levels.
func (s BendableScore) HardScores() []int { return append([]int(nil), s.hard...) }

// SoftScores returns a copy of the soft levels.
func (s BendableScore) SoftScores() []int { return append([]int(nil), s.soft...) }

func (s BendableScore) IsSolutionInitialized() bool { return s.initScore >= 0 }

func (s BendableScore) WithInitScore(initScore int) BendableScore {
	return BendableScore{initScore: initScore, hard: s.hard, soft: s.soft}
}

func (s BendableScore) Add(addend BendableScore) BendableScore {
	s.assertShape(addend)
	return BendableScore{
		initScore: s.initScore + addend.initScore,
		hard:      combine(s.hard, addend.hard, 1),
		soft:      combine(s.soft, addend.soft, 1),
	}
}

func (s BendableScore) Subtract(subtrahend BendableScore) BendableScore {
	s.assertShape(subtrahend)
	return BendableScore{
		initScore: s.initScore - subtrahend.initScore,
		hard:      combine(s.hard, subtrahend.hard, -1),
		soft:      combine(s.soft, subtrahend.soft, -1),
	}
}

func (s BendableScore) Negate() BendableScore {
	return BendableScore{
		initScore: -s.initScore,
		hard:      combine(make([]int, len(s.hard)), s.hard, -1),
		soft:      combine(make([]int, len(s.soft)), s.soft, -1),
	}
}

func (s BendableScore) Compare(other BendableScore) int {
	s.assertShape(other)
	if c := cmp.Compare(s.initScore, other.initScore); c != 0 {
		return c
	}
	for i := range s.hard {
		if c := cmp.Compare(s.hard[i], other.hard[i]); c != 0 {
			return c
		}
	}
	for i := range s.soft {
		if c := cmp.Compare(s.soft[i], other.soft[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (s BendableScore) IsZero() bool {
	for _, v := range s.hard {
		if v != 0 {
			return false
		}
	}
	for _, v := range s.soft {
		if v != 0 {
			return false
		}
	}
	return true
}

func (s BendableScore) IsFeasible() bool {
	if !s.IsSolutionInitialized() {
		return false
	}
	for _, v := range s.hard {
		if v < 0 {
			return false
		}
	}
	return true
}

func (s BendableScore) LevelNumbers() []float64 {
	levels := make([]float64, 0, len(s.hard)+len(s.soft))
	for _, v := range s.hard {
		levels = append(levels, float64(v))
	}
	for _, v := range s.soft {
		levels = append(levels, float64(v))
	}
	return levels
}

// String renders "[0/-1]hard/[-2/-3/-4]soft".
func (s BendableScore) String() string {
	return initPrefix(s.initScore) + "[" + joinInts(s.hard) + "]" + hardLabel + "/[" + joinInts(s.soft) + "]" + softLabel
}

func (s BendableScore) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s BendableScore) assertShape(other BendableScore) {
	if len(s.hard) != len(other.hard) || len(s.soft) != len(other.soft) {
		panic(fmt.Sprintf("bendable score shapes differ: %s vs %s", s, other))
	}
}

func combine(a, b []int, sign int) []int {
	out := make([]int, len(a))
	for i := range a {
		out[i] = a[i] + sign*b[i]
	}
	return out
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, "/")
}

// ParseBendable parses "[0]hard/[-1/-2]soft", optionally prefixed by "<n>init/".
func ParseBendable(text string) (BendableScore, error) {
	initScore := 0
	rest := text
	if !strings.HasPrefix(text, "[") {
		var err error
		initScore, rest, err = splitInitScore(text)
		if err != nil {
			return BendableScore{}, err
		}
	}
	hardPart, softPart, found := strings.Cut(rest, "]"+hardLabel+"/")
	if !found || !strings.HasPrefix(hardPart, "[") || !strings.HasPrefix(softPart, "[") ||
		!strings.HasSuffix(softPart, "]"+softLabel) {
		return BendableScore{}, fmt.Errorf("bendable score %q must look like [..]hard/[..]soft", text)
	}
	hard, err := parseIntList(strings.TrimPrefix(hardPart, "["))
	if err != nil {
		return BendableScore{}, fmt.Errorf("invalid hard levels in %q: %w", text, err)
	}
	soft, err := parseIntList(strings.TrimSuffix(strings.TrimPrefix(softPart, "["), "]"+softLabel))
	if err != nil {
		return BendableScore{}, fmt.Errorf("invalid soft levels in %q: %w", text, err)
	}
	return BendableScore{initScore: initScore, hard: hard, soft: soft}, nil
}

func parseIntList(text string) ([]int, error) {
	if text == "" {
		return []int{}, nil
	}
	parts := strings.Split(text, "/")
	values := make([]int, len(parts))
	for i, part := range parts {
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// BendableDefinition describes BendableScore with a fixed shape.
type BendableDefinition struct {
	HardLevels int
	SoftLevels int
}

func (d BendableDefinition) Label() string       { return "bendable" }
func (d BendableDefinition) LevelsSize() int     { return d.HardLevels + d.SoftLevels }
func (d BendableDefinition) HardLevelsSize() int { return d.HardLevels }
func (d BendableDefinition) Zero() BendableScore { return ZeroBendable(d.HardLevels, d.SoftLevels) }

// Parse rejects scores whose shape differs from the definition.
func (d BendableDefinition) Parse(text string) (BendableScore, error) {
	s, err := ParseBendable(text)
	if err != nil {
		return BendableScore{}, err
	}
	if len(s.hard) != d.HardLevels || len(s.soft) != d.SoftLevels {
		return BendableScore{}, fmt.Errorf("bendable score %q must have %d hard and %d soft levels",
			text, d.HardLevels, d.SoftLevels)
	}
	return s, nil
}
