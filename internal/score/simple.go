package score

import (
	"cmp"
	"fmt"
	"strconv"
)

// SimpleScore is a single-level int score.
type SimpleScore struct {
	initScore int
	score     int
}

// OfSimple creates an initialized SimpleScore.
func OfSimple(score int) SimpleScore {
	return SimpleScore{score: score}
}

// OfUninitializedSimple creates a SimpleScore with an init score.
func OfUninitializedSimple(initScore, score int) SimpleScore {
	return SimpleScore{initScore: initScore, score: score}
}

func (s SimpleScore) Score() int     { return s.score }
func (s SimpleScore) InitScore() int { return s.initScore }

func (s SimpleScore) IsSolutionInitialized() bool { return s.initScore >= 0 }

func (s SimpleScore) WithInitScore(initScore int) SimpleScore {
	return SimpleScore{initScore: initScore, score: s.score}
}

func (s SimpleScore) Add(addend SimpleScore) SimpleScore {
	return SimpleScore{initScore: s.initScore + addend.initScore, score: s.score + addend.score}
}

func (s SimpleScore) Subtract(subtrahend SimpleScore) SimpleScore {
	return SimpleScore{initScore: s.initScore - subtrahend.initScore, score: s.score - subtrahend.score}
}

func (s SimpleScore) Negate() SimpleScore {
	return SimpleScore{initScore: -s.initScore, score: -s.score}
}

func (s SimpleScore) Compare(other SimpleScore) int {
	if c := cmp.Compare(s.initScore, other.initScore); c != 0 {
		return c
	}
	return cmp.Compare(s.score, other.score)
}

func (s SimpleScore) IsZero() bool { return s.score == 0 }

// IsFeasible only checks initialization: a SimpleScore has no hard level.
func (s SimpleScore) IsFeasible() bool { return s.IsSolutionInitialized() }

func (s SimpleScore) LevelNumbers() []float64 { return []float64{float64(s.score)} }

func (s SimpleScore) String() string {
	return initPrefix(s.initScore) + strconv.Itoa(s.score)
}

func (s SimpleScore) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseSimple parses "-3" or "-1init/-3".
func ParseSimple(text string) (SimpleScore, error) {
	initScore, rest, err := splitInitScore(text)
	if err != nil {
		return SimpleScore{}, err
	}
	score, err := strconv.Atoi(rest)
	if err != nil {
		return SimpleScore{}, fmt.Errorf("invalid simple score %q: %w", text, err)
	}
	return OfUninitializedSimple(initScore, score), nil
}

// SimpleDefinition describes SimpleScore.
type SimpleDefinition struct{}

func (SimpleDefinition) Label() string       { return "simple" }
func (SimpleDefinition) LevelsSize() int     { return 1 }
func (SimpleDefinition) HardLevelsSize() int { return 0 }
func (SimpleDefinition) Zero() SimpleScore   { return SimpleScore{} }

func (SimpleDefinition) Parse(text string) (SimpleScore, error) {
	return ParseSimple(text)
}
