package score

import (
	"cmp"
	"fmt"
	"strconv"
)

const (
	hardLabel = "hard"
	softLabel = "soft"
)

// HardSoftScore has an int hard level and an int soft level.
// Any hard difference outweighs every soft difference.
type HardSoftScore struct {
	initScore int
	hard      int
	soft      int
}

func OfHardSoft(hard, soft int) HardSoftScore {
	return HardSoftScore{hard: hard, soft: soft}
}

func OfHard(hard int) HardSoftScore { return HardSoftScore{hard: hard} }
func OfSoft(soft int) HardSoftScore { return HardSoftScore{soft: soft} }

func OfUninitializedHardSoft(initScore, hard, soft int) HardSoftScore {
	return HardSoftScore{initScore: initScore, hard: hard, soft: soft}
}

func (s HardSoftScore) HardScore() int { return s.hard }
func (s HardSoftScore) SoftScore() int { return s.soft }
func (s HardSoftScore) InitScore() int { return s.initScore }

func (s HardSoftScore) IsSolutionInitialized() bool { return s.initScore >= 0 }

func (s HardSoftScore) WithInitScore(initScore int) HardSoftScore {
	return HardSoftScore{initScore: initScore, hard: s.hard, soft: s.soft}
}

func (s HardSoftScore) Add(addend HardSoftScore) HardSoftScore {
	return HardSoftScore{
		initScore: s.initScore + addend.initScore,
		hard:      s.hard + addend.hard,
		soft:      s.soft + addend.soft,
	}
}

func (s HardSoftScore) Subtract(subtrahend HardSoftScore) HardSoftScore {
	return HardSoftScore{
		initScore: s.initScore - subtrahend.initScore,
		hard:      s.hard - subtrahend.hard,
		soft:      s.soft - subtrahend.soft,
	}
}

func (s HardSoftScore) Negate() HardSoftScore {
	return HardSoftScore{initScore: -s.initScore, hard: -s.hard, soft: -s.soft}
}

func (s HardSoftScore) Compare(other HardSoftScore) int {
	if c := cmp.Compare(s.initScore, other.initScore); c != 0 {
		return c
	}
	if c := cmp.Compare(s.hard, other.hard); c != 0 {
		return c
	}
	return cmp.Compare(s.soft, other.soft)
}

func (s HardSoftScore) IsZero() bool     { return s.hard == 0 && s.soft == 0 }
func (s HardSoftScore) IsFeasible() bool { return s.IsSolutionInitialized() && s.hard >= 0 }

func (s HardSoftScore) LevelNumbers() []float64 {
	return []float64{float64(s.hard), float64(s.soft)}
}

func (s HardSoftScore) String() string {
	return initPrefix(s.initScore) + strconv.Itoa(s.hard) + hardLabel + "/" + strconv.Itoa(s.soft) + softLabel
}

func (s HardSoftScore) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// ParseHardSoft parses "-2hard/-3soft", optionally prefixed by "<n>init/".
func ParseHardSoft(text string) (HardSoftScore, error) {
	initScore, rest, err := splitInitScore(text)
	if err != nil {
		return HardSoftScore{}, err
	}
	tokens, err := splitLevels(rest, hardLabel, softLabel)
	if err != nil {
		return HardSoftScore{}, err
	}
	hard, err := strconv.Atoi(tokens[0])
	if err != nil {
		return HardSoftScore{}, fmt.Errorf("invalid hard level in %q: %w", text, err)
	}
	soft, err := strconv.Atoi(tokens[1])
	if err != nil {
		return HardSoftScore{}, fmt.Errorf("invalid soft level in %q: %w", text, err)
	}
	return OfUninitializedHardSoft(initScore, hard, soft), nil
}

// HardSoftDefinition describes HardSoftScore.
type HardSoftDefinition struct{}

func (HardSoftDefinition) Label() string       { return "hardSoft" }
func (HardSoftDefinition) LevelsSize() int     { return 2 }
func (HardSoftDefinition) HardLevelsSize() int { return 1 }
func (HardSoftDefinition) Zero() HardSoftScore { return HardSoftScore{} }

func (HardSoftDefinition) Parse(text string) (HardSoftScore, error) {
	return ParseHardSoft(text)
}

// HardSoftLongScore is a HardSoftScore with int64 levels.
type HardSoftLongScore struct {
	initScore int
	hard      int64
	soft      int64
}

func OfHardSoftLong(hard, soft int64) HardSoftLongScore {
	return HardSoftLongScore{hard: hard, soft: soft}
}

func OfUninitializedHardSoftLong(initScore int, hard, soft int64) HardSoftLongScore {
	return HardSoftLongScore{initScore: initScore, hard: hard, soft: soft}
}

func (s HardSoftLongScore) HardScore() int64 { return s.hard }
func (s HardSoftLongScore) SoftScore() int64 { return s.soft }
func (s HardSoftLongScore) InitScore() int   { return s.initScore }

func (s HardSoftLongScore) IsSolutionInitialized() bool { return s.initScore >= 0 }

func (s HardSoftLongScore) WithInitScore(initScore int) HardSoftLongScore {
	return HardSoftLongScore{initScore: initScore, hard: s.hard, soft: s.soft}
}

func (s HardSoftLongScore) Add(addend HardSoftLongScore) HardSoftLongScore {
	return HardSoftLongScore{
		initScore: s.initScore + addend.initScore,
		hard:      s.hard + addend.hard,
		soft:      s.soft + addend.soft,
	}
}

func (s HardSoftLongScore) Subtract(subtrahend HardSoftLongScore) HardSoftLongScore {
	return HardSoftLongScore{
		initScore: s.initScore - subtrahend.initScore,
		hard:      s.hard - subtrahend.hard,
		soft:      s.soft - subtrahend.soft,
	}
}

func (s HardSoftLongScore) Negate() HardSoftLongScore {
	return HardSoftLongScore{initScore: -s.initScore, hard: -s.hard, soft: -s.soft}
}

func (s HardSoftLongScore) Compare(other HardSoftLongScore) int {
	if c := cmp.Compare(s.initScore, other.initScore); c != 0 {
		return c
	}
	if c := cmp.Compare(s.hard, other.hard); c != 0 {
		return c
	}
	return cmp.Compare(s.soft, other.soft)
}

func (s HardSoftLongScore) IsZero() bool     { return s.hard == 0 && s.soft == 0 }
func (s HardSoftLongScore) IsFeasible() bool { return s.IsSolutionInitialized() && s.hard >= 0 }

func (s HardSoftLongScore) LevelNumbers() []float64 {
	return []float64{float64(s.hard), float64(s.soft)}
}

func (s HardSoftLongScore) String() string {
	return initPrefix(s.initScore) +
		strconv.FormatInt(s.hard, 10) + hardLabel + "/" + strconv.FormatInt(s.soft, 10) + softLabel
}

func (s HardSoftLongScore) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func ParseHardSoftLong(text string) (HardSoftLongScore, error) {
	initScore, rest, err := splitInitScore(text)
	if err != nil {
		return HardSoftLongScore{}, err
	}
	tokens, err := splitLevels(rest, hardLabel, softLabel)
	if err != nil {
		return HardSoftLongScore{}, err
	}
	hard, err := strconv.ParseInt(tokens[0], 10, 64)
	if err != nil {
		return HardSoftLongScore{}, fmt.Errorf("invalid hard level in %q: %w", text, err)
	}
	soft, err := strconv.ParseInt(tokens[1], 10, 64)
	if err != nil {
		return HardSoftLongScore{}, fmt.Errorf("invalid soft level in %q: %w", text, err)
	}
	return OfUninitializedHardSoftLong(initScore, hard, soft), nil
}

// HardSoftLongDefinition describes HardSoftLongScore.
type HardSoftLongDefinition struct{}

func (HardSoftLongDefinition) Label() string           { return "hardSoftLong" }
func (HardSoftLongDefinition) LevelsSize() int         { return 2 }
func (HardSoftLongDefinition) HardLevelsSize() int     { return 1 }
func (HardSoftLongDefinition) Zero() HardSoftLongScore { return HardSoftLongScore{} }

func (HardSoftLongDefinition) Parse(text string) (HardSoftLongScore, error) {
	return ParseHardSoftLong(text)
}
