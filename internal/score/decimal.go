package score

import (
	"cmp"
	"fmt"

	"github.com/shopspring/decimal"
)

// HardSoftDecimalScore is a HardSoftScore with arbitrary-precision decimal
// levels. Addition and subtraction are exact.
type HardSoftDecimalScore struct {
	initScore int
	hard      decimal.Decimal
	soft      decimal.Decimal
}

func OfHardSoftDecimal(hard, soft decimal.Decimal) HardSoftDecimalScore {
	return HardSoftDecimalScore{hard: hard, soft: soft}
}

func OfUninitializedHardSoftDecimal(initScore int, hard, soft decimal.Decimal) HardSoftDecimalScore {
	return HardSoftDecimalScore{initScore: initScore, hard: hard, soft: soft}
}

func (s HardSoftDecimalScore) HardScore() decimal.Decimal { return s.hard }
func (s HardSoftDecimalScore) SoftScore() decimal.Decimal { return s.soft }
func (s HardSoftDecimalScore) InitScore() int             { return s.initScore }

func (s HardSoftDecimalScore) IsSolutionInitialized() bool { return s.initScore >= 0 }

func (s HardSoftDecimalScore) WithInitScore(initScore int) HardSoftDecimalScore {
	return HardSoftDecimalScore{initScore: initScore, hard: s.hard, soft: s.soft}
}

func (s HardSoftDecimalScore) Add(addend HardSoftDecimalScore) HardSoftDecimalScore {
	return HardSoftDecimalScore{
		initScore: s.initScore + addend.initScore,
		hard:      s.hard.Add(addend.hard),
		soft:      s.soft.Add(addend.soft),
	}
}

func (s HardSoftDecimalScore) Subtract(subtrahend HardSoftDecimalScore) HardSoftDecimalScore {
	return HardSoftDecimalScore{
		initScore: s.initScore - subtrahend.initScore,
		hard:      s.hard.Sub(subtrahend.hard),
		soft:      s.soft.Sub(subtrahend.soft),
	}
}

func (s HardSoftDecimalScore) Negate() HardSoftDecimalScore {
	return HardSoftDecimalScore{initScore: -s.initScore, hard: s.hard.Neg(), soft: s.soft.Neg()}
}

func (s HardSoftDecimalScore) Compare(other HardSoftDecimalScore) int {
	if c := cmp.Compare(s.initScore, other.initScore); c != 0 {
		return c
	}
	if c := s.hard.Cmp(other.hard); c != 0 {
		return c
	}
	return s.soft.Cmp(other.soft)
}

func (s HardSoftDecimalScore) IsZero() bool { return s.hard.IsZero() && s.soft.IsZero() }

func (s HardSoftDecimalScore) IsFeasible() bool {
	return s.IsSolutionInitialized() && !s.hard.IsNegative()
}

func (s HardSoftDecimalScore) LevelNumbers() []float64 {
	return []float64{s.hard.InexactFloat64(), s.soft.InexactFloat64()}
}

func (s HardSoftDecimalScore) String() string {
	return initPrefix(s.initScore) + s.hard.String() + hardLabel + "/" + s.soft.String() + softLabel
}

func (s HardSoftDecimalScore) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func ParseHardSoftDecimal(text string) (HardSoftDecimalScore, error) {
	initScore, rest, err := splitInitScore(text)
	if err != nil {
		return HardSoftDecimalScore{}, err
	}
	tokens, err := splitLevels(rest, hardLabel, softLabel)
	if err != nil {
		return HardSoftDecimalScore{}, err
	}
	hard, err := decimal.NewFromString(tokens[0])
	if err != nil {
		return HardSoftDecimalScore{}, fmt.Errorf("invalid hard level in %q: %w", text, err)
	}
	soft, err := decimal.NewFromString(tokens[1])
	if err != nil {
		return HardSoftDecimalScore{}, fmt.Errorf("invalid soft level in %q: %w", text, err)
	}
	return OfUninitializedHardSoftDecimal(initScore, hard, soft), nil
}

// HardSoftDecimalDefinition describes HardSoftDecimalScore.
type HardSoftDecimalDefinition struct{}

func (HardSoftDecimalDefinition) Label() string       { return "hardSoftDecimal" }
func (HardSoftDecimalDefinition) LevelsSize() int     { return 2 }
func (HardSoftDecimalDefinition) HardLevelsSize() int { return 1 }

func (HardSoftDecimalDefinition) Zero() HardSoftDecimalScore {
	return HardSoftDecimalScore{hard: decimal.Zero, soft: decimal.Zero}
}

func (HardSoftDecimalDefinition) Parse(text string) (HardSoftDecimalScore, error) {
	return ParseHardSoftDecimal(text)
}
