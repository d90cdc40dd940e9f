// Package score defines the immutable score values a solver optimizes.
//
// Every score carries an init score: zero when all planning variables are
// assigned, otherwise the negated number of unassigned variables. The init
// score dominates ordering, so a less initialized solution is always worse
// regardless of its other levels.
package score

import (
	"fmt"
	"strconv"
	"strings"
)

// Score is implemented by value types S that behave like numbers with one or
// more levels, compared lexicographically (hard before soft).
type Score[S any] interface {
	// InitScore is 0 or negative: the negated count of uninitialized variables.
	InitScore() int
	IsSolutionInitialized() bool
	WithInitScore(initScore int) S

	Add(addend S) S
	Subtract(subtrahend S) S
	Negate() S

	// Compare returns a negative number if this score is worse than other,
	// zero if equal and a positive number if better.
	Compare(other S) int

	// IsZero ignores the init score.
	IsZero() bool
	IsFeasible() bool

	// LevelNumbers returns every level (init score excluded) as float64,
	// hard levels first.
	LevelNumbers() []float64

	String() string
}

// Definition knows the shape of one score type: how many levels it has, how to
// build its zero value and how to parse its textual form.
type Definition[S Score[S]] interface {
	Label() string
	LevelsSize() int
	HardLevelsSize() int
	Zero() S
	Parse(text string) (S, error)
}

const initLabel = "init"

// splitInitScore strips an optional "<n>init/" prefix.
func splitInitScore(text string) (int, string, error) {
	head, rest, found := strings.Cut(text, "/")
	if !found || !strings.HasSuffix(head, initLabel) {
		return 0, text, nil
	}
	initScore, err := strconv.Atoi(strings.TrimSuffix(head, initLabel))
	if err != nil {
		return 0, "", fmt.Errorf("invalid init score %q: %w", head, err)
	}
	return initScore, rest, nil
}

// splitLevels splits "<a>hard/<b>soft" style text into its numeric tokens,
// checking each token carries the expected suffix.
func splitLevels(text string, suffixes ...string) ([]string, error) {
	parts := strings.Split(text, "/")
	if len(parts) != len(suffixes) {
		return nil, fmt.Errorf("score %q must have %d levels separated by /", text, len(suffixes))
	}
	tokens := make([]string, len(parts))
	for i, part := range parts {
		if !strings.HasSuffix(part, suffixes[i]) {
			return nil, fmt.Errorf("score level %q must end with %q", part, suffixes[i])
		}
		tokens[i] = strings.TrimSuffix(part, suffixes[i])
	}
	return tokens, nil
}

func initPrefix(initScore int) string {
	if initScore == 0 {
		return ""
	}
	return strconv.Itoa(initScore) + initLabel + "/"
}
