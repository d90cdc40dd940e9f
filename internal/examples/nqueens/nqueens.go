// Package nqueens is the n queens problem: place n queens on an n×n board so
// that no two queens share a row or a diagonal. Each queen owns a column and
// the planning variable is its row.
package nqueens

import (
	"fmt"
	"math/rand"

	"github.com/MarcyGO/optaplanner/internal/domain"
	"github.com/MarcyGO/optaplanner/internal/score"
)

type Column struct {
	Index int
}

func (c *Column) PlanningID() any { return c.Index }
func (c *Column) String() string  { return fmt.Sprintf("Col%d", c.Index) }

type Row struct {
	Index int
}

func (r *Row) PlanningID() any { return r.Index }
func (r *Row) String() string  { return fmt.Sprintf("Row%d", r.Index) }

// Queen is the planning entity. Row is nil while unassigned.
type Queen struct {
	ID     int
	Column *Column
	Row    *Row
}

func (q *Queen) PlanningID() any { return q.ID }

func (q *Queen) String() string { return fmt.Sprintf("Queen%d", q.ID) }

func (q *Queen) ascendingDiagonal() int  { return q.Row.Index + q.Column.Index }
func (q *Queen) descendingDiagonal() int { return q.Row.Index - q.Column.Index }

// Board is the planning solution.
type Board struct {
	N       int
	Columns []*Column
	Rows    []*Row
	Queens  []*Queen
	Score   score.SimpleScore
}

func (b *Board) SetScore(s score.SimpleScore) { b.Score = s }

// Domain bundles the descriptor and the row variable of a board.
type Domain struct {
	Descriptor *domain.SolutionDescriptor[*Board]
	RowVar     *domain.BasicVariable[*Queen, *Row]
}

// NewDomain registers the board's entities, facts and variable.
func NewDomain() Domain {
	sd := domain.NewSolutionDescriptor("NQueens", CloneBoard)
	domain.AddEntity(sd, "Queen", Queens)
	domain.AddProblemFacts(sd, "Column", func(b *Board) []*Column { return b.Columns })
	domain.AddProblemFacts(sd, "Row", Rows)
	rowVar := domain.AddBasicVariable(sd, "Queen", "row",
		func(q *Queen) *Row { return q.Row },
		func(q *Queen, r *Row) { q.Row = r })
	return Domain{Descriptor: sd, RowVar: rowVar}
}

func Queens(b *Board) []*Queen { return b.Queens }
func Rows(b *Board) []*Row     { return b.Rows }

// CloneBoard copies the queens and shares columns and rows.
func CloneBoard(b *Board) *Board {
	c := &Board{N: b.N, Columns: b.Columns, Rows: b.Rows, Score: b.Score}
	c.Queens = make([]*Queen, len(b.Queens))
	for i, q := range b.Queens {
		c.Queens[i] = &Queen{ID: q.ID, Column: q.Column, Row: q.Row}
	}
	return c
}

// NewBoard creates an n×n board with every queen unassigned.
func NewBoard(n int) *Board {
	b := &Board{N: n}
	for i := 0; i < n; i++ {
		b.Columns = append(b.Columns, &Column{Index: i})
		b.Rows = append(b.Rows, &Row{Index: i})
	}
	for i := 0; i < n; i++ {
		b.Queens = append(b.Queens, &Queen{ID: i, Column: b.Columns[i]})
	}
	return b
}

// Scramble assigns every queen a random row.
func Scramble(b *Board, rnd *rand.Rand) {
	for _, q := range b.Queens {
		q.Row = b.Rows[rnd.Intn(len(b.Rows))]
	}
}
