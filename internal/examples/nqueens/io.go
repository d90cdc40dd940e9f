package nqueens

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type boardFile struct {
	N      int         `yaml:"n"`
	Score  string      `yaml:"score,omitempty"`
	Queens []queenFile `yaml:"queens"`
}

type queenFile struct {
	ID     int  `yaml:"id"`
	Column int  `yaml:"column"`
	Row    *int `yaml:"row"`
}

// MarshalBoard encodes a board as YAML.
func MarshalBoard(b *Board) ([]byte, error) {
	f := boardFile{N: b.N, Score: b.Score.String()}
	for _, q := range b.Queens {
		qf := queenFile{ID: q.ID, Column: q.Column.Index}
		if q.Row != nil {
			row := q.Row.Index
			qf.Row = &row
		}
		f.Queens = append(f.Queens, qf)
	}
	return yaml.Marshal(f)
}

// UnmarshalBoard decodes a YAML board. Queens without a row are unassigned.
func UnmarshalBoard(data []byte) (*Board, error) {
	var f boardFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse board: %w", err)
	}
	if f.N <= 0 {
		return nil, fmt.Errorf("board size must be positive, got %d", f.N)
	}
	b := NewBoard(f.N)
	b.Queens = nil
	for _, qf := range f.Queens {
		if qf.Column < 0 || qf.Column >= f.N {
			return nil, fmt.Errorf("queen %d: column %d out of range", qf.ID, qf.Column)
		}
		q := &Queen{ID: qf.ID, Column: b.Columns[qf.Column]}
		if qf.Row != nil {
			if *qf.Row < 0 || *qf.Row >= f.N {
				return nil, fmt.Errorf("queen %d: row %d out of range", qf.ID, *qf.Row)
			}
			q.Row = b.Rows[*qf.Row]
		}
		b.Queens = append(b.Queens, q)
	}
	return b, nil
}

// LoadBoard reads a YAML board file.
func LoadBoard(path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read board: %w", err)
	}
	return UnmarshalBoard(data)
}

// SaveBoard writes a board as YAML.
func SaveBoard(path string, b *Board) error {
	data, err := MarshalBoard(b)
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}
	return nil
}
