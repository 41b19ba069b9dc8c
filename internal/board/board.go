// internal/board/board.go
//
// The 4x4 letter grid a Boggle session is played on.
// Defines:
//   - Board: an immutable row-major grid of tile faces.
//   - Parse/String: the 16-character wire form ("Q" stands for the "QU" tile).
//
// Faces are stored upper case. A face holds one or two letters; the only two-letter
// face in the dice set is "QU", which occupies one cell but consumes two letters of a word.

package board

import (
	"errors"
	"strings"
)

const (
	// Size is the number of rows (and columns) of a board.
	Size = 4
	// Cells is the number of tiles on a board.
	Cells = Size * Size
	// MaxWordLen is the longest word a path can spell: every cell used once,
	// each a two-letter "QU" tile.
	MaxWordLen = Cells * 2
)

// ErrInvalidBoard is returned by Parse for malformed board strings.
var ErrInvalidBoard = errors.New("board: invalid board string")

// Board is a Size x Size grid of tile faces in row-major order.
// The zero value is not a valid board; use Parse or a Generator.
type Board struct {
	faces [Cells]string
}

// Parse builds a board from its 16-character wire form.
// Letters are case-insensitive; "Q" expands to the "QU" tile.
func Parse(s string) (*Board, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != Cells {
		return nil, ErrInvalidBoard
	}
	b := &Board{}
	for i := 0; i < Cells; i++ {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return nil, ErrInvalidBoard
		}
		b.faces[i] = faceFor(c)
	}
	return b, nil
}

// MustParse is Parse for fixed boards in tests and fixtures; it panics on error.
func MustParse(s string) *Board {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Face returns the face of the cell at (row, col).
func (b *Board) Face(row, col int) string {
	return b.faces[row*Size+col]
}

// Faces returns a copy of all faces in row-major order.
func (b *Board) Faces() []string {
	out := make([]string, Cells)
	copy(out, b.faces[:])
	return out
}

// String renders the wire form: one character per cell, "QU" written as "Q".
func (b *Board) String() string {
	var sb strings.Builder
	sb.Grow(Cells)
	for _, f := range b.faces {
		sb.WriteByte(f[0])
	}
	return sb.String()
}

func faceFor(c byte) string {
	if c == 'Q' {
		return "QU"
	}
	return string(c)
}
