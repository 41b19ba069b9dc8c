package board

import "strings"

// CanForm reports whether word can be traced on b as a path of adjacent cells
// (horizontal, vertical or diagonal) that uses each cell at most once.
// Matching is case-insensitive and a "QU" tile must match "QU" in the word as a unit.
// Empty or whitespace-only words are never formable.
func (b *Board) CanForm(word string) bool {
	w := strings.ToUpper(strings.TrimSpace(word))
	if w == "" || len(w) > MaxWordLen {
		return false
	}
	var used [Cells]bool
	for i := 0; i < Cells; i++ {
		if b.trace(w, i, &used) {
			return true
		}
	}
	return false
}

// trace tries to match the head of rest against cell i and continue from its neighbours.
func (b *Board) trace(rest string, i int, used *[Cells]bool) bool {
	face := b.faces[i]
	if !strings.HasPrefix(rest, face) {
		return false
	}
	rest = rest[len(face):]
	if rest == "" {
		return true
	}

	used[i] = true
	defer func() { used[i] = false }()

	row, col := i/Size, i%Size
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if r < 0 || r >= Size || c < 0 || c >= Size {
				continue
			}
			n := r*Size + c
			if !used[n] && b.trace(rest, n, used) {
				return true
			}
		}
	}
	return false
}
