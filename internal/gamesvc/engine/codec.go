package engine

import "fmt"

// The board persists as one compact row-major string, '.' for an empty
// cell and the seat digit otherwise. Small enough to stay readable in
// the database and in logs.

const emptyCellChar = '.'

// EncodeBoard flattens the live window of the board to its text form.
func EncodeBoard(b *Board) string {
	out := make([]byte, 0, int(b.Rows)*int(b.Cols))
	for r := 0; r < int(b.Rows); r++ {
		for c := 0; c < int(b.Cols); c++ {
			cell := b.Cells[r*int(b.Cols)+c]
			if cell == EmptyCell {
				out = append(out, emptyCellChar)
			} else {
				out = append(out, byte('0'+cell))
			}
		}
	}
	return string(out)
}

// DecodeBoard rebuilds a board from its text form.
func DecodeBoard(rows, cols uint8, s string) (Board, error) {
	b := NewBoard(rows, cols)
	if len(s) != int(rows)*int(cols) {
		return b, fmt.Errorf("board text length %d does not match %dx%d", len(s), rows, cols)
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if ch == emptyCellChar {
			continue
		}
		seat := int8(ch - '0')
		if seat < 0 || seat >= MaxSeats {
			return b, fmt.Errorf("bad cell %q at offset %d", ch, i)
		}
		b.Cells[i] = seat
	}
	return b, nil
}
