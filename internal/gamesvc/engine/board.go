package engine

// Protocol caps. The persisted record layout is fixed-size, so boards
// and seat lists are arrays at these maximums with explicit empty
// sentinels rather than growable slices.
const (
	MaxRows  = 16
	MaxCols  = 16
	MaxSeats = 8

	// EmptyCell marks an unclaimed board cell. Occupied cells hold the
	// seat index of the claiming player.
	EmptyCell = int8(-1)
)

// Board is a fixed-capacity grid. Only the leading Rows x Cols window
// is meaningful; cells outside it stay at the sentinel.
type Board struct {
	Rows  uint8
	Cols  uint8
	Cells [MaxRows * MaxCols]int8
}

// NewBoard returns an all-empty board of the given live dimensions.
// Dimension validation belongs to game init; this trusts its inputs.
func NewBoard(rows, cols uint8) Board {
	b := Board{Rows: rows, Cols: cols}
	for i := range b.Cells {
		b.Cells[i] = EmptyCell
	}
	return b
}

// Cell returns the occupant of (row, col), or EmptyCell. Out-of-window
// coordinates read as empty, which keeps the win scan bounds-safe.
func (b *Board) Cell(row, col int) int8 {
	if row < 0 || col < 0 || row >= int(b.Rows) || col >= int(b.Cols) {
		return EmptyCell
	}
	return b.Cells[row*int(b.Cols)+col]
}

// Place claims (row, col) for the given seat index.
func (b *Board) Place(row, col uint8, seat int8) error {
	if row >= b.Rows || col >= b.Cols {
		return errf(CodeOutOfBounds, "tile (%d,%d) outside %dx%d board", row, col, b.Rows, b.Cols)
	}
	idx := int(row)*int(b.Cols) + int(col)
	if b.Cells[idx] != EmptyCell {
		return errf(CodeCellOccupied, "tile (%d,%d) already claimed by seat %d", row, col, b.Cells[idx])
	}
	b.Cells[idx] = seat
	return nil
}

// scanAxes holds the four axes through a cell: horizontal, vertical,
// positive slope, negative slope. Each is walked in both directions.
var scanAxes = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

// ScanForWin reports the winning seat after a placement at (row, col),
// or (-1, false) when the placement completed no run of length >=
// connect. Only runs through the just-placed cell can be new, so the
// scan is anchored there instead of rescanning the whole board.
func (b *Board) ScanForWin(row, col, connect uint8) (int8, bool) {
	seat := b.Cell(int(row), int(col))
	if seat == EmptyCell {
		return -1, false
	}
	for _, axis := range scanAxes {
		run := uint8(1)
		run += b.runLength(int(row), int(col), axis[0], axis[1], seat)
		run += b.runLength(int(row), int(col), -axis[0], -axis[1], seat)
		if run >= connect {
			return seat, true
		}
	}
	return -1, false
}

// runLength counts contiguous cells owned by seat walking away from
// (row, col), excluding the anchor itself.
func (b *Board) runLength(row, col, dr, dc int, seat int8) uint8 {
	var n uint8
	for {
		row += dr
		col += dc
		if b.Cell(row, col) != seat {
			return n
		}
		n++
	}
}

// IsFull reports whether every live cell is claimed.
func (b *Board) IsFull() bool {
	for r := 0; r < int(b.Rows); r++ {
		for c := 0; c < int(b.Cols); c++ {
			if b.Cells[r*int(b.Cols)+c] == EmptyCell {
				return false
			}
		}
	}
	return true
}

// MoveCount returns the number of claimed cells.
func (b *Board) MoveCount() uint16 {
	var n uint16
	for r := 0; r < int(b.Rows); r++ {
		for c := 0; c < int(b.Cols); c++ {
			if b.Cells[r*int(b.Cols)+c] != EmptyCell {
				n++
			}
		}
	}
	return n
}
