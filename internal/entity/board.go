package entity

const (
	PlayerX   = "X"
	PlayerO   = "O"
	PlayerTie = "-"

	EmptyCell = ""

	BoardSize = 9
)

// WinCombos - the 8 winning lines: 3 rows, 3 columns, 2 diagonals.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Board is a 3x3 grid in row-major order. A cell holds PlayerX, PlayerO or EmptyCell.
type Board [BoardSize]string

// NewBoard - returns a board with all cells empty.
func NewBoard() Board {
	return Board{}
}

// CheckOutcome - scans the winning lines and returns the mark that completed one,
// PlayerTie when the board is full with no winner, or an empty string while the
// game continues.
func (that Board) CheckOutcome() string {
	for _, combo := range WinCombos {
		a, b, c := that[combo[0]], that[combo[1]], that[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	for _, cell := range that {
		if cell == EmptyCell {
			return ""
		}
	}

	return PlayerTie
}

// ToggleMark - strict alternation between the two marks.
func ToggleMark(currentMark string) string {
	if currentMark == PlayerX {
		return PlayerO
	}
	return PlayerX
}
