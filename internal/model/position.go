package model

import "fmt"

// Position is an absolute board coordinate. X is the file (1 = a) and Y the
// rank (1 = White's back rank). Display flipping never changes it.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Direction is a single step on the board.
type Direction struct {
	X int
	Y int
}

var (
	N  = Direction{X: 0, Y: 1}
	NE = Direction{X: 1, Y: 1}
	E  = Direction{X: 1, Y: 0}
	SE = Direction{X: 1, Y: -1}
	S  = Direction{X: 0, Y: -1}
	SW = Direction{X: -1, Y: -1}
	W  = Direction{X: -1, Y: 0}
	NW = Direction{X: -1, Y: 1}
)

var (
	rookDirs   = []Direction{N, E, S, W}
	bishopDirs = []Direction{NE, SE, SW, NW}
	kingDirs   = []Direction{N, NE, E, SE, S, SW, W, NW}
	knightDirs = []Direction{{X: 2, Y: -1}, {X: 2, Y: 1}, {X: 1, Y: -2}, {X: 1, Y: 2}, {X: -2, Y: -1}, {X: -2, Y: 1}, {X: -1, Y: 2}, {X: -1, Y: -2}}
)

// Diagonal reports whether both components of the step are non-zero.
func (d Direction) Diagonal() bool {
	return d.X != 0 && d.Y != 0
}

func (d Direction) Invert() Direction {
	return Direction{X: -d.X, Y: -d.Y}
}

func (p Position) Add(d Direction) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Valid reports whether the position lies on the board.
func (p Position) Valid() bool {
	return p.X >= 1 && p.X <= 8 && p.Y >= 1 && p.Y <= 8
}

func (p Position) index() int {
	return (p.Y-1)*8 + (p.X - 1)
}

func positionAt(index int) Position {
	return Position{X: index%8 + 1, Y: index/8 + 1}
}

// File returns the file letter of the position.
func (p Position) File() string {
	return string(rune('a' + p.X - 1))
}

// Rank returns the rank digit of the position.
func (p Position) Rank() string {
	return string(rune('0' + p.Y))
}

// String returns the algebraic square name, e.g. "e4".
func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return p.File() + p.Rank()
}

// ParseSquare converts an algebraic square name such as "e4" into a Position.
func ParseSquare(square string) (Position, error) {
	if len(square) != 2 {
		return Position{}, fmt.Errorf("%q: %w", square, ErrInvalidSquare)
	}
	if square[0] < 'a' || square[0] > 'h' || square[1] < '1' || square[1] > '8' {
		return Position{}, fmt.Errorf("%q: %w", square, ErrInvalidSquare)
	}
	return Position{X: int(square[0]-'a') + 1, Y: int(square[1] - '0')}, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
