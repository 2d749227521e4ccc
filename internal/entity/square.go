package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSquare   = errors.New("invalid square")
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidMove     = errors.New("invalid move")
)

// Square is a zero-based board coordinate. Its text form is a one-based row digit followed by a
// lowercase column letter, so Square{Row: 0, Col: 0} is "1a".
type Square struct {
	Row int
	Col int
}

func (that Square) String() string {
	return fmt.Sprintf("%d%c", that.Row+1, 'a'+rune(that.Col))
}

// Within reports whether the square lies on a board of the given dimension.
func (that Square) Within(dimension int) bool {
	return that.Row >= 0 && that.Row < dimension && that.Col >= 0 && that.Col < dimension
}

func ParseSquare(value string) (Square, error) {
	if len(value) != 2 {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, value)
	}

	row, col := value[0], value[1]
	if row < '1' || row > '9' || col < 'a' || col > 'z' {
		return Square{}, fmt.Errorf("%w: %q", ErrInvalidSquare, value)
	}

	return Square{Row: int(row - '1'), Col: int(col - 'a')}, nil
}

// Squares lists every square of a board in row-major order.
func Squares(dimension int) []Square {
	squares := make([]Square, 0, dimension*dimension)
	for row := range dimension {
		for col := range dimension {
			squares = append(squares, Square{Row: row, Col: col})
		}
	}

	return squares
}

// Position is a snapshot of one cell.
type Position struct {
	Occupant Player
	Square   Square
}

func (that Position) String() string {
	return that.Occupant.String() + "," + that.Square.String()
}

func ParsePosition(value string) (Position, error) {
	player, square, err := splitPair(value)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrInvalidPosition, err)
	}

	return Position{Occupant: player, Square: square}, nil
}

// Move asks to place Player on Square.
type Move struct {
	Player Player
	Square Square
}

func (that Move) String() string {
	return that.Player.String() + "," + that.Square.String()
}

// ParseMove parses "<PLAYER>,<SQUARE>". Empty is never a valid mover.
func ParseMove(value string) (Move, error) {
	player, square, err := splitPair(value)
	if err != nil {
		return Move{}, fmt.Errorf("%w: %w", ErrInvalidMove, err)
	}

	if !player.IsColor() {
		return Move{}, fmt.Errorf("%w: %q cannot move", ErrInvalidMove, player)
	}

	return Move{Player: player, Square: square}, nil
}

func splitPair(value string) (Player, Square, error) {
	playerPart, squarePart, found := strings.Cut(value, ",")
	if !found {
		return "", Square{}, fmt.Errorf("missing separator in %q", value)
	}

	player, err := ParsePlayer(playerPart)
	if err != nil {
		return "", Square{}, err
	}

	square, err := ParseSquare(squarePart)
	if err != nil {
		return "", Square{}, err
	}

	return player, square, nil
}
