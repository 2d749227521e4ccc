package tictactoe

import (
	"fmt"
	"slices"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

const Dimension = 3

// WinCombos lists every winning line as row-major cell indexes.
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

// Board is an immutable 3x3 tic-tac-toe board.
type Board struct {
	cells   [Dimension * Dimension]entity.Player
	moves   []entity.Move
	turn    entity.Player
	player1 entity.Player
	status  entity.BoardStatus
	winner  entity.Player
}

// NewBoard returns an empty running board. player1 is the color of the match creator.
func NewBoard(player1, turn entity.Player) Board {
	board := Board{
		turn:    turn,
		player1: player1,
		status:  entity.BoardRunning,
		winner:  entity.Empty,
	}

	for i := range board.cells {
		board.cells[i] = entity.Empty
	}

	return board
}

func (that Board) Play(move entity.Move) (entity.Board, error) {
	if that.status.IsTerminal() {
		return nil, entity.ErrGameOver
	}

	if !move.Square.Within(Dimension) {
		return nil, fmt.Errorf("%w: %s", entity.ErrSquareOutOfRange, move.Square)
	}

	cell := index(move.Square)
	if that.cells[cell] != entity.Empty {
		return nil, fmt.Errorf("%w: %s", entity.ErrSquareOccupied, move.Square)
	}

	if move.Player != that.turn {
		return nil, entity.ErrNotYourTurn
	}

	next := that
	next.cells[cell] = move.Player
	next.moves = append(slices.Clone(that.moves), move)
	next.turn = move.Player.Other()

	switch winner := checkGameStatus(next.cells); winner {
	case entity.Black, entity.White:
		next.status = entity.BoardWin
		next.winner = winner
	case playerTie:
		next.status = entity.BoardDraw
	default:
		next.status = entity.BoardRunning
	}

	return next, nil
}

// Forfeit ends the game in favour of the other color, keeping positions and moves as they are.
func (that Board) Forfeit(color entity.Player) entity.Board {
	next := that
	next.moves = slices.Clone(that.moves)
	next.status = entity.BoardWin
	next.winner = color.Other()

	return next
}

func (that Board) Status() entity.BoardStatus {
	return that.status
}

func (that Board) Winner() entity.Player {
	return that.winner
}

func (that Board) Turn() entity.Player {
	return that.turn
}

func (that Board) Dimension() int {
	return Dimension
}

func (that Board) Positions() []entity.Position {
	positions := make([]entity.Position, 0, len(that.cells))
	for i, occupant := range that.cells {
		positions = append(positions, entity.Position{Occupant: occupant, Square: square(i)})
	}

	return positions
}

func (that Board) Moves() []entity.Move {
	return slices.Clone(that.moves)
}

func (that Board) Player1() entity.Player {
	return that.player1
}

func (that Board) Player2() entity.Player {
	return that.player1.Other()
}

// playerTie is returned by checkGameStatus for a full board without a winning line.
const playerTie entity.Player = "-"

// checkGameStatus returns the color owning a winning line, playerTie for a full board, or Empty
// while the game continues.
func checkGameStatus(cells [Dimension * Dimension]entity.Player) entity.Player {
	for _, combo := range WinCombos {
		a, b, c := cells[combo[0]], cells[combo[1]], cells[combo[2]]
		if a != entity.Empty && a == b && b == c {
			return a
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range cells {
		if cell == entity.Empty {
			return entity.Empty
		}
	}

	return playerTie
}

func index(sq entity.Square) int {
	return sq.Row*Dimension + sq.Col
}

func square(index int) entity.Square {
	return entity.Square{Row: index / Dimension, Col: index % Dimension}
}
