package entity

import (
	"errors"
	"fmt"
)

// BoardStatus is the variant of a board value.
type BoardStatus int

const (
	BoardRunning BoardStatus = iota
	BoardWin
	BoardDraw
)

func (that BoardStatus) String() string {
	switch that {
	case BoardRunning:
		return "RUNNING"
	case BoardWin:
		return "WIN"
	case BoardDraw:
		return "DRAW"
	default:
		return fmt.Sprintf("BoardStatus(%d)", int(that))
	}
}

// IsTerminal reports whether no further moves are accepted.
func (that BoardStatus) IsTerminal() bool {
	return that == BoardWin || that == BoardDraw
}

// ErrIllegalMove is the parent of every rule violation a board reports.
var ErrIllegalMove = errors.New("illegal move")

var (
	ErrGameOver         = fmt.Errorf("%w: game is already over", ErrIllegalMove)
	ErrSquareOccupied   = fmt.Errorf("%w: square is already occupied", ErrIllegalMove)
	ErrNotYourTurn      = fmt.Errorf("%w: it's not your turn", ErrIllegalMove)
	ErrSquareOutOfRange = fmt.Errorf("%w: square is outside the board", ErrIllegalMove)
	ErrMatchNotStarted  = fmt.Errorf("%w: match has not started", ErrIllegalMove)
)

// Board is the rule state machine of one game type. Implementations are immutable: Play and
// Forfeit return a new value and leave the receiver untouched.
type Board interface {
	Play(move Move) (Board, error)
	Forfeit(color Player) Board

	Status() BoardStatus
	// Winner is Empty unless Status is BoardWin.
	Winner() Player
	Turn() Player
	Dimension() int
	Positions() []Position
	// Moves is the audit trail, oldest first.
	Moves() []Move
	Player1() Player
	Player2() Player
}

// BoardSnapshot is the plain data of a board, used to persist and restore it.
type BoardSnapshot struct {
	Status    BoardStatus
	Winner    Player
	Turn      Player
	Player1   Player
	Player2   Player
	Positions []Position
	Moves     []Move
}

func SnapshotOf(board Board) BoardSnapshot {
	return BoardSnapshot{
		Status:    board.Status(),
		Winner:    board.Winner(),
		Turn:      board.Turn(),
		Player1:   board.Player1(),
		Player2:   board.Player2(),
		Positions: board.Positions(),
		Moves:     board.Moves(),
	}
}

// Game creates and restores boards for a single match type.
type Game interface {
	NewBoard(player1 Player, turn Player) Board
	RestoreBoard(snapshot BoardSnapshot) (Board, error)
}
