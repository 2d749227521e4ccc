package tictactoe

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

var ErrInvalidSnapshot = errors.New("invalid board snapshot")

// Game provides tic-tac-toe rules to the match catalog.
type Game struct{}

func (Game) NewBoard(player1, turn entity.Player) entity.Board {
	return NewBoard(player1, turn)
}

// RestoreBoard rebuilds a board from persisted data and rejects snapshots no sequence of plays
// and forfeits could have produced.
func (Game) RestoreBoard(snapshot entity.BoardSnapshot) (entity.Board, error) {
	board, err := restore(snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}

	return board, nil
}

func restore(snapshot entity.BoardSnapshot) (Board, error) {
	if !snapshot.Player1.IsColor() {
		return Board{}, fmt.Errorf("player1 color %q", snapshot.Player1)
	}

	if snapshot.Player2 != snapshot.Player1.Other() {
		return Board{}, fmt.Errorf("player2 color %q does not oppose %q", snapshot.Player2, snapshot.Player1)
	}

	if !snapshot.Turn.IsColor() {
		return Board{}, fmt.Errorf("turn %q", snapshot.Turn)
	}

	board := NewBoard(snapshot.Player1, snapshot.Turn)

	if len(snapshot.Positions) != len(board.cells) {
		return Board{}, fmt.Errorf("want %d positions, got %d", len(board.cells), len(snapshot.Positions))
	}

	seen := make(map[entity.Square]bool, len(snapshot.Positions))
	occupied := 0
	for _, position := range snapshot.Positions {
		if !position.Square.Within(Dimension) {
			return Board{}, fmt.Errorf("position %s is outside the board", position)
		}

		if seen[position.Square] {
			return Board{}, fmt.Errorf("square %s appears twice", position.Square)
		}
		seen[position.Square] = true

		if position.Occupant != entity.Empty {
			if !position.Occupant.IsColor() {
				return Board{}, fmt.Errorf("position %s has unknown occupant", position)
			}
			occupied++
		}

		board.cells[index(position.Square)] = position.Occupant
	}

	if len(snapshot.Moves) > occupied {
		return Board{}, fmt.Errorf("%d moves for %d occupied squares", len(snapshot.Moves), occupied)
	}

	played := make(map[entity.Square]bool, len(snapshot.Moves))
	for _, move := range snapshot.Moves {
		if !move.Player.IsColor() || !move.Square.Within(Dimension) {
			return Board{}, fmt.Errorf("move %s is malformed", move)
		}

		if played[move.Square] || board.cells[index(move.Square)] != move.Player {
			return Board{}, fmt.Errorf("move %s does not match the positions", move)
		}
		played[move.Square] = true
	}

	if len(snapshot.Moves) > 0 {
		board.moves = append([]entity.Move(nil), snapshot.Moves...)
	}

	if err := restoreOutcome(&board, snapshot); err != nil {
		return Board{}, err
	}

	return board, nil
}

func restoreOutcome(board *Board, snapshot entity.BoardSnapshot) error {
	result := checkGameStatus(board.cells)

	switch snapshot.Status {
	case entity.BoardRunning:
		if result != entity.Empty {
			return errors.New("running board is already decided")
		}
	case entity.BoardDraw:
		if result != playerTie {
			return errors.New("draw board is not a full board without a winning line")
		}
	case entity.BoardWin:
		if !snapshot.Winner.IsColor() {
			return errors.New("win board has no winner")
		}
		// a forfeit may end the game without a line, but a line always belongs to the winner
		if result.IsColor() && result != snapshot.Winner {
			return fmt.Errorf("winning line belongs to %s, not %s", result, snapshot.Winner)
		}
		board.winner = snapshot.Winner
	default:
		return fmt.Errorf("unknown board status %v", snapshot.Status)
	}

	board.status = snapshot.Status

	return nil
}
