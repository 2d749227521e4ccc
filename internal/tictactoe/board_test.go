package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

func play(t *testing.T, board entity.Board, moves ...string) entity.Board {
	t.Helper()

	for _, value := range moves {
		move, err := entity.ParseMove(value)
		require.NoError(t, err)

		board, err = board.Play(move)
		require.NoError(t, err, "move %s", value)
	}

	return board
}

func occupant(board entity.Board, square string) entity.Player {
	for _, position := range board.Positions() {
		if position.Square.String() == square {
			return position.Occupant
		}
	}

	return ""
}

func TestNewBoard(t *testing.T) {
	// When: create a new board where player1 plays black and white moves first
	board := NewBoard(entity.Black, entity.White)

	// Then: the board should be running and empty
	assert.Equal(t, entity.BoardRunning, board.Status())
	assert.Equal(t, entity.Empty, board.Winner())
	assert.Equal(t, entity.White, board.Turn())
	assert.Equal(t, entity.Black, board.Player1())
	assert.Equal(t, entity.White, board.Player2())
	assert.Empty(t, board.Moves())

	// Then: it should hold one empty position per square in row-major order
	positions := board.Positions()
	require.Len(t, positions, Dimension*Dimension)
	for i, square := range entity.Squares(Dimension) {
		assert.Equal(t, entity.Position{Occupant: entity.Empty, Square: square}, positions[i])
	}
}

func TestBoard_Play(t *testing.T) {
	t.Run("Successful move", func(t *testing.T) {
		// Given: a new board with black to move
		board := NewBoard(entity.Black, entity.Black)

		// When: black plays 1a
		next, err := board.Play(entity.Move{Player: entity.Black, Square: entity.Square{Row: 0, Col: 0}})
		require.NoError(t, err)

		// Then: the square is taken, the move recorded and the turn passed
		assert.Equal(t, entity.Black, occupant(next, "1a"))
		assert.Equal(t, entity.White, next.Turn())
		assert.Equal(t, entity.BoardRunning, next.Status())
		assert.Equal(t, []entity.Move{{Player: entity.Black, Square: entity.Square{Row: 0, Col: 0}}}, next.Moves())

		// Then: the original board is untouched
		assert.Equal(t, entity.Empty, occupant(board, "1a"))
		assert.Equal(t, entity.Black, board.Turn())
		assert.Empty(t, board.Moves())
	})

	t.Run("Error on square already occupied", func(t *testing.T) {
		// Given: a board where black holds 1a
		board := play(t, NewBoard(entity.Black, entity.Black), "BLACK,1a")

		// When: white tries to play the same square
		_, err := board.Play(entity.Move{Player: entity.White, Square: entity.Square{Row: 0, Col: 0}})

		// Then: ErrSquareOccupied should be returned
		require.ErrorIs(t, err, entity.ErrSquareOccupied)
		assert.ErrorIs(t, err, entity.ErrIllegalMove)
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		// Given: a new board with black to move
		board := NewBoard(entity.Black, entity.Black)

		// When: white tries to move
		_, err := board.Play(entity.Move{Player: entity.White, Square: entity.Square{Row: 0, Col: 1}})

		// Then: ErrNotYourTurn should be returned
		require.ErrorIs(t, err, entity.ErrNotYourTurn)
	})

	t.Run("Error on square outside the board", func(t *testing.T) {
		board := NewBoard(entity.Black, entity.Black)

		_, err := board.Play(entity.Move{Player: entity.Black, Square: entity.Square{Row: 3, Col: 0}})
		require.ErrorIs(t, err, entity.ErrSquareOutOfRange)

		_, err = board.Play(entity.Move{Player: entity.Black, Square: entity.Square{Row: -1, Col: 0}})
		require.ErrorIs(t, err, entity.ErrSquareOutOfRange)
	})

	t.Run("Three in a row wins", func(t *testing.T) {
		// Given: black is one move away from the top row
		board := play(t, NewBoard(entity.Black, entity.Black), "BLACK,1a", "WHITE,2a", "BLACK,1b", "WHITE,2b")

		// When: black completes the row
		board = play(t, board, "BLACK,1c")

		// Then: the board is a win for black
		assert.Equal(t, entity.BoardWin, board.Status())
		assert.Equal(t, entity.Black, board.Winner())
		assert.Equal(t, entity.White, board.Turn())
		assert.Len(t, board.Moves(), 5)
	})

	t.Run("Diagonal wins", func(t *testing.T) {
		board := play(t, NewBoard(entity.White, entity.White), "WHITE,1c", "BLACK,1a", "WHITE,2b", "BLACK,1b", "WHITE,3a")

		assert.Equal(t, entity.BoardWin, board.Status())
		assert.Equal(t, entity.White, board.Winner())
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		board := play(t, NewBoard(entity.Black, entity.Black),
			"BLACK,1a", "WHITE,1b", "BLACK,1c", "WHITE,2b", "BLACK,3b",
			"WHITE,2c", "BLACK,2a", "WHITE,3a", "BLACK,3c")

		assert.Equal(t, entity.BoardDraw, board.Status())
		assert.Equal(t, entity.Empty, board.Winner())
	})

	t.Run("Move after game finished", func(t *testing.T) {
		// Given: a board black has already won
		board := play(t, NewBoard(entity.Black, entity.Black), "BLACK,1a", "WHITE,2a", "BLACK,1b", "WHITE,2b", "BLACK,1c")

		// When: white tries to move
		_, err := board.Play(entity.Move{Player: entity.White, Square: entity.Square{Row: 2, Col: 2}})

		// Then: ErrGameOver should be returned
		assert.ErrorIs(t, err, entity.ErrGameOver)
	})
}

func TestBoard_Forfeit(t *testing.T) {
	t.Run("Forfeit hands the win to the other color", func(t *testing.T) {
		// Given: a running board with one move
		board := play(t, NewBoard(entity.Black, entity.Black), "BLACK,1a")

		// When: black forfeits
		forfeited := board.Forfeit(entity.Black)

		// Then: white wins and the history is preserved
		assert.Equal(t, entity.BoardWin, forfeited.Status())
		assert.Equal(t, entity.White, forfeited.Winner())
		assert.Equal(t, board.Positions(), forfeited.Positions())
		assert.Equal(t, board.Moves(), forfeited.Moves())

		// Then: the original board keeps running
		assert.Equal(t, entity.BoardRunning, board.Status())
	})

	t.Run("Forfeit on an empty board", func(t *testing.T) {
		forfeited := NewBoard(entity.Black, entity.White).Forfeit(entity.White)

		assert.Equal(t, entity.BoardWin, forfeited.Status())
		assert.Equal(t, entity.Black, forfeited.Winner())
	})
}

func TestGame_checkGameStatus(t *testing.T) {
	const (
		b = entity.Black
		w = entity.White
		e = entity.Empty
	)

	t.Run("Winner black", func(t *testing.T) {
		// Given: black holds the first column
		cells := [9]entity.Player{b, w, e, b, w, e, b, e, e}

		// When: check the game status
		status := checkGameStatus(cells)

		// Then: black should be declared the winner
		require.Equal(t, b, status)
	})

	t.Run("Ongoing game", func(t *testing.T) {
		cells := [9]entity.Player{b, w, b, e, w, e, b, e, e}

		require.Equal(t, e, checkGameStatus(cells))
	})

	t.Run("Tie", func(t *testing.T) {
		cells := [9]entity.Player{w, b, w, w, b, b, b, w, b}

		assert.Equal(t, playerTie, checkGameStatus(cells))
	})
}

func TestGame_RestoreBoard(t *testing.T) {
	game := Game{}

	t.Run("Restores every reachable variant", func(t *testing.T) {
		boards := map[string]entity.Board{
			"new":     NewBoard(entity.White, entity.Black),
			"running": play(t, NewBoard(entity.Black, entity.Black), "BLACK,2b", "WHITE,1a"),
			"win":     play(t, NewBoard(entity.Black, entity.Black), "BLACK,1a", "WHITE,2a", "BLACK,1b", "WHITE,2b", "BLACK,1c"),
			"draw": play(t, NewBoard(entity.Black, entity.Black),
				"BLACK,1a", "WHITE,1b", "BLACK,1c", "WHITE,2b", "BLACK,3b",
				"WHITE,2c", "BLACK,2a", "WHITE,3a", "BLACK,3c"),
			"forfeit": play(t, NewBoard(entity.Black, entity.White), "WHITE,3c").Forfeit(entity.White),
		}

		for name, board := range boards {
			t.Run(name, func(t *testing.T) {
				restored, err := game.RestoreBoard(entity.SnapshotOf(board))
				require.NoError(t, err)
				assert.Equal(t, board, restored)
			})
		}
	})

	t.Run("Rejects a win without winner", func(t *testing.T) {
		snapshot := entity.SnapshotOf(NewBoard(entity.Black, entity.Black).Forfeit(entity.Black))
		snapshot.Winner = entity.Empty

		_, err := game.RestoreBoard(snapshot)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("Rejects a running board with a winning line", func(t *testing.T) {
		snapshot := entity.SnapshotOf(play(t, NewBoard(entity.Black, entity.Black), "BLACK,1a", "WHITE,2a", "BLACK,1b", "WHITE,2b", "BLACK,1c"))
		snapshot.Status = entity.BoardRunning
		snapshot.Winner = entity.Empty

		_, err := game.RestoreBoard(snapshot)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("Rejects duplicated squares", func(t *testing.T) {
		snapshot := entity.SnapshotOf(NewBoard(entity.Black, entity.Black))
		snapshot.Positions[1] = snapshot.Positions[0]

		_, err := game.RestoreBoard(snapshot)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("Rejects a missing position", func(t *testing.T) {
		snapshot := entity.SnapshotOf(NewBoard(entity.Black, entity.Black))
		snapshot.Positions = snapshot.Positions[:8]

		_, err := game.RestoreBoard(snapshot)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})

	t.Run("Rejects moves that do not match the positions", func(t *testing.T) {
		snapshot := entity.SnapshotOf(play(t, NewBoard(entity.Black, entity.Black), "BLACK,1a"))
		snapshot.Moves[0].Square = entity.Square{Row: 2, Col: 2}

		_, err := game.RestoreBoard(snapshot)
		require.ErrorIs(t, err, ErrInvalidSnapshot)
	})
}
