package entity

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
)

// MatchState is the lifecycle state of a match.
type MatchState string

const (
	StateWaiting MatchState = "WAITING"
	StateRunning MatchState = "RUNNING"
	StateWin     MatchState = "WIN"
	StateDraw    MatchState = "DRAW"
)

// NoUser marks an absent player2 or winner. User ids are always positive.
const NoUser int64 = 0

func ParseMatchState(value string) (MatchState, error) {
	switch state := MatchState(value); state {
	case StateWaiting, StateRunning, StateWin, StateDraw:
		return state, nil
	default:
		return "", fmt.Errorf("unknown match state %q", value)
	}
}

// IsActive reports whether the match still binds its players.
func (that MatchState) IsActive() bool {
	return that == StateWaiting || that == StateRunning
}

// Match binds two users and a board under a version token. Every transition returns a new value
// with Version incremented by one; the receiver is never modified.
type Match struct {
	ID      string
	Type    MatchType
	Board   Board
	Player1 int64
	Player2 int64
	State   MatchState
	Version int64
	Winner  int64
}

// StartGame creates a waiting match. The coin decides player1's color and which color moves first.
func StartGame(id string, player1 int64, matchType MatchType, game Game, coin Coin) Match {
	player1Color := White
	if coin() {
		player1Color = Black
	}

	turn := White
	if coin() {
		turn = Black
	}

	return Match{
		ID:      id,
		Type:    matchType,
		Board:   game.NewBoard(player1Color, turn),
		Player1: player1,
		Player2: NoUser,
		State:   StateWaiting,
		Version: 0,
		Winner:  NoUser,
	}
}

func (that Match) HasPlayer2() bool {
	return that.Player2 != NoUser
}

func (that Match) HasUser(userID int64) bool {
	return userID != NoUser && (that.Player1 == userID || that.Player2 == userID)
}

// ColorOf maps a participant to the color it plays.
func (that Match) ColorOf(userID int64) (Player, bool) {
	switch {
	case userID == NoUser:
		return Empty, false
	case userID == that.Player1:
		return that.Board.Player1(), true
	case userID == that.Player2:
		return that.Board.Player2(), true
	default:
		return Empty, false
	}
}

// UserOf maps a color to the participant playing it, or NoUser.
func (that Match) UserOf(color Player) int64 {
	switch color {
	case that.Board.Player1():
		return that.Player1
	case that.Board.Player2():
		return that.Player2
	default:
		return NoUser
	}
}

// Join seats player2 and starts the match.
func (that Match) Join(player2 int64) (Match, error) {
	if that.State != StateWaiting {
		return Match{}, apperror.ErrMatchNotInWaitingState
	}

	next := that
	next.Player2 = player2
	next.State = StateRunning
	next.Version++

	return next, nil
}

// Play applies a move through the board rules. Callers must already have checked that the move
// belongs to the acting user.
func (that Match) Play(move Move) (Match, error) {
	if that.State == StateWaiting {
		return Match{}, ErrMatchNotStarted
	}

	board, err := that.Board.Play(move)
	if err != nil {
		return Match{}, err
	}

	return that.advance(board), nil
}

// Forfeit ends the match in favour of the opponent of userID.
func (that Match) Forfeit(userID int64) (Match, error) {
	color, ok := that.ColorOf(userID)
	if !ok {
		return Match{}, apperror.ErrUserNotInThisMatch
	}

	switch that.State {
	case StateWaiting:
		return Match{}, ErrMatchNotStarted
	case StateWin, StateDraw:
		return Match{}, ErrGameOver
	case StateRunning:
	}

	return that.advance(that.Board.Forfeit(color)), nil
}

func (that Match) advance(board Board) Match {
	next := that
	next.Board = board
	next.State = StateFor(board)
	next.Winner = NoUser
	if next.State == StateWin {
		next.Winner = that.UserOf(board.Winner())
	}
	next.Version++

	return next
}

// StateFor derives the match state of a started match from its board variant.
func StateFor(board Board) MatchState {
	switch board.Status() {
	case BoardWin:
		return StateWin
	case BoardDraw:
		return StateDraw
	case BoardRunning:
		return StateRunning
	}

	panic(fmt.Sprintf("unexpected board status %v", board.Status()))
}
