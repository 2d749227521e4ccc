// Package wire translates matches and boards to and from the encoding exchanged with clients and
// persisted by the redis and sqlite repositories.
//
// Positions and moves are encoded as "<PLAYER>,<SQUARE>" strings, e.g. "BLACK,1a".
package wire

import (
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

var ErrMalformed = errors.New("malformed wire data")

type Board struct {
	Winner    *string  `json:"winner"`
	Turn      string   `json:"turn"`
	Positions []string `json:"positions"`
	Moves     []string `json:"moves"`
}

type Match struct {
	ID          string `json:"id"`
	MatchType   string `json:"matchType"`
	State       string `json:"state"`
	Version     int64  `json:"version"`
	Player1     int64  `json:"player1"`
	Player2     *int64 `json:"player2"`
	Winner      *int64 `json:"winner"`
	Player1Type string `json:"player1Type"`
	Player2Type string `json:"player2Type"`
	Board       Board  `json:"board"`
}

// boardRestorer is satisfied by *entity.Catalog.
type boardRestorer interface {
	RestoreBoard(matchType entity.MatchType, snapshot entity.BoardSnapshot) (entity.Board, error)
}

type Codec struct {
	boards boardRestorer
}

func NewCodec(boards boardRestorer) *Codec {
	return &Codec{boards: boards}
}

func EncodeBoard(board entity.Board) Board {
	dto := Board{
		Turn:      board.Turn().String(),
		Positions: make([]string, 0, len(board.Positions())),
		Moves:     make([]string, 0, len(board.Moves())),
	}

	if board.Status() == entity.BoardWin {
		winner := board.Winner().String()
		dto.Winner = &winner
	}

	for _, position := range board.Positions() {
		dto.Positions = append(dto.Positions, position.String())
	}

	for _, move := range board.Moves() {
		dto.Moves = append(dto.Moves, move.String())
	}

	return dto
}

func EncodeMatch(match entity.Match) Match {
	dto := Match{
		ID:          match.ID,
		MatchType:   string(match.Type),
		State:       string(match.State),
		Version:     match.Version,
		Player1:     match.Player1,
		Player1Type: match.Board.Player1().String(),
		Player2Type: match.Board.Player2().String(),
		Board:       EncodeBoard(match.Board),
	}

	if match.HasPlayer2() {
		player2 := match.Player2
		dto.Player2 = &player2
	}

	if match.State == entity.StateWin {
		winner := match.Winner
		dto.Winner = &winner
	}

	return dto
}

// DecodeBoard rebuilds a board of matchType. The variant is selected by state; a WIN state
// without a winner is rejected.
func (that *Codec) DecodeBoard(matchType entity.MatchType, state entity.MatchState, player1 entity.Player, dto Board) (entity.Board, error) {
	snapshot, err := decodeSnapshot(state, player1, dto)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	board, err := that.boards.RestoreBoard(matchType, snapshot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return board, nil
}

func (that *Codec) DecodeMatch(dto Match) (entity.Match, error) {
	state, err := entity.ParseMatchState(dto.State)
	if err != nil {
		return entity.Match{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	player1, err := entity.ParsePlayer(dto.Player1Type)
	if err != nil {
		return entity.Match{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err = checkParticipants(state, dto); err != nil {
		return entity.Match{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	matchType := entity.MatchType(dto.MatchType)

	board, err := that.DecodeBoard(matchType, state, player1, dto.Board)
	if err != nil {
		return entity.Match{}, err
	}

	match := entity.Match{
		ID:      dto.ID,
		Type:    matchType,
		Board:   board,
		Player1: dto.Player1,
		Player2: entity.NoUser,
		State:   state,
		Version: dto.Version,
		Winner:  entity.NoUser,
	}

	if dto.Player2 != nil {
		match.Player2 = *dto.Player2
	}

	if dto.Winner != nil {
		match.Winner = *dto.Winner
	}

	return match, nil
}

func checkParticipants(state entity.MatchState, dto Match) error {
	switch {
	case dto.ID == "":
		return errors.New("match id is empty")
	case dto.Version < 0:
		return fmt.Errorf("negative version %d", dto.Version)
	case dto.Player1 <= 0:
		return fmt.Errorf("invalid player1 %d", dto.Player1)
	case (state == entity.StateWaiting) != (dto.Player2 == nil):
		return fmt.Errorf("state %s with player2 %v", state, dto.Player2)
	case (state == entity.StateWin) != (dto.Winner != nil):
		return fmt.Errorf("state %s with winner %v", state, dto.Winner)
	}

	return nil
}

func decodeSnapshot(state entity.MatchState, player1 entity.Player, dto Board) (entity.BoardSnapshot, error) {
	turn, err := entity.ParsePlayer(dto.Turn)
	if err != nil {
		return entity.BoardSnapshot{}, err
	}

	snapshot := entity.BoardSnapshot{
		Turn:      turn,
		Winner:    entity.Empty,
		Player1:   player1,
		Player2:   player1.Other(),
		Positions: make([]entity.Position, 0, len(dto.Positions)),
	}

	switch state {
	case entity.StateWaiting, entity.StateRunning:
		snapshot.Status = entity.BoardRunning
	case entity.StateDraw:
		snapshot.Status = entity.BoardDraw
	case entity.StateWin:
		if dto.Winner == nil {
			return entity.BoardSnapshot{}, errors.New("WIN state without winner")
		}

		winner, err := entity.ParsePlayer(*dto.Winner)
		if err != nil {
			return entity.BoardSnapshot{}, err
		}

		snapshot.Status = entity.BoardWin
		snapshot.Winner = winner
	default:
		return entity.BoardSnapshot{}, fmt.Errorf("unknown state %q", state)
	}

	for _, value := range dto.Positions {
		position, err := entity.ParsePosition(value)
		if err != nil {
			return entity.BoardSnapshot{}, err
		}
		snapshot.Positions = append(snapshot.Positions, position)
	}

	for _, value := range dto.Moves {
		move, err := entity.ParseMove(value)
		if err != nil {
			return entity.BoardSnapshot{}, err
		}
		snapshot.Moves = append(snapshot.Moves, move)
	}

	return snapshot, nil
}
