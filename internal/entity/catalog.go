package entity

import (
	"errors"
	"fmt"
	"math/rand/v2"
)

// MatchType selects which game's rules a match is played with.
type MatchType string

const TicTacToe MatchType = "TIC_TAC_TOE"

var ErrUnknownMatchType = errors.New("unknown match type")

// Coin returns true or false with equal probability. It decides color assignment and first turn.
type Coin func() bool

func RandomCoin() bool {
	return rand.IntN(2) == 0 //nolint: gosec // it's ok
}

// Catalog holds the rules of every playable match type.
type Catalog struct {
	games map[MatchType]Game
	coin  Coin
}

func NewCatalog(coin Coin) *Catalog {
	if coin == nil {
		coin = RandomCoin
	}

	return &Catalog{
		games: make(map[MatchType]Game),
		coin:  coin,
	}
}

// Register adds the rules for a match type. It is meant to be called during wiring only.
func (that *Catalog) Register(matchType MatchType, game Game) *Catalog {
	that.games[matchType] = game
	return that
}

func (that *Catalog) Game(matchType MatchType) (Game, error) {
	game, ok := that.games[matchType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatchType, matchType)
	}

	return game, nil
}

// Supports reports whether matchType has registered rules.
func (that *Catalog) Supports(matchType MatchType) bool {
	_, ok := that.games[matchType]
	return ok
}

// StartGame creates a waiting match of the given type for player1.
func (that *Catalog) StartGame(id string, player1 int64, matchType MatchType) (Match, error) {
	game, err := that.Game(matchType)
	if err != nil {
		return Match{}, err
	}

	return StartGame(id, player1, matchType, game, that.coin), nil
}

// RestoreBoard rebuilds a board of the given type from persisted data.
func (that *Catalog) RestoreBoard(matchType MatchType, snapshot BoardSnapshot) (Board, error) {
	game, err := that.Game(matchType)
	if err != nil {
		return nil, err
	}

	board, err := game.RestoreBoard(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to restore %s board: %w", matchType, err)
	}

	return board, nil
}
