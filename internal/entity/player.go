package entity

import (
	"errors"
	"fmt"
)

// Player is the occupant color of a square. Empty marks an unoccupied square.
type Player string

const (
	Black Player = "BLACK"
	White Player = "WHITE"
	Empty Player = "EMPTY"
)

var ErrUnknownPlayer = errors.New("unknown player")

// Other returns the opposing color. Empty has no opponent and maps to itself.
func (that Player) Other() Player {
	switch that {
	case Black:
		return White
	case White:
		return Black
	default:
		return Empty
	}
}

// IsColor reports whether the player is one of the two playing colors.
func (that Player) IsColor() bool {
	return that == Black || that == White
}

func (that Player) String() string {
	return string(that)
}

func ParsePlayer(value string) (Player, error) {
	switch player := Player(value); player {
	case Black, White, Empty:
		return player, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlayer, value)
	}
}
