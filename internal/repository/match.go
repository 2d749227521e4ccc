package repository

import (
	"context"
	"errors"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchExists        = errors.New("match already exists")
	ErrVersionConflict    = errors.New("match version conflict")
	ErrUserHasActiveMatch = errors.New("user already has an active match")
)

// MatchRepository stores matches. Every write is conditional: Update and CancelSearch only apply
// against the version the caller computed from, and a user never has more than one active match.
type MatchRepository interface {
	// Add stores a new match and indexes its users.
	Add(ctx context.Context, match entity.Match) error

	GetByID(ctx context.Context, id string) (entity.Match, error)

	// GetActiveByUser returns the WAITING or RUNNING match the user takes part in.
	GetActiveByUser(ctx context.Context, userID int64) (entity.Match, error)

	// GetWaitingByType returns the oldest WAITING match of matchType.
	GetWaitingByType(ctx context.Context, matchType entity.MatchType) (entity.Match, error)

	// Update replaces the stored match if its version is next.Version-1.
	Update(ctx context.Context, next entity.Match) error

	// CancelSearch removes a WAITING match if its stored version equals match.Version.
	CancelSearch(ctx context.Context, match entity.Match) error
}

// activeUsers lists the users a match binds while it is active.
func activeUsers(match entity.Match) []int64 {
	if !match.State.IsActive() {
		return nil
	}

	if match.HasPlayer2() {
		return []int64{match.Player1, match.Player2}
	}

	return []int64{match.Player1}
}

// joinedUser returns player2 when next seats it, or NoUser.
func joinedUser(current, next entity.Match) int64 {
	if next.HasPlayer2() && !current.HasPlayer2() {
		return next.Player2
	}

	return entity.NoUser
}
