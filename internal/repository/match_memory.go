package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
)

// MemoryMatchRepository keeps matches in process memory with an index per user and per match type.
type MemoryMatchRepository struct {
	mu sync.RWMutex

	matches map[string]entity.Match

	// active match id of every user bound by a WAITING or RUNNING match
	byUser map[int64]string

	// waiting match ids per type, oldest first
	waiting map[entity.MatchType][]string
}

func NewMemoryMatchRepository() *MemoryMatchRepository {
	return &MemoryMatchRepository{
		matches: make(map[string]entity.Match),
		byUser:  make(map[int64]string),
		waiting: make(map[entity.MatchType][]string),
	}
}

func (that *MemoryMatchRepository) Add(_ context.Context, match entity.Match) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches[match.ID]; ok {
		return ErrMatchExists
	}

	users := activeUsers(match)
	for _, userID := range users {
		if _, ok := that.byUser[userID]; ok {
			return ErrUserHasActiveMatch
		}
	}

	that.matches[match.ID] = match
	for _, userID := range users {
		that.byUser[userID] = match.ID
	}

	if match.State == entity.StateWaiting {
		that.waiting[match.Type] = append(that.waiting[match.Type], match.ID)
	}

	return nil
}

func (that *MemoryMatchRepository) GetByID(_ context.Context, id string) (entity.Match, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	match, ok := that.matches[id]
	if !ok {
		return entity.Match{}, ErrMatchNotFound
	}

	return match, nil
}

func (that *MemoryMatchRepository) GetActiveByUser(_ context.Context, userID int64) (entity.Match, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	id, ok := that.byUser[userID]
	if !ok {
		return entity.Match{}, ErrMatchNotFound
	}

	return that.matches[id], nil
}

func (that *MemoryMatchRepository) GetWaitingByType(_ context.Context, matchType entity.MatchType) (entity.Match, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	ids := that.waiting[matchType]
	if len(ids) == 0 {
		return entity.Match{}, ErrMatchNotFound
	}

	return that.matches[ids[0]], nil
}

func (that *MemoryMatchRepository) Update(_ context.Context, next entity.Match) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.matches[next.ID]
	if !ok {
		return ErrMatchNotFound
	}

	if current.Version != next.Version-1 {
		return ErrVersionConflict
	}

	if joined := joinedUser(current, next); joined != entity.NoUser {
		if _, busy := that.byUser[joined]; busy {
			return ErrUserHasActiveMatch
		}
	}

	that.matches[next.ID] = next
	that.reindex(current, next)

	return nil
}

func (that *MemoryMatchRepository) CancelSearch(_ context.Context, match entity.Match) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.matches[match.ID]
	if !ok {
		return ErrMatchNotFound
	}

	if current.Version != match.Version || current.State != entity.StateWaiting {
		return ErrVersionConflict
	}

	delete(that.matches, match.ID)
	for _, userID := range activeUsers(current) {
		delete(that.byUser, userID)
	}
	that.removeWaiting(current)

	return nil
}

// reindex moves the user and waiting indexes from current to next. The caller holds the lock.
func (that *MemoryMatchRepository) reindex(current, next entity.Match) {
	for _, userID := range activeUsers(current) {
		delete(that.byUser, userID)
	}

	for _, userID := range activeUsers(next) {
		that.byUser[userID] = next.ID
	}

	if current.State == entity.StateWaiting && next.State != entity.StateWaiting {
		that.removeWaiting(current)
	}
}

func (that *MemoryMatchRepository) removeWaiting(match entity.Match) {
	ids := slices.DeleteFunc(that.waiting[match.Type], func(id string) bool {
		return id == match.ID
	})

	if len(ids) == 0 {
		delete(that.waiting, match.Type)
		return
	}

	that.waiting[match.Type] = ids
}
