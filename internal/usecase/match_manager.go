package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/repository"
)

// maxAttempts bounds how often a write lost to a concurrent writer is recomputed.
const maxAttempts = 3

// maxEnterAttempts bounds matchmaking retries. Every lost join means another user was seated.
const maxEnterAttempts = 8

type matchRepo interface {
	Add(ctx context.Context, match entity.Match) error
	GetByID(ctx context.Context, id string) (entity.Match, error)
	GetActiveByUser(ctx context.Context, userID int64) (entity.Match, error)
	GetWaitingByType(ctx context.Context, matchType entity.MatchType) (entity.Match, error)
	Update(ctx context.Context, next entity.Match) error
	CancelSearch(ctx context.Context, match entity.Match) error
}

type userChecker interface {
	Exists(ctx context.Context, userID int64) error
}

// matchStarter is satisfied by *entity.Catalog.
type matchStarter interface {
	Supports(matchType entity.MatchType) bool
	StartGame(id string, player1 int64, matchType entity.MatchType) (entity.Match, error)
}

// MatchManager runs matchmaking and applies moves and forfeits on behalf of users.
type MatchManager struct {
	logger *slog.Logger

	matchRepo matchRepo
	users     userChecker
	games     matchStarter

	newID func() string

	// serializes find-or-create per match type
	lobby *keyedMutex
}

func NewMatchManager(logger *slog.Logger, matchRepo matchRepo, users userChecker, games matchStarter) *MatchManager {
	return &MatchManager{
		logger: logger.With("component", "MatchManager"),

		matchRepo: matchRepo,
		users:     users,
		games:     games,

		newID: uuid.NewString,
		lobby: newKeyedMutex(),
	}
}

// EnterMatch joins the oldest waiting match of matchType, or opens a new one when none waits.
func (that *MatchManager) EnterMatch(ctx context.Context, userID int64, matchType entity.MatchType) (entity.Match, error) {
	log := that.logger.With("method", "EnterMatch", "user_id", userID, "match_type", matchType)

	if err := that.users.Exists(ctx, userID); err != nil {
		return entity.Match{}, that.userError(err)
	}

	if !that.games.Supports(matchType) {
		return entity.Match{}, fmt.Errorf("%w: %q", entity.ErrUnknownMatchType, matchType)
	}

	unlock := that.lobby.Lock(string(matchType))
	defer unlock()

	for range maxEnterAttempts {
		match, err := that.enterOnce(ctx, userID, matchType)
		if errors.Is(err, errRetry) {
			log.Debug("matchmaking lost a race, retrying")
			continue
		}
		if err != nil {
			return entity.Match{}, err
		}

		if match.State == entity.StateWaiting {
			log.Info("match created", "match_id", match.ID)
		} else {
			log.Info("match joined", "match_id", match.ID, "player1", match.Player1)
		}

		return match, nil
	}

	return entity.Match{}, fmt.Errorf("failed to enter match after %d attempts: %w", maxEnterAttempts, errRetry)
}

var errRetry = errors.New("lost a concurrent write")

func (that *MatchManager) enterOnce(ctx context.Context, userID int64, matchType entity.MatchType) (entity.Match, error) {
	_, err := that.matchRepo.GetActiveByUser(ctx, userID)
	switch {
	case err == nil:
		return entity.Match{}, apperror.ErrUserAlreadyInMatch
	case !errors.Is(err, repository.ErrMatchNotFound):
		return entity.Match{}, fmt.Errorf("failed to get match of user: %w", err)
	}

	waiting, err := that.matchRepo.GetWaitingByType(ctx, matchType)
	switch {
	case err == nil:
		return that.join(ctx, waiting, userID)
	case !errors.Is(err, repository.ErrMatchNotFound):
		return entity.Match{}, fmt.Errorf("failed to get waiting match: %w", err)
	}

	match, err := that.games.StartGame(that.newID(), userID, matchType)
	if err != nil {
		return entity.Match{}, fmt.Errorf("failed to start game: %w", err)
	}

	err = that.matchRepo.Add(ctx, match)
	switch {
	case err == nil:
		return match, nil
	case errors.Is(err, repository.ErrUserHasActiveMatch):
		return entity.Match{}, apperror.ErrUserAlreadyInMatch
	case errors.Is(err, repository.ErrMatchExists), errors.Is(err, repository.ErrVersionConflict):
		return entity.Match{}, errRetry
	default:
		return entity.Match{}, fmt.Errorf("failed to add match: %w", err)
	}
}

func (that *MatchManager) join(ctx context.Context, waiting entity.Match, userID int64) (entity.Match, error) {
	joined, err := waiting.Join(userID)
	if errors.Is(err, apperror.ErrMatchNotInWaitingState) {
		// joined by another instance after it was listed as waiting
		return entity.Match{}, errRetry
	}
	if err != nil {
		return entity.Match{}, err
	}

	err = that.matchRepo.Update(ctx, joined)
	switch {
	case err == nil:
		return joined, nil
	case errors.Is(err, repository.ErrUserHasActiveMatch):
		return entity.Match{}, apperror.ErrUserAlreadyInMatch
	case errors.Is(err, repository.ErrVersionConflict), errors.Is(err, repository.ErrMatchNotFound):
		return entity.Match{}, errRetry
	default:
		return entity.Match{}, fmt.Errorf("failed to join match: %w", err)
	}
}

func (that *MatchManager) GetMatchByID(ctx context.Context, matchID string) (entity.Match, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return entity.Match{}, that.repoError("get match by id", err)
	}

	return match, nil
}

// GetMatchByUser returns the WAITING or RUNNING match of the user.
func (that *MatchManager) GetMatchByUser(ctx context.Context, userID int64) (entity.Match, error) {
	match, err := that.matchRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		return entity.Match{}, that.repoError("get match by user", err)
	}

	return match, nil
}

func (that *MatchManager) GetWaitingMatch(ctx context.Context, matchType entity.MatchType) (entity.Match, error) {
	match, err := that.matchRepo.GetWaitingByType(ctx, matchType)
	if err != nil {
		return entity.Match{}, that.repoError("get waiting match", err)
	}

	return match, nil
}

// GetMatchByVersion fails with VERSION_MISMATCH while the stored match is older than minVersion.
func (that *MatchManager) GetMatchByVersion(ctx context.Context, matchID string, minVersion int64) (entity.Match, error) {
	match, err := that.GetMatchByID(ctx, matchID)
	if err != nil {
		return entity.Match{}, err
	}

	if match.Version < minVersion {
		return entity.Match{}, apperror.ErrVersionMismatch
	}

	return match, nil
}

// PlayMatch applies move for userID if the match is still at expectedVersion. Nothing is written
// unless every check passes.
func (that *MatchManager) PlayMatch(ctx context.Context, matchID string, userID int64, move entity.Move, expectedVersion int64) (entity.Match, error) {
	log := that.logger.With("method", "PlayMatch", "match_id", matchID, "user_id", userID)

	match, err := that.GetMatchByID(ctx, matchID)
	if err != nil {
		return entity.Match{}, err
	}

	color, ok := match.ColorOf(userID)
	if !ok {
		return entity.Match{}, apperror.ErrUserNotInThisMatch
	}

	if match.Version != expectedVersion {
		return entity.Match{}, apperror.ErrVersionMismatch
	}

	if move.Player != color {
		return entity.Match{}, apperror.ErrIncorrectPlayerTypeForThisUser
	}

	next, err := match.Play(move)
	if err != nil {
		return entity.Match{}, fmt.Errorf("failed to play %s: %w", move, err)
	}

	if err = that.matchRepo.Update(ctx, next); err != nil {
		return entity.Match{}, that.repoError("update match", err)
	}

	if !next.State.IsActive() {
		log.Info("match finished", "state", next.State, "winner", next.Winner)
	}

	return next, nil
}

// Forfeit ends a running match in favour of the opponent of userID. It applies to whatever version
// is stored.
func (that *MatchManager) Forfeit(ctx context.Context, matchID string, userID int64) (entity.Match, error) {
	log := that.logger.With("method", "Forfeit", "match_id", matchID, "user_id", userID)

	for range maxAttempts {
		match, err := that.GetMatchByID(ctx, matchID)
		if err != nil {
			return entity.Match{}, err
		}

		next, err := match.Forfeit(userID)
		if err != nil {
			return entity.Match{}, err
		}

		err = that.matchRepo.Update(ctx, next)
		if errors.Is(err, repository.ErrVersionConflict) {
			log.Debug("forfeit lost a race, retrying")
			continue
		}
		if err != nil {
			return entity.Match{}, that.repoError("update match", err)
		}

		log.Info("match forfeited", "winner", next.Winner)

		return next, nil
	}

	return entity.Match{}, apperror.ErrVersionMismatch
}

// CancelSearch removes the waiting match opened by userID.
func (that *MatchManager) CancelSearch(ctx context.Context, userID int64, matchID string) error {
	log := that.logger.With("method", "CancelSearch", "match_id", matchID, "user_id", userID)

	match, err := that.GetMatchByID(ctx, matchID)
	if err != nil {
		return err
	}

	if !match.HasUser(userID) {
		return apperror.ErrUserNotInThisMatch
	}

	if match.State != entity.StateWaiting {
		return apperror.ErrMatchNotInWaitingState
	}

	err = that.matchRepo.CancelSearch(ctx, match)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrVersionConflict):
		// joined in the meantime
		return apperror.ErrMatchNotInWaitingState
	default:
		return that.repoError("cancel search", err)
	}

	log.Info("search cancelled")

	return nil
}

func (that *MatchManager) repoError(action string, err error) error {
	switch {
	case errors.Is(err, repository.ErrMatchNotFound):
		return apperror.ErrMatchNotFound
	case errors.Is(err, repository.ErrVersionConflict):
		return apperror.ErrVersionMismatch
	case errors.Is(err, repository.ErrUserHasActiveMatch):
		return apperror.ErrUserAlreadyInMatch
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}

func (that *MatchManager) userError(err error) error {
	if _, ok := apperror.CodeOf(err); ok {
		return err
	}

	return fmt.Errorf("failed to check user: %w", err)
}

// keyedMutex hands out one mutex per key. Keys are match types, so the map stays small.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (that *keyedMutex) Lock(key string) func() {
	that.mu.Lock()
	lock, ok := that.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		that.locks[key] = lock
	}
	that.mu.Unlock()

	lock.Lock()

	return lock.Unlock
}
