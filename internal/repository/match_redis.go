package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/wire"
)

const matchSeqKey = "match:seq"

// RedisMatchRepository stores matches as JSON records under "match:<id>". Writes run inside
// WATCH/MULTI so a concurrent change to the record or a user index aborts the transaction.
type RedisMatchRepository struct {
	client *redis.Client
	codec  *wire.Codec
}

func NewRedisMatchRepository(client *redis.Client, codec *wire.Codec) *RedisMatchRepository {
	return &RedisMatchRepository{
		client: client,
		codec:  codec,
	}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func matchKey(id string) string {
	return "match:" + id
}

func userKey(userID int64) string {
	return "match:user:" + strconv.FormatInt(userID, 10)
}

func waitingKey(matchType entity.MatchType) string {
	return "match:waiting:" + string(matchType)
}

func (that *RedisMatchRepository) Add(ctx context.Context, match entity.Match) error {
	record, err := json.Marshal(wire.EncodeMatch(match))
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	users := activeUsers(match)
	keys := []string{matchKey(match.ID)}
	for _, userID := range users {
		keys = append(keys, userKey(userID))
	}

	err = that.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("failed to check match keys: %w", err)
		}

		if exists > 0 {
			found, err := tx.Exists(ctx, matchKey(match.ID)).Result()
			if err != nil {
				return fmt.Errorf("failed to check match key: %w", err)
			}

			if found > 0 {
				return ErrMatchExists
			}
			return ErrUserHasActiveMatch
		}

		seq, err := tx.Incr(ctx, matchSeqKey).Result()
		if err != nil {
			return fmt.Errorf("failed to allocate match sequence: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, matchKey(match.ID), record, 0)
			for _, userID := range users {
				pipe.Set(ctx, userKey(userID), match.ID, 0)
			}

			if match.State == entity.StateWaiting {
				pipe.ZAdd(ctx, waitingKey(match.Type), redis.Z{Score: float64(seq), Member: match.ID})
			}

			return nil
		})

		return err
	}, keys...)

	return txError("add", err)
}

func (that *RedisMatchRepository) GetByID(ctx context.Context, id string) (entity.Match, error) {
	return that.get(ctx, that.client, id)
}

func (that *RedisMatchRepository) GetActiveByUser(ctx context.Context, userID int64) (entity.Match, error) {
	id, err := that.client.Get(ctx, userKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return entity.Match{}, ErrMatchNotFound
	}

	if err != nil {
		return entity.Match{}, fmt.Errorf("failed to get match of user: %w", err)
	}

	return that.get(ctx, that.client, id)
}

func (that *RedisMatchRepository) GetWaitingByType(ctx context.Context, matchType entity.MatchType) (entity.Match, error) {
	ids, err := that.client.ZRange(ctx, waitingKey(matchType), 0, 0).Result()
	if err != nil {
		return entity.Match{}, fmt.Errorf("failed to get waiting match: %w", err)
	}

	if len(ids) == 0 {
		return entity.Match{}, ErrMatchNotFound
	}

	return that.get(ctx, that.client, ids[0])
}

func (that *RedisMatchRepository) Update(ctx context.Context, next entity.Match) error {
	record, err := json.Marshal(wire.EncodeMatch(next))
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	keys := []string{matchKey(next.ID), userKey(next.Player1)}
	if next.HasPlayer2() {
		keys = append(keys, userKey(next.Player2))
	}

	err = that.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := that.get(ctx, tx, next.ID)
		if err != nil {
			return err
		}

		if current.Version != next.Version-1 {
			return ErrVersionConflict
		}

		if joined := joinedUser(current, next); joined != entity.NoUser {
			busy, err := tx.Exists(ctx, userKey(joined)).Result()
			if err != nil {
				return fmt.Errorf("failed to check user index: %w", err)
			}
			if busy > 0 {
				return ErrUserHasActiveMatch
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, matchKey(next.ID), record, 0)

			for _, userID := range activeUsers(current) {
				pipe.Del(ctx, userKey(userID))
			}
			for _, userID := range activeUsers(next) {
				pipe.Set(ctx, userKey(userID), next.ID, 0)
			}

			if next.State != entity.StateWaiting {
				pipe.ZRem(ctx, waitingKey(next.Type), next.ID)
			}

			return nil
		})

		return err
	}, keys...)

	return txError("update", err)
}

func (that *RedisMatchRepository) CancelSearch(ctx context.Context, match entity.Match) error {
	err := that.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := that.get(ctx, tx, match.ID)
		if err != nil {
			return err
		}

		if current.Version != match.Version || current.State != entity.StateWaiting {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, matchKey(match.ID))
			for _, userID := range activeUsers(current) {
				pipe.Del(ctx, userKey(userID))
			}
			pipe.ZRem(ctx, waitingKey(current.Type), match.ID)

			return nil
		})

		return err
	}, matchKey(match.ID))

	return txError("cancel", err)
}

func (that *RedisMatchRepository) get(ctx context.Context, client stringGetter, id string) (entity.Match, error) {
	response, err := client.Get(ctx, matchKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return entity.Match{}, ErrMatchNotFound
	}

	if err != nil {
		return entity.Match{}, fmt.Errorf("failed to get match by id: %w", err)
	}

	var dto wire.Match
	if err = json.Unmarshal([]byte(response), &dto); err != nil {
		return entity.Match{}, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	match, err := that.codec.DecodeMatch(dto)
	if err != nil {
		return entity.Match{}, fmt.Errorf("failed to decode match %s: %w", id, err)
	}

	return match, nil
}

// txError maps an aborted transaction to ErrVersionConflict and leaves repository errors as they are.
func txError(operation string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.TxFailedErr):
		return ErrVersionConflict
	case errors.Is(err, ErrMatchNotFound),
		errors.Is(err, ErrMatchExists),
		errors.Is(err, ErrVersionConflict),
		errors.Is(err, ErrUserHasActiveMatch):
		return err
	default:
		return fmt.Errorf("failed to %s match: %w", operation, err)
	}
}
