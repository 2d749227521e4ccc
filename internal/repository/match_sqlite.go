package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-matches/internal/entity"
	"github.com/rocketscienceinc/tictactoe-matches/internal/wire"
)

// SQLiteMatchRepository stores matches in the matches table. Each row keeps the indexed columns
// next to the wire record; updates are guarded by "WHERE version = ?".
type SQLiteMatchRepository struct {
	conn  *sql.DB
	codec *wire.Codec
}

func NewSQLiteMatchRepository(conn *sql.DB, codec *wire.Codec) *SQLiteMatchRepository {
	return &SQLiteMatchRepository{
		conn:  conn,
		codec: codec,
	}
}

const activeMatchQuery = `SELECT record FROM matches
	WHERE state IN ('WAITING', 'RUNNING') AND (player1 = ? OR player2 = ?)
	LIMIT 1`

func (that *SQLiteMatchRepository) Add(ctx context.Context, match entity.Match) error {
	record, err := json.Marshal(wire.EncodeMatch(match))
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	return that.inTx(ctx, "add", func(tx *sql.Tx) error {
		for _, userID := range activeUsers(match) {
			if err := that.ensureFree(ctx, tx, userID); err != nil {
				return err
			}
		}

		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE id = ?`, match.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("can't check match: %w", err)
		}
		if exists > 0 {
			return ErrMatchExists
		}

		query := `INSERT INTO matches (id, match_type, state, player1, player2, version, record)
			VALUES (?, ?, ?, ?, ?, ?, ?)`

		_, err = tx.ExecContext(ctx, query,
			match.ID, string(match.Type), string(match.State),
			match.Player1, nullableUser(match.Player2), match.Version, string(record))
		if err != nil {
			return fmt.Errorf("can't save match: %w", err)
		}

		return nil
	})
}

func (that *SQLiteMatchRepository) GetByID(ctx context.Context, id string) (entity.Match, error) {
	return that.scan(that.conn.QueryRowContext(ctx, `SELECT record FROM matches WHERE id = ?`, id))
}

func (that *SQLiteMatchRepository) GetActiveByUser(ctx context.Context, userID int64) (entity.Match, error) {
	return that.scan(that.conn.QueryRowContext(ctx, activeMatchQuery, userID, userID))
}

func (that *SQLiteMatchRepository) GetWaitingByType(ctx context.Context, matchType entity.MatchType) (entity.Match, error) {
	query := `SELECT record FROM matches
		WHERE match_type = ? AND state = 'WAITING'
		ORDER BY seq
		LIMIT 1`

	return that.scan(that.conn.QueryRowContext(ctx, query, string(matchType)))
}

func (that *SQLiteMatchRepository) Update(ctx context.Context, next entity.Match) error {
	record, err := json.Marshal(wire.EncodeMatch(next))
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	return that.inTx(ctx, "update", func(tx *sql.Tx) error {
		current, err := that.scan(tx.QueryRowContext(ctx, `SELECT record FROM matches WHERE id = ?`, next.ID))
		if err != nil {
			return err
		}

		if current.Version != next.Version-1 {
			return ErrVersionConflict
		}

		if joined := joinedUser(current, next); joined != entity.NoUser {
			if err = that.ensureFree(ctx, tx, joined); err != nil {
				return err
			}
		}

		query := `UPDATE matches SET state = ?, player2 = ?, version = ?, record = ?
			WHERE id = ? AND version = ?`

		result, err := tx.ExecContext(ctx, query,
			string(next.State), nullableUser(next.Player2), next.Version, string(record),
			next.ID, next.Version-1)
		if err != nil {
			return fmt.Errorf("can't update match: %w", err)
		}

		return expectOneRow(result)
	})
}

func (that *SQLiteMatchRepository) CancelSearch(ctx context.Context, match entity.Match) error {
	return that.inTx(ctx, "cancel", func(tx *sql.Tx) error {
		if _, err := that.scan(tx.QueryRowContext(ctx, `SELECT record FROM matches WHERE id = ?`, match.ID)); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM matches WHERE id = ? AND version = ? AND state = 'WAITING'`,
			match.ID, match.Version)
		if err != nil {
			return fmt.Errorf("can't delete match: %w", err)
		}

		return expectOneRow(result)
	})
}

func (that *SQLiteMatchRepository) ensureFree(ctx context.Context, tx *sql.Tx, userID int64) error {
	_, err := that.scan(tx.QueryRowContext(ctx, activeMatchQuery, userID, userID))
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return nil
	case err != nil:
		return err
	default:
		return ErrUserHasActiveMatch
	}
}

func (that *SQLiteMatchRepository) scan(row *sql.Row) (entity.Match, error) {
	var record string

	err := row.Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.Match{}, ErrMatchNotFound
	}
	if err != nil {
		return entity.Match{}, fmt.Errorf("can't find match: %w", err)
	}

	var dto wire.Match
	if err = json.Unmarshal([]byte(record), &dto); err != nil {
		return entity.Match{}, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	match, err := that.codec.DecodeMatch(dto)
	if err != nil {
		return entity.Match{}, fmt.Errorf("failed to decode match %s: %w", dto.ID, err)
	}

	return match, nil
}

func (that *SQLiteMatchRepository) inTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) error {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("can't begin %s transaction: %w", operation, err)
	}

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("can't commit %s transaction: %w", operation, err)
	}

	return nil
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't read affected rows: %w", err)
	}

	if affected != 1 {
		return ErrVersionConflict
	}

	return nil
}

func nullableUser(userID int64) sql.NullInt64 {
	return sql.NullInt64{Int64: userID, Valid: userID != entity.NoUser}
}
