package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/yndnr/blueis/internal/core/domain"
)

const (
	sqlLen          = `SELECT COUNT(*) FROM list_items WHERE key = ?1`
	sqlExists       = `SELECT 1 FROM list_items WHERE key = ?1 LIMIT 1`
	sqlPushLeft     = `INSERT INTO list_items (key, value, position) SELECT ?1, ?2, COALESCE(MIN(position), 0) - 1 FROM list_items WHERE key = ?1`
	sqlPushRight    = `INSERT INTO list_items (key, value, position) SELECT ?1, ?2, COALESCE(MAX(position), 0) + 1 FROM list_items WHERE key = ?1`
	sqlSelectAt     = `SELECT id, value, position FROM list_items WHERE key = ?1 ORDER BY position ASC LIMIT 1 OFFSET ?2`
	sqlRange        = `SELECT value FROM list_items WHERE key = ?1 ORDER BY position ASC LIMIT ?2 OFFSET ?3`
	sqlDeleteID     = `DELETE FROM list_items WHERE id = ?1`
	sqlDeleteAll    = `DELETE FROM list_items WHERE key = ?1`
	sqlDeleteUpTo   = `DELETE FROM list_items WHERE key = ?1 AND position <= ?2`
	sqlDeleteFrom   = `DELETE FROM list_items WHERE key = ?1 AND position >= ?2`
	sqlDeleteOutset = `DELETE FROM list_items WHERE key = ?1 AND (position < ?2 OR position > ?3)`
	sqlUpdateID     = `UPDATE list_items SET value = ?2 WHERE id = ?1`
)

// Keys are bound as text so files written by earlier releases stay readable.
// SQLite compares text with memcmp, so arbitrary bytes are preserved.
func keyArg(key []byte) string {
	return string(key)
}

func popOrder(side domain.Side) string {
	if side == domain.Right {
		return "DESC"
	}
	return "ASC"
}

// moveFault, when set, runs between the delete and the insert of Move.
// Tests use it to fail a move half way through.
var moveFault func() error

// Push appends values to one end of the list in the given order.
func (e *Engine) Push(ctx context.Context, key []byte, side domain.Side, values [][]byte, onlyIfExists bool) (int64, error) {
	var length int64
	err := e.write(ctx, func(tx *sql.Tx) error {
		if onlyIfExists {
			ok, err := exists(ctx, tx, key)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrNoSuchKey
			}
		}

		query := sqlPushLeft
		if side == domain.Right {
			query = sqlPushRight
		}
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, v := range values {
			if _, err := stmt.ExecContext(ctx, keyArg(key), v); err != nil {
				return err
			}
		}

		length, err = countItems(ctx, tx, key)
		return err
	})
	if err != nil {
		return 0, err
	}
	return length, nil
}

// Pop removes up to count elements from one end of the list.
func (e *Engine) Pop(ctx context.Context, key []byte, side domain.Side, count int64) ([][]byte, error) {
	if count <= 0 {
		return nil, nil
	}

	var out [][]byte
	err := e.write(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, fmt.Sprintf(
			`SELECT value, position FROM list_items WHERE key = ?1 ORDER BY position %s LIMIT ?2`, popOrder(side)),
			keyArg(key), count)
		if err != nil {
			return err
		}
		var last int64
		for rows.Next() {
			var v []byte
			if err := rows.Scan(&v, &last); err != nil {
				rows.Close()
				return err
			}
			out = append(out, v)
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(out) == 0 {
			return nil
		}

		del := sqlDeleteUpTo
		if side == domain.Right {
			del = sqlDeleteFrom
		}
		_, err = tx.ExecContext(ctx, del, keyArg(key), last)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Range returns the elements in the inclusive index range [start, stop].
func (e *Engine) Range(ctx context.Context, key []byte, start, stop int64) ([][]byte, error) {
	out := [][]byte{}
	err := e.read(ctx, func(tx *sql.Tx) error {
		n, err := countItems(ctx, tx, key)
		if err != nil {
			return err
		}
		offset, count := domain.NormalizeRange(start, stop, n)
		if count == 0 {
			return nil
		}

		rows, err := tx.QueryContext(ctx, sqlRange, keyArg(key), count, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v []byte
			if err := rows.Scan(&v); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Index returns the element at index.
func (e *Engine) Index(ctx context.Context, key []byte, index int64) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := e.read(ctx, func(tx *sql.Tx) error {
		n, err := countItems(ctx, tx, key)
		if err != nil {
			return err
		}
		offset, ok := domain.NormalizeIndex(index, n)
		if !ok {
			return nil
		}
		var id, pos int64
		if err := tx.QueryRowContext(ctx, sqlSelectAt, keyArg(key), offset).Scan(&id, &value, &pos); err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Len returns the number of elements in the list.
func (e *Engine) Len(ctx context.Context, key []byte) (int64, error) {
	var n int64
	err := e.read(ctx, func(tx *sql.Tx) error {
		var err error
		n, err = countItems(ctx, tx, key)
		return err
	})
	return n, err
}

// Exists reports whether the list has at least one element.
func (e *Engine) Exists(ctx context.Context, key []byte) (bool, error) {
	var ok bool
	err := e.read(ctx, func(tx *sql.Tx) error {
		var err error
		ok, err = exists(ctx, tx, key)
		return err
	})
	return ok, err
}

// Set overwrites the element at index in place.
func (e *Engine) Set(ctx context.Context, key []byte, index int64, value []byte) error {
	return e.write(ctx, func(tx *sql.Tx) error {
		n, err := countItems(ctx, tx, key)
		if err != nil {
			return err
		}
		if n == 0 {
			return domain.ErrNoSuchKey
		}
		offset, ok := domain.NormalizeIndex(index, n)
		if !ok {
			return domain.ErrOutOfRange
		}

		var (
			id, pos int64
			old     []byte
		)
		if err := tx.QueryRowContext(ctx, sqlSelectAt, keyArg(key), offset).Scan(&id, &old, &pos); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, sqlUpdateID, id, value)
		return err
	})
}

// Trim deletes every element outside the inclusive index range [start, stop].
func (e *Engine) Trim(ctx context.Context, key []byte, start, stop int64) error {
	return e.write(ctx, func(tx *sql.Tx) error {
		n, err := countItems(ctx, tx, key)
		if err != nil || n == 0 {
			return err
		}
		offset, count := domain.NormalizeRange(start, stop, n)
		if count == 0 {
			_, err := tx.ExecContext(ctx, sqlDeleteAll, keyArg(key))
			return err
		}
		if count == n {
			return nil
		}

		first, err := positionAt(ctx, tx, key, offset)
		if err != nil {
			return err
		}
		last, err := positionAt(ctx, tx, key, offset+count-1)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, sqlDeleteOutset, keyArg(key), first, last)
		return err
	})
}

// Move pops one element from srcSide of src and pushes it onto dstSide of
// dst in a single transaction. When src equals dst the list is rotated.
func (e *Engine) Move(ctx context.Context, src, dst []byte, srcSide, dstSide domain.Side) ([]byte, bool, error) {
	var (
		value []byte
		moved bool
	)
	err := e.write(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, fmt.Sprintf(
			`SELECT id, value FROM list_items WHERE key = ?1 ORDER BY position %s LIMIT 1`, popOrder(srcSide)),
			keyArg(src)).Scan(&id, &value)
		if errors.Is(err, sql.ErrNoRows) {
			value = nil
			return nil
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, sqlDeleteID, id); err != nil {
			return err
		}
		if moveFault != nil {
			if err := moveFault(); err != nil {
				return err
			}
		}

		query := sqlPushLeft
		if dstSide == domain.Right {
			query = sqlPushRight
		}
		if _, err := tx.ExecContext(ctx, query, keyArg(dst), value); err != nil {
			return err
		}
		moved = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, moved, nil
}

func countItems(ctx context.Context, tx *sql.Tx, key []byte) (int64, error) {
	var n int64
	err := tx.QueryRowContext(ctx, sqlLen, keyArg(key)).Scan(&n)
	return n, err
}

func exists(ctx context.Context, tx *sql.Tx, key []byte) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, sqlExists, keyArg(key)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func positionAt(ctx context.Context, tx *sql.Tx, key []byte, offset int64) (int64, error) {
	var (
		id, pos int64
		v       []byte
	)
	err := tx.QueryRowContext(ctx, sqlSelectAt, keyArg(key), offset).Scan(&id, &v, &pos)
	return pos, err
}
