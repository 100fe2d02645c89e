package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
)

const (
	postgresTableName        = "labelwire_queue"
	postgresOperationTimeout = 5 * time.Second
)

// PostgresStore keeps queue items in a Postgres table, FIFO-ordered by a
// bigserial sequence. It is the external-store alternative to PebbleStore.
type PostgresStore struct {
	dsn string

	initOnce sync.Once
	initErr  error
	db       *sql.DB
	sb       sq.StatementBuilderType
}

// OpenPostgresStore prepares a store for the given DSN. The connection and
// schema are established lazily on first use.
func OpenPostgresStore(dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("queue: empty postgres dsn")
	}
	return &PostgresStore{
		dsn: dsn,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *PostgresStore) ensureReady() error {
	s.initOnce.Do(func() {
		db, err := sql.Open("postgres", s.dsn)
		if err != nil {
			s.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()
		_, err = db.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				seq          BIGSERIAL PRIMARY KEY,
				item_id      TEXT NOT NULL UNIQUE,
				subject      TEXT NOT NULL DEFAULT '',
				source       TEXT NOT NULL DEFAULT '',
				created_at_ms BIGINT NOT NULL DEFAULT 0,
				context      TEXT NOT NULL DEFAULT '',
				labels       TEXT NOT NULL DEFAULT '',
				status       TEXT NOT NULL,
				posted_at_ms BIGINT NOT NULL DEFAULT 0,
				attempts     INT NOT NULL DEFAULT 0
			)`, postgresTableName))
		if err != nil {
			s.initErr = err
			_ = db.Close()
			return
		}
		s.db = db
	})
	return s.initErr
}

func (s *PostgresStore) EnqueueIfAbsent(ctx context.Context, item Item) (bool, error) {
	if item.ID == "" {
		return false, errors.New("queue: empty item id")
	}
	if err := s.ensureReady(); err != nil {
		return false, err
	}
	if item.Status == "" {
		item.Status = StatusQueued
	}

	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query, args, err := s.sb.Insert(postgresTableName).
		Columns("item_id", "subject", "source", "created_at_ms", "context", "labels", "status", "posted_at_ms", "attempts").
		Values(item.ID, item.Subject, item.Source, item.CreatedAtMs, item.Context, item.Labels, string(item.Status), item.PostedAtMs, item.Attempts).
		Suffix("ON CONFLICT (item_id) DO NOTHING").
		ToSql()
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("enqueue %s: %w", item.ID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Item, error) {
	if err := s.ensureReady(); err != nil {
		return Item{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query, args, err := s.selectItems().Where(sq.Eq{"item_id": id}).ToSql()
	if err != nil {
		return Item{}, err
	}
	item, err := scanItem(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return item, err
}

func (s *PostgresStore) FindByStatus(ctx context.Context, status Status) ([]Item, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query, args, err := s.selectItems().
		Where(sq.Eq{"status": string(status)}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, id string, status Status, postedAtMs int64) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	upd := s.sb.Update(postgresTableName).
		Set("status", string(status)).
		Where(sq.Eq{"item_id": id})
	if status == StatusPosted {
		upd = upd.Set("posted_at_ms", postedAtMs).Set("attempts", sq.Expr("attempts + 1"))
	}
	query, args, err := upd.ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *PostgresStore) SetLabels(ctx context.Context, id, labels string) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query, args, err := s.sb.Update(postgresTableName).
		Set("labels", labels).
		Where(sq.Eq{"item_id": id}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query, args, err := s.sb.Delete(postgresTableName).Where(sq.Eq{"item_id": id}).ToSql()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

func (s *PostgresStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) selectItems() sq.SelectBuilder {
	return s.sb.Select("seq", "item_id", "subject", "source", "created_at_ms", "context", "labels", "status", "posted_at_ms", "attempts").
		From(postgresTableName)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var item Item
	var status string
	err := row.Scan(&item.Seq, &item.ID, &item.Subject, &item.Source, &item.CreatedAtMs,
		&item.Context, &item.Labels, &status, &item.PostedAtMs, &item.Attempts)
	if err != nil {
		return Item{}, err
	}
	item.Status = Status(status)
	return item, nil
}
