package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craigwongva/pz-access/pkg/groupd/metrics"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound      = fmt.Errorf("database row not found")
	ErrAlreadyExists = fmt.Errorf("database row already exists")
)

const sqlStateUniqueViolation = "23505"

type Database struct {
	conn *pgxpool.Pool
}

func IsErrNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}

func New(ctx context.Context, dsn string) (*Database, error) {
	conn, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, err
	}

	return &Database{
		conn: conn,
	}, nil
}

func (db *Database) Close() {
	db.conn.Close()
}

func (db *Database) Ping(ctx context.Context) error {
	return db.conn.Ping(ctx)
}

func (db *Database) timedQueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return &timedRow{
		row:   db.conn.QueryRow(ctx, sql, args...),
		start: time.Now(),
	}
}

func (db *Database) timedExec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	now := time.Now()
	tag, err := db.conn.Exec(ctx, sql, args...)
	metrics.DatabaseQuery(now, err)
	return tag, err
}

// QueryRow defers execution until Scan, so that is where the time is measured.
type timedRow struct {
	row   pgx.Row
	start time.Time
}

func (r *timedRow) Scan(dest ...interface{}) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.DatabaseQuery(r.start, nil)
		return ErrNotFound
	}
	metrics.DatabaseQuery(r.start, err)
	return err
}

func (db *Database) Migrate(ctx context.Context) error {
	var version int

	query := `SELECT MAX(version) FROM migrations`
	row := db.conn.QueryRow(ctx, query)
	err := row.Scan(&version)

	if err != nil {
		// error might be due to no schema.
		// no way to detect this, so log error and continue with migrations.
		log.Warnf("unable to get current migration version: %s", err)
	}

	for version < len(migrations) {
		log.Infof("migrating database schema to version %d", version+1)

		_, err = db.conn.Exec(ctx, migrations[version])
		if err != nil {
			return fmt.Errorf("migrating to version %d: %s", version+1, err)
		}

		version++
	}

	return nil
}
