package tilerecord

import (
	"context"
	"database/sql"
	"embed"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/geoforge/dyntile/pkg/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

type SQLiteRepository struct {
	db     *sql.DB
	logger logger.Logger
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLite(path string, l logger.Logger) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	r := &SQLiteRepository{
		db:     db,
		logger: l,
	}

	if err := r.runMigrations(); err != nil {
		return nil, err
	}

	l.Info("tile record store initialized", "path", path)

	return r, nil
}

func (r *SQLiteRepository) runMigrations() error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.Up(r.db, "migrations")
}

func (r *SQLiteRepository) Find(ctx context.Context, k Key) (time.Time, bool, error) {
	query := `SELECT updated_at
	FROM tile_record
	WHERE x = ? AND y = ? AND z = ? AND layer_name = ? AND client_id = ?`

	var at time.Time
	err := r.db.QueryRowContext(ctx, query, k.X, k.Y, k.Z, k.Layer, k.ClientID).Scan(&at)
	if err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		r.logger.Error("tile record find failed", "key", k, "error", err)
		return time.Time{}, false, err
	}

	return at, true, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, k Key, at time.Time) error {
	query := `INSERT INTO tile_record (x, y, z, layer_name, client_id, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(x, y, z, layer_name, client_id) DO UPDATE SET updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, k.X, k.Y, k.Z, k.Layer, k.ClientID, at)
	if err != nil {
		r.logger.Error("tile record upsert failed", "key", k, "error", err)
		return err
	}

	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
