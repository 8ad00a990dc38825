package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"pdvcaixa/internal/domain"
	"pdvcaixa/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const table = "pos_snapshots"

type Store struct {
	pool *pgxpool.Pool
	key  string
	psql squirrel.StatementBuilderType
}

type snapshotRow struct {
	Payload   []byte    `db:"payload"`
	Version   int64     `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

// New migrates the schema and opens a small pool. A till is the only client
// so a handful of connections is plenty.
func New(ctx context.Context, databaseURL string, key string) (*Store, error) {
	if key == "" {
		key = store.DefaultKey
	}
	if err := Migrate(databaseURL); err != nil {
		return nil, err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		pool: pool,
		key:  key,
		psql: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Migrate applies the embedded schema migrations.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	query, args, err := s.psql.
		Select("payload", "version", "updated_at").
		From(table).
		Where(squirrel.Eq{"key": s.key}).
		ToSql()
	if err != nil {
		return domain.Snapshot{}, err
	}

	var row snapshotRow
	if err := pgxscan.Get(ctx, s.pool, &row, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return domain.Snapshot{}, store.ErrNotFound
		}
		return domain.Snapshot{}, err
	}
	return store.Decode(row.Payload)
}

func (s *Store) Save(ctx context.Context, snapshot domain.Snapshot) error {
	payload, err := store.Encode(snapshot)
	if err != nil {
		return err
	}

	query, args, err := s.psql.
		Insert(table).
		Columns("key", "payload", "updated_at").
		Values(s.key, string(payload), squirrel.Expr("now()")).
		Suffix("ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, version = " + table + ".version + 1, updated_at = now()").
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, query, args...)
	return err
}

// Version returns how many times the snapshot has been written.
func (s *Store) Version(ctx context.Context) (int64, error) {
	query, args, err := s.psql.Select("version").From(table).Where(squirrel.Eq{"key": s.key}).ToSql()
	if err != nil {
		return 0, err
	}
	var version int64
	if err := pgxscan.Get(ctx, s.pool, &version, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	return version, nil
}
