package postgres

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/DRSN-tech/products-api/internal/cfg"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const pingTimeout = 5 * time.Second

// Database — пул соединений pgx и схема таблицы products.
type Database struct {
	Pool *pgxpool.Pool
	cfg  *cfg.PGDBCfg
}

// ConnString собирает URL подключения. Схема scheme: "postgres" для pgx, "pgx5" для golang-migrate.
func ConnString(cfg *cfg.PGDBCfg, scheme string) string {
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   net.JoinHostPort(cfg.Host, cfg.Port),
		Path:   "/" + cfg.DBName,
	}
	q := u.Query()
	q.Set("sslmode", cfg.SSLMode)
	u.RawQuery = q.Encode()

	return u.String()
}

// Open поднимает пул и проверяет соединение.
func Open(ctx context.Context, cfg *cfg.PGDBCfg) (*Database, error) {
	poolCfg, err := pgxpool.ParseConfig(ConnString(cfg, "postgres"))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	db := &Database{Pool: pool, cfg: cfg}
	if err := db.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return db, nil
}

func (db *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (db *Database) Close() {
	if db.Pool != nil {
		db.Pool.Close()
	}
}

// Migrate применяет миграции из cfg.MigrationsURL (по умолчанию file://db/migrations).
func (db *Database) Migrate(log logger.Logger) error {
	m, err := migrate.New(db.cfg.MigrationsURL, ConnString(db.cfg, "pgx5"))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debugf("migrations: no change")
			return nil
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	log.Infof("migrations applied, schema version %d (dirty=%t)", version, dirty)

	return nil
}
