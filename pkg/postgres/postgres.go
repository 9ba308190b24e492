package postgres

import (
	"context"
	"embed"
	"net"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

type DB struct {
	Host         string        `yaml:"host" envconfig:"DB_HOST" default:"localhost"`
	Port         string        `yaml:"port" envconfig:"DB_PORT" default:"5432"`
	Username     string        `yaml:"user" envconfig:"DB_USER" default:"postgres"`
	Password     string        `yaml:"password" envconfig:"DB_PASSWORD"`
	NameDB       string        `yaml:"dbname" envconfig:"DB_NAME" default:"library"`
	SSLMode      string        `yaml:"sslmode" envconfig:"DB_SSLMODE" default:"disable"`
	MaxOpenConns int           `yaml:"maxOpenConns" envconfig:"DB_MAX_OPEN_CONNS" default:"20"`
	ConnMaxIdle  time.Duration `yaml:"connMaxIdle" envconfig:"DB_CONN_MAX_IDLE" default:"5m"`
}

func (c *DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Username, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     c.NameDB,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// NewPostgresDB connects through the pgx stdlib driver and applies the goose
// migrations found at the root of migrations.
func NewPostgresDB(ctx context.Context, cfg *DB, migrations embed.FS) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns / 2)
	}
	db.SetConnMaxIdleTime(cfg.ConnMaxIdle)

	if err := Migrate(db, migrations); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Migrate(db *sqlx.DB, migrations embed.FS) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "goose dialect")
	}
	if err := goose.Up(db.DB, "."); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}
