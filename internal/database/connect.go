package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/JonMunkholm/userupload/internal/config"
	"github.com/JonMunkholm/userupload/internal/logging"
	"github.com/jackc/pgx/v5"
)

// MaintenanceDB is the database used to check for, and create, the target
// database before connecting to it.
const MaintenanceDB = "postgres"

// ConnString builds a postgres:// URL for dbName from cfg. User and password
// are escaped.
func ConnString(cfg config.DatabaseConfig, dbName string) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:   "/" + dbName,
	}
	if cfg.Password != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	} else {
		u.User = url.User(cfg.User)
	}

	q := url.Values{}
	if cfg.SSLMode != "" {
		q.Set("sslmode", cfg.SSLMode)
	}
	if secs := int(cfg.ConnectTimeout.Seconds()); secs > 0 {
		q.Set("connect_timeout", strconv.Itoa(secs))
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Connect opens a single connection to dbName and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig, dbName string) (*pgx.Conn, error) {
	connCfg, err := pgx.ParseConfig(ConnString(cfg, dbName))
	if err != nil {
		return nil, fmt.Errorf("parse connection config: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to %s/%s: %w", cfg.Addr(), dbName, err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping %s/%s: %w", cfg.Addr(), dbName, err)
	}

	return conn, nil
}

// EnsureDatabase creates the database name if it does not exist yet. db must
// be connected to a different database, usually MaintenanceDB.
// Returns true if the database was created.
func EnsureDatabase(ctx context.Context, db DBTX, name string) (bool, error) {
	exists, err := New(db).DatabaseExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check database %q: %w", name, err)
	}
	if exists {
		return false, nil
	}

	// CREATE DATABASE cannot take a bind parameter.
	if _, err := db.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		return false, fmt.Errorf("database %q does not exist and failed to create: %w", name, err)
	}
	logging.FromContext(ctx).Info("database created", "name", name)
	return true, nil
}

// Open connects to the configured database, creating it first when missing.
// The caller owns the returned connection and must close it.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*pgx.Conn, error) {
	admin, err := Connect(ctx, cfg, MaintenanceDB)
	if err != nil {
		return nil, err
	}

	_, err = EnsureDatabase(ctx, admin, cfg.Name)
	admin.Close(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := Connect(ctx, cfg, cfg.Name)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("connected to database", "addr", cfg.Addr(), "name", cfg.Name)
	return conn, nil
}
