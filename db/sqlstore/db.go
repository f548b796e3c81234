package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/navbryce/next-post-be/config"
	appDb "github.com/navbryce/next-post-be/db"
	"github.com/upper/db/v4"
	"github.com/upper/db/v4/adapter/mysql"
	"github.com/upper/db/v4/adapter/postgresql"
	"github.com/upper/db/v4/adapter/sqlite"
)

type SQLStore struct {
	*PostDB
	*ProfileDB
	*CredentialDB
	sess    db.Session
	sqlDB   *sql.DB
	adapter string
}

// GetDatabase opens the configured adapter and returns the composed store.
func GetDatabase(ctx context.Context, props config.DBProperties) (*SQLStore, error) {
	var (
		sess db.Session
		err  error
	)
	switch props.Adapter {
	case config.DbAdapterMySQL:
		sess, err = openMySQL(props)
	case config.DbAdapterPostgreSQL:
		sess, err = openPostgreSQL(props)
	case config.DbAdapterSQLite:
		sess, err = openSQLite(props.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported adapter %q", props.Adapter)
	}
	if err != nil {
		return nil, err
	}

	sqlDB := sess.Driver().(*sql.DB)
	if props.Adapter != config.DbAdapterSQLite {
		sqlDB.SetMaxIdleConns(props.MaxIdleConns)
		sqlDB.SetMaxOpenConns(props.MaxOpenConns)
		sqlDB.SetConnMaxIdleTime(0)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sess.Close()
		return nil, fmt.Errorf("ping %s: %w", props.Adapter, err)
	}

	store := newSQLStore(sess, props.Adapter)
	if props.EnsureSchema {
		if err := store.EnsureSchema(ctx); err != nil {
			sess.Close()
			return nil, err
		}
	}
	return store, nil
}

func newSQLStore(sess db.Session, adapter string) *SQLStore {
	return &SQLStore{
		PostDB:       getPostDB(sess),
		ProfileDB:    getProfileDB(sess),
		CredentialDB: getCredentialDB(sess),
		sess:         sess,
		sqlDB:        sess.Driver().(*sql.DB),
		adapter:      adapter,
	}
}

func openMySQL(props config.DBProperties) (db.Session, error) {
	dsn := props.URL
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s)/%s?tls=%t&parseTime=true",
			props.User, props.Pass, props.Host, props.Name, props.TLS)
	}
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return mysql.New(sqlDB)
}

func openPostgreSQL(props config.DBProperties) (db.Session, error) {
	if props.URL != "" {
		return postgresql.Open(rawURL(props.URL))
	}
	sslMode := "disable"
	if props.TLS {
		sslMode = "require"
	}
	return postgresql.Open(postgresql.ConnectionURL{
		User:     props.User,
		Password: props.Pass,
		Host:     props.Host,
		Database: props.Name,
		Options:  map[string]string{"sslmode": sslMode},
	})
}

// rawURL passes a provider-issued connection string through untouched.
type rawURL string

func (u rawURL) String() string {
	return string(u)
}

// openSQLite pins in-memory databases to one connection so every query sees
// the same data. File databases keep a pool and wait on locks instead of
// failing with SQLITE_BUSY.
func openSQLite(dsn string) (db.Session, error) {
	memory := isMemoryDSN(dsn)
	if !memory && !strings.Contains(dsn, "_busy_timeout") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "_busy_timeout=5000"
	}
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if memory {
		sqlDB.SetMaxOpenConns(1)
	}
	return sqlite.New(sqlDB)
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

var _ appDb.Database = (*SQLStore)(nil)

func (s *SQLStore) GetSQLDB() *sql.DB {
	return s.sqlDB
}

func (s *SQLStore) Close() error {
	return s.sess.Close()
}
