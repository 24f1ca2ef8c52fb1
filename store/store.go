// Package store executes compiled statements against a relational database
// through database/sql. The data and count statements of a search run in one
// read-only transaction so the page and the total describe the same snapshot.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/bawdo/filtersql/compiler"
)

var driverName = map[string]string{
	"postgres": "pgx",
	"mysql":    "mysql",
	"sqlite":   "sqlite",
}

// Engines lists the supported engine names in a stable order.
func Engines() []string {
	return []string{"postgres", "mysql", "sqlite"}
}

// Record is one result row keyed by column name.
type Record map[string]any

// Page is the outcome of a search: the requested rows plus the total number
// of matching rows ignoring limit and offset.
type Page struct {
	Columns []string
	Rows    []Record
	Total   int64
}

// Store wraps a database handle for one engine.
type Store struct {
	db     *sql.DB
	engine string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for query timing at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open connects to the database named by dsn and pings it.
func Open(ctx context.Context, engine, dsn string, opts ...Option) (*Store, error) {
	driver, ok := driverName[engine]
	if !ok {
		return nil, fmt.Errorf("no driver for engine %q", engine)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return New(db, engine, opts...)
}

// New wraps an existing handle.
func New(db *sql.DB, engine string, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, errors.New("store: nil database handle")
	}
	if _, ok := driverName[engine]; !ok {
		return nil, fmt.Errorf("no driver for engine %q", engine)
	}
	s := &Store{db: db, engine: engine, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Engine returns the engine name the store was opened with.
func (s *Store) Engine() string { return s.engine }

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// txOptions returns a read-only snapshot transaction where the engine
// supports one. SQLite transactions are already serializable.
func (s *Store) txOptions() *sql.TxOptions {
	if s.engine == "sqlite" {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
}

// Fetch runs the data and count statements in one transaction.
func (s *Store) Fetch(ctx context.Context, data, count compiler.Statement) (*Page, error) {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, s.txOptions())
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	page, err := scanPage(ctx, tx, data)
	if err != nil {
		return nil, fmt.Errorf("data query: %w", err)
	}
	if err := tx.QueryRowContext(ctx, count.SQL, count.Params...).Scan(&page.Total); err != nil {
		return nil, fmt.Errorf("count query: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.logger.DebugContext(ctx, "fetched page",
		"engine", s.engine,
		"rows", len(page.Rows),
		"total", page.Total,
		"elapsed", time.Since(start))
	return page, nil
}

// Query runs a single statement outside a snapshot.
func (s *Store) Query(ctx context.Context, st compiler.Statement) (*Page, error) {
	page, err := scanPage(ctx, s.db, st)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	page.Total = int64(len(page.Rows))
	return page, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanPage(ctx context.Context, q queryer, st compiler.Statement) (*Page, error) {
	rows, err := q.QueryContext(ctx, st.SQL, st.Params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}

	page := &Page{Columns: columns, Rows: []Record{}}
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		rec := make(Record, len(columns))
		for i, c := range columns {
			rec[c] = normalize(vals[i])
		}
		page.Rows = append(page.Rows, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return page, nil
}

// normalize turns driver byte slices into strings so records marshal as text.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// TableColumns lists the columns of table in ordinal order. An unknown table
// yields an empty slice.
func (s *Store) TableColumns(ctx context.Context, table string) ([]string, error) {
	var query string
	switch s.engine {
	case "postgres":
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1 ORDER BY ordinal_position"
	case "mysql":
		query = "SELECT column_name FROM information_schema.columns WHERE table_schema = DATABASE() AND table_name = ? ORDER BY ordinal_position"
	case "sqlite":
		query = "SELECT name FROM pragma_table_info(?)"
	default:
		return nil, fmt.Errorf("unsupported engine: %s", s.engine)
	}
	return s.queryStringColumn(ctx, query, table)
}

// Tables lists the user tables of the connected database.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	var query string
	switch s.engine {
	case "postgres":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() ORDER BY table_name"
	case "mysql":
		query = "SELECT table_name FROM information_schema.tables WHERE table_schema = DATABASE() ORDER BY table_name"
	case "sqlite":
		query = "SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name"
	default:
		return nil, fmt.Errorf("unsupported engine: %s", s.engine)
	}
	return s.queryStringColumn(ctx, query)
}

func (s *Store) queryStringColumn(ctx context.Context, query string, params ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	result := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// SanitizeDSN masks the password in a DSN for logging.
func SanitizeDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" && u.User != nil {
		if _, hasPass := u.User.Password(); hasPass {
			// Rebuilt by hand so the mask is not percent-encoded.
			masked := u.Scheme + "://" + u.User.Username() + ":****@" + u.Host + u.Path
			if u.RawQuery != "" {
				masked += "?" + u.RawQuery
			}
			return masked
		}
		return dsn
	}

	// MySQL style: user:pass@tcp(host)/db
	if atIdx := strings.Index(dsn, "@"); atIdx > 0 {
		userPass := dsn[:atIdx]
		if colonIdx := strings.Index(userPass, ":"); colonIdx >= 0 {
			return userPass[:colonIdx+1] + "****" + dsn[atIdx:]
		}
	}
	return dsn
}
