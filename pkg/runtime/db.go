package runtime

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"time"

	// Registers the "mysql" database/sql driver.
	_ "github.com/go-sql-driver/mysql"
)

// DriverName is the database/sql driver used for new connections.
const DriverName = "mysql"

// execQuerier is satisfied by both *sql.DB and *sql.Tx.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// DB is the shared database handle. It is created unconfigured, receives its
// parameters through Configure and opens the connection on first use.
//
// A DB is owned by the application's composition root and passed to every
// data-access call. Statement execution is not synchronized: callers sharing
// a DB across goroutines must serialize access themselves.
type DB struct {
	mu     sync.Mutex
	config *Config
	conn   *sql.DB
	tx     *sql.Tx
	lastID int64

	logger        *slog.Logger
	slowThreshold time.Duration
	stats         Stats
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for statement logging.
func WithLogger(logger *slog.Logger) Option {
	return func(db *DB) {
		if logger != nil {
			db.logger = logger
		}
	}
}

// WithSlowThreshold logs statements slower than d at warn level.
// Zero disables slow statement detection.
func WithSlowThreshold(d time.Duration) Option {
	return func(db *DB) {
		db.slowThreshold = d
	}
}

// New creates an unconfigured DB.
func New(opts ...Option) *DB {
	db := &DB{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// NewDB creates a DB instance around an already opened handle.
func NewDB(conn *sql.DB, opts ...Option) *DB {
	db := New(opts...)
	db.conn = conn
	return db
}

// Open configures a new DB and establishes its connection.
func Open(ctx context.Context, config Config, opts ...Option) (*DB, error) {
	db := New(opts...)
	db.Configure(config)
	if _, err := db.Connection(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

// Configure stores the connection parameters. The last call before the
// connection is first opened wins.
func (db *DB) Configure(config Config) {
	db.mu.Lock()
	defer db.mu.Unlock()

	cfg := config
	db.config = &cfg
}

// Config returns the stored connection parameters.
func (db *DB) Config() (Config, bool) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.config == nil {
		return Config{}, false
	}
	return *db.config, true
}

// Connection returns the shared handle, opening it on first call.
func (db *DB) Connection(ctx context.Context) (*sql.DB, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn != nil {
		return db.conn, nil
	}
	if db.config == nil {
		return nil, &ConnectionError{Err: ErrNotConfigured}
	}

	conn, err := sql.Open(DriverName, db.config.DSN())
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	// One session for the lifetime of the process.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, &ConnectionError{Err: err}
	}

	db.logger.Debug("database connection established",
		"host", db.config.Host,
		"database", db.config.Database,
	)
	db.conn = conn
	return conn, nil
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	conn, err := db.Connection(ctx)
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn == nil {
		return nil
	}
	err := db.conn.Close()
	db.conn = nil
	db.tx = nil
	return err
}

// Result describes the outcome of one executed statement.
type Result struct {
	RowsAffected int64
	// LastInsertID is the id generated by this statement, or 0.
	LastInsertID int64
}

// Exec executes a statement without returning any rows and reports the
// number of affected rows.
func (db *DB) Exec(ctx context.Context, query string, bindings Bindings) (int64, error) {
	res, err := db.ExecResult(ctx, query, bindings)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

// ExecResult is like Exec but also reports the id generated by the
// statement itself.
func (db *DB) ExecResult(ctx context.Context, query string, bindings Bindings) (Result, error) {
	eq, err := db.target(ctx)
	if err != nil {
		return Result{}, err
	}

	stmt, args, err := bindNamed(query, bindings)
	if err != nil {
		return Result{}, &ExecutionError{Query: query, Err: err}
	}

	start := time.Now()
	result, err := eq.ExecContext(ctx, stmt, args...)
	db.record(false, query, len(args), start, err)
	if err != nil {
		return Result{}, &ExecutionError{Query: query, Err: err}
	}

	var res Result
	if id, err := result.LastInsertId(); err == nil && id != 0 {
		res.LastInsertID = id
		db.lastID = id
	}

	res.RowsAffected, err = result.RowsAffected()
	if err != nil {
		return Result{}, &ExecutionError{Query: query, Err: err}
	}
	return res, nil
}

// Query executes a query that returns rows.
func (db *DB) Query(ctx context.Context, query string, bindings Bindings) (*sql.Rows, error) {
	eq, err := db.target(ctx)
	if err != nil {
		return nil, err
	}

	stmt, args, err := bindNamed(query, bindings)
	if err != nil {
		return nil, &ExecutionError{Query: query, Err: err}
	}

	start := time.Now()
	rows, err := eq.QueryContext(ctx, stmt, args...)
	db.record(true, query, len(args), start, err)
	if err != nil {
		return nil, &ExecutionError{Query: query, Err: err}
	}
	return rows, nil
}

// LastInsertID returns the identifier generated by the most recent insert
// that generated one. Statements without a generated id leave it unchanged,
// so use ExecResult to tell which statement produced it.
func (db *DB) LastInsertID() int64 {
	return db.lastID
}

// Begin starts a transaction. Statements run inside it until Commit or
// Rollback. Transactions do not nest.
func (db *DB) Begin(ctx context.Context) error {
	conn, err := db.Connection(ctx)
	if err != nil {
		return err
	}
	if db.tx != nil {
		return ErrTransactionActive
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return &ExecutionError{Query: "BEGIN", Err: err}
	}
	db.tx = tx
	return nil
}

// Commit commits the open transaction.
func (db *DB) Commit() error {
	if db.tx == nil {
		return ErrNoTransaction
	}
	tx := db.tx
	db.tx = nil
	if err := tx.Commit(); err != nil {
		return &ExecutionError{Query: "COMMIT", Err: err}
	}
	return nil
}

// Rollback rolls back the open transaction.
func (db *DB) Rollback() error {
	if db.tx == nil {
		return ErrNoTransaction
	}
	tx := db.tx
	db.tx = nil
	if err := tx.Rollback(); err != nil {
		return &ExecutionError{Query: "ROLLBACK", Err: err}
	}
	return nil
}

// InTransaction reports whether a transaction is open.
func (db *DB) InTransaction() bool {
	return db.tx != nil
}

// Stats returns a snapshot of the execution counters.
func (db *DB) Stats() StatsSnapshot {
	return db.stats.Snapshot()
}

// ResetStats clears the execution counters.
func (db *DB) ResetStats() {
	db.stats.Reset()
}

func (db *DB) target(ctx context.Context) (execQuerier, error) {
	if db.tx != nil {
		return db.tx, nil
	}
	return db.Connection(ctx)
}

func (db *DB) record(isQuery bool, query string, args int, start time.Time, err error) {
	duration := time.Since(start)
	slow := db.slowThreshold > 0 && duration > db.slowThreshold
	db.stats.record(isQuery, duration, slow, err)

	switch {
	case err != nil:
		db.logger.Warn("statement failed", "sql", query, "bindings", args, "duration", duration, "error", err)
	case slow:
		db.logger.Warn("slow statement", "sql", query, "bindings", args, "duration", duration)
	default:
		db.logger.Debug("statement executed", "sql", query, "bindings", args, "duration", duration)
	}
}
