package db

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/soaringjerry/Empatia/internal/logger"
	"github.com/soaringjerry/Empatia/internal/services"
)

// timeLayout is fixed width so that TEXT comparison matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// rows written by hand (sqlite3 CLI, CURRENT_TIMESTAMP) use the short form
		if t2, err2 := time.Parse("2006-01-02 15:04:05", s); err2 == nil {
			return t2.UTC()
		}
		return time.Time{}
	}
	return t
}

func nowUTC() time.Time { return time.Now().UTC() }

func boolToInt64(v bool) int64 {
	if v {
		return 1
	}
	return 0
}

func int64ToBool(v int64) bool { return v != 0 }

type SQLiteStore struct {
	db  *sqlx.DB
	now func() time.Time
	log logger.Logger
}

type Option func(*SQLiteStore)

func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

func WithLogger(l logger.Logger) Option {
	return func(s *SQLiteStore) { s.log = l }
}

// DSN builds the go-sqlite3 connection string used by Open.
func DSN(path string) string {
	params := "_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	if path != ":memory:" {
		params += "&_journal_mode=WAL"
	}
	return "file:" + path + "?" + params
}

// Open connects to the database at path and applies pending migrations.
func Open(ctx context.Context, path, migrationsDir string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is empty")
	}
	conn, err := sqlx.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if path == ":memory:" {
		// each connection would otherwise see its own empty database
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	if err := RunMigrations(ctx, conn, migrationsDir); err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "migrating database")
	}
	return NewSQLiteStore(conn, opts...), nil
}

func NewSQLiteStore(conn *sqlx.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{db: conn, now: nowUTC, log: logger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return services.NewPersistenceError(s.db.PingContext(ctx))
}

// fail converts a driver error into the service error vocabulary.
func (s *SQLiteStore) fail(ctx context.Context, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return services.NewNotFoundError(op + ": not found")
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch se.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return services.NewConflictError(op + ": already exists")
		case sqlite3.ErrConstraintForeignKey:
			return services.NewNotFoundError(op + ": referenced row does not exist")
		}
	}
	s.log.Error(ctx, "sqlite store", logger.String("op", op), logger.Error(err))
	return services.NewPersistenceError(errors.Wrap(err, op))
}

type responseRow struct {
	ID        int64  `db:"id"`
	CreatedAt string `db:"created_at"`
	Total     int    `db:"total"`
	Profile   string `db:"profile"`
}

func (r responseRow) record() services.ResponseRecord {
	return services.ResponseRecord{
		ID:        r.ID,
		CreatedAt: parseTime(r.CreatedAt),
		Total:     r.Total,
		Profile:   services.Profile(r.Profile),
	}
}

func (s *SQLiteStore) AppendResponse(ctx context.Context, total int, profile services.Profile) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO response_records(created_at, total, profile) VALUES (?, ?, ?)`,
		formatTime(s.now()), total, string(profile))
	if err != nil {
		return 0, s.fail(ctx, "inserting response", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, s.fail(ctx, "reading response id", err)
	}
	return id, nil
}

// ListResponses returns every record, most recent first.
func (s *SQLiteStore) ListResponses(ctx context.Context) ([]services.ResponseRecord, error) {
	var rows []responseRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, created_at, total, profile FROM response_records ORDER BY created_at DESC, id ASC`); err != nil {
		return nil, s.fail(ctx, "querying responses", err)
	}
	out := make([]services.ResponseRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.record())
	}
	return out, nil
}

// ClearResponses deletes every record and resets the id sequence in one transaction.
func (s *SQLiteStore) ClearResponses(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return s.fail(ctx, "begin clear", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM response_records`); err != nil {
		return s.fail(ctx, "deleting responses", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sqlite_sequence WHERE name = 'response_records'`); err != nil {
		return s.fail(ctx, "resetting response sequence", err)
	}
	return s.fail(ctx, "commit clear", tx.Commit())
}

// ImportRecords bulk-inserts records keeping their timestamps. IDs are reassigned.
func (s *SQLiteStore) ImportRecords(ctx context.Context, rs []services.ResponseRecord) (int, error) {
	if len(rs) == 0 {
		return 0, nil
	}
	rows := make([]responseRow, 0, len(rs))
	for _, r := range rs {
		ts := r.CreatedAt
		if ts.IsZero() {
			ts = s.now()
		}
		rows = append(rows, responseRow{CreatedAt: formatTime(ts), Total: r.Total, Profile: string(r.Profile)})
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, s.fail(ctx, "begin import", err)
	}
	defer func() { _ = tx.Rollback() }()
	for _, row := range rows {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO response_records(created_at, total, profile) VALUES (:created_at, :total, :profile)`, row); err != nil {
			return 0, s.fail(ctx, "importing response", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, s.fail(ctx, "commit import", err)
	}
	return len(rows), nil
}

func (s *SQLiteStore) CountResponses(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM response_records`); err != nil {
		return 0, s.fail(ctx, "counting responses", err)
	}
	return n, nil
}

// ListQuestions returns the catalog ordered by position, options in insertion order.
func (s *SQLiteStore) ListQuestions(ctx context.Context) ([]services.Question, error) {
	var qs []services.Question
	if err := s.db.SelectContext(ctx, &qs,
		`SELECT id, text, position FROM questions ORDER BY position, id`); err != nil {
		return nil, s.fail(ctx, "querying questions", err)
	}
	var opts []services.AnswerOption
	if err := s.db.SelectContext(ctx, &opts,
		`SELECT id, question_id, text, score FROM answer_options ORDER BY question_id, id`); err != nil {
		return nil, s.fail(ctx, "querying answer options", err)
	}
	byQuestion := make(map[int64][]services.AnswerOption, len(qs))
	for _, o := range opts {
		byQuestion[o.QuestionID] = append(byQuestion[o.QuestionID], o)
	}
	for i := range qs {
		qs[i].Options = byQuestion[qs[i].ID]
		if qs[i].Options == nil {
			qs[i].Options = []services.AnswerOption{}
		}
	}
	return qs, nil
}
