package repos

import (
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// tsLayout sorts lexicographically, so stored timestamps can be compared in SQL.
const tsLayout = "2006-01-02 15:04:05.000000"

func stamp(t time.Time) string { return t.UTC().Format(tsLayout) }

func parseStamp(s string) time.Time {
	t, err := time.ParseInLocation(tsLayout, s, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return t
}

// sq builds queries with ? placeholders for SQLite.
var sq = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}
	// SQLite takes one writer at a time, and every :memory: connection is
	// its own database. A single connection queues callers in the pool
	// instead of failing them with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	return db, nil
}

// withPragmas adds a busy timeout and WAL journaling to file DSNs so other
// processes on the same file wait instead of failing.
func withPragmas(dsn string) string {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "_pragma=busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

-- Browser sessions ('sid' cookie). user columns are NULL while anonymous.
CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,
  user_id INTEGER NULL,
  name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  profile_img TEXT NOT NULL DEFAULT '',
  token BLOB NULL,                   -- secretbox(nonce || sealed bearer token)
  expires_at TEXT NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);

-- Listing drafts, one per session
CREATE TABLE IF NOT EXISTS drafts(
  sid TEXT PRIMARY KEY,
  body TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_drafts_updated_at ON drafts(updated_at);

-- Image bytes referenced by draft slots
CREATE TABLE IF NOT EXISTS draft_images(
  handle TEXT PRIMARY KEY,
  sid TEXT NOT NULL,
  filename TEXT NOT NULL,
  content_type TEXT NOT NULL,
  size INTEGER NOT NULL CHECK (size >= 0),
  data BLOB NOT NULL,
  created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_draft_images_sid ON draft_images(sid);

-- Favourites
CREATE TABLE IF NOT EXISTS favourites(
  user_id INTEGER NOT NULL,
  product_id INTEGER NOT NULL,
  title TEXT NOT NULL,
  price TEXT NOT NULL DEFAULT '0',
  image TEXT NOT NULL DEFAULT '',
  added_at TEXT NOT NULL,
  PRIMARY KEY (user_id, product_id)
);
`
	_, err := db.Exec(schema)
	return err
}
