package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// MemoryDSN keeps the journal in process memory only.
const MemoryDSN = ":memory:"

// Journal records circulation events in SQLite. It implements Observer.
type Journal struct {
	db  *sqlx.DB
	log *zap.Logger

	insertStmt *sqlx.Stmt
}

// Entry is one journal row.
type Entry struct {
	Seq      int64  `db:"seq"`
	EventID  string `db:"event_id"`
	Day      int    `db:"day"`
	Op       Op     `db:"op"`
	PatronID string `db:"patron_id"`
	ItemID   string `db:"item_id"`
	Amount   Money  `db:"amount_cents"`
	Outcome  string `db:"outcome"`
	Payload  string `db:"payload"`
}

// OK reports whether the recorded operation succeeded.
func (e Entry) OK() bool { return e.Outcome == outcomeOK }

// HistoryFilter narrows History. Zero values match everything.
type HistoryFilter struct {
	PatronID string
	ItemID   string
	Limit    int
}

const outcomeOK = "ok"

type entryPayload struct {
	Location Location `json:"location,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// OpenJournal opens (or creates) the journal at dsn, which is either MemoryDSN
// or a file path, and applies schema migrations.
func OpenJournal(dsn string, log *zap.Logger) (*Journal, error) {
	if dsn == "" {
		dsn = MemoryDSN
	}
	memory := dsn == MemoryDSN
	if !memory {
		// Ensure directory exists so first-run succeeds.
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create journal dir: %w", err)
			}
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000", dsn)
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db, !memory); err != nil {
		db.Close()
		return nil, err
	}

	j := &Journal{db: db, log: log}
	if err := j.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// Close releases prepared statements and closes the DB.
func (j *Journal) Close() error {
	if j.insertStmt != nil {
		j.insertStmt.Close()
	}
	return j.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB, wal bool) error {
	if wal {
		if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("enable WAL: %w", err)
		}
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
            seq INTEGER PRIMARY KEY AUTOINCREMENT,
            event_id TEXT NOT NULL UNIQUE,
            day INTEGER NOT NULL,
            op TEXT NOT NULL,
            patron_id TEXT NOT NULL DEFAULT '',
            item_id TEXT NOT NULL DEFAULT '',
            amount_cents INTEGER NOT NULL DEFAULT 0,
            outcome TEXT NOT NULL,
            payload TEXT NOT NULL DEFAULT '{}'
        );`,
		`CREATE INDEX IF NOT EXISTS idx_entries_patron ON entries(patron_id);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_item ON entries(item_id);`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}

	return tx.Commit()
}

func (j *Journal) prepareStatements() error {
	var err error
	j.insertStmt, err = j.db.Preparex(`INSERT INTO entries(event_id,day,op,patron_id,item_id,amount_cents,outcome,payload)
        VALUES(?,?,?,?,?,?,?,?)`)
	return err
}

// ---------------------------------------------------------------------------
// Recording and queries
// ---------------------------------------------------------------------------

// Observe records ev, logging rather than returning write failures.
func (j *Journal) Observe(ev Event) {
	if err := j.Record(ev); err != nil {
		j.log.Error("journal write failed",
			zap.String("op", string(ev.Op)),
			zap.String("item", ev.ItemID),
			zap.String("patron", ev.PatronID),
			zap.Error(err))
	}
}

// Record inserts one event.
func (j *Journal) Record(ev Event) error {
	payload := entryPayload{Location: ev.Location}
	outcome := outcomeOK
	if ev.Err != nil {
		outcome = "failed"
		payload.Error = ev.Err.Error()
	}
	data, err := jsoniter.ConfigFastest.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	_, err = j.insertStmt.Exec(uuid.NewString(), ev.Day, string(ev.Op), ev.PatronID, ev.ItemID, int64(ev.Amount), outcome, string(data))
	return err
}

// History returns matching entries, newest first.
func (j *Journal) History(f HistoryFilter) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if f.PatronID != "" {
		where = append(where, "patron_id = ?")
		args = append(args, f.PatronID)
	}
	if f.ItemID != "" {
		where = append(where, "item_id = ?")
		args = append(args, f.ItemID)
	}

	query := `SELECT seq,event_id,day,op,patron_id,item_id,amount_cents,outcome,payload FROM entries`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	entries := []Entry{}
	if err := j.db.Select(&entries, query, args...); err != nil {
		return nil, err
	}
	return entries, nil
}

// Detail decodes the entry payload into a short human-readable note.
func (e Entry) Detail() string {
	var p entryPayload
	if err := jsoniter.ConfigFastest.UnmarshalFromString(e.Payload, &p); err != nil {
		return ""
	}
	if p.Error != "" {
		return p.Error
	}
	return string(p.Location)
}

// Count returns the number of recorded entries.
func (j *Journal) Count() (int, error) {
	var n int
	err := j.db.Get(&n, `SELECT COUNT(*) FROM entries`)
	return n, err
}
