package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"TokenBank/internal/model"
)

// SQLiteRecorder persists the event log and periodic snapshots to a SQLite
// database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the bank writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Msgf("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ledger_events (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			type      TEXT NOT NULL,
			user      TEXT NOT NULL,
			asset     TEXT NOT NULL,
			amount    TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_ts ON ledger_events(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_user ON ledger_events(user)`,

		`CREATE TABLE IF NOT EXISTS ledger_snapshots (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp        INTEGER NOT NULL,
			net_stable       TEXT,
			total_deposited  TEXT,
			cap_remaining    TEXT,
			deposit_count    INTEGER,
			withdrawal_count INTEGER,
			aggregates       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_ts ON ledger_snapshots(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordEvent(evt *model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO ledger_events
		(id, timestamp, type, user, asset, amount)
		VALUES (?,?,?,?,?,?)`,
		evt.ID, evt.At.Unix(), string(evt.Type), evt.User, evt.Asset.String(), evt.Amount,
	)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(snap *Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	aggs, err := json.Marshal(snap.Aggregates)
	if err != nil {
		return fmt.Errorf("marshal aggregates: %w", err)
	}
	at := snap.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err = r.db.Exec(`INSERT INTO ledger_snapshots
		(timestamp, net_stable, total_deposited, cap_remaining, deposit_count, withdrawal_count, aggregates)
		VALUES (?,?,?,?,?,?,?)`,
		at.Unix(), snap.NetStable, snap.TotalDeposited, snap.CapRemaining,
		snap.DepositCount, snap.WithdrawalCount, string(aggs),
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
