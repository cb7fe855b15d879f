package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"
)

// Store keeps an append-only archive of completed sessions' trade logs in its
// own sqlite file, separate from the primary database. Trade records are
// opaque client payloads; only a few well-known fields are summarized.
type Store struct {
	db *sql.DB
}

// Summary aggregates one archived session. Quantity and PnL are summed with
// decimals so long trade logs don't accumulate float drift.
type Summary struct {
	SessionID     int64
	TradeCount    int
	TotalQuantity decimal.Decimal
	RealizedPnL   decimal.Decimal
}

type Request struct {
	SessionID  int64
	UserID     int64
	Symbol     string
	Result     float64
	TradesJSON []byte
}

func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("archive path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS archived_trades (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id  INTEGER NOT NULL,
			seq         INTEGER NOT NULL,
			payload     TEXT NOT NULL,
			archived_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_archived_trades_session ON archived_trades(session_id);`,
		`CREATE TABLE IF NOT EXISTS session_summaries (
			session_id     INTEGER PRIMARY KEY,
			user_id        INTEGER NOT NULL,
			symbol         TEXT NOT NULL,
			trade_count    INTEGER NOT NULL,
			total_quantity TEXT NOT NULL,
			realized_pnl   TEXT NOT NULL,
			result         REAL NOT NULL,
			archived_at    INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveSession stores every trade record and an aggregate summary row.
// Re-archiving the same session replaces its previous rows.
func (s *Store) ArchiveSession(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{SessionID: req.SessionID}
	trades := gjson.ParseBytes(req.TradesJSON)
	if len(req.TradesJSON) > 0 && !trades.IsArray() {
		return Summary{}, fmt.Errorf("trade log for session %d is not a json array", req.SessionID)
	}

	now := time.Now().Unix()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM archived_trades WHERE session_id = ?`, req.SessionID); err != nil {
		_ = tx.Rollback()
		return Summary{}, err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO archived_trades (session_id, seq, payload, archived_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return Summary{}, err
	}
	defer stmt.Close()

	seq := 0
	var insertErr error
	trades.ForEach(func(_, trade gjson.Result) bool {
		if _, err := stmt.ExecContext(ctx, req.SessionID, seq, trade.Raw, now); err != nil {
			insertErr = err
			return false
		}
		seq++
		summary.TradeCount++
		summary.TotalQuantity = summary.TotalQuantity.Add(decimalField(trade, "quantity", "qty"))
		summary.RealizedPnL = summary.RealizedPnL.Add(decimalField(trade, "pnl", "profit"))
		return true
	})
	if insertErr != nil {
		_ = tx.Rollback()
		return Summary{}, insertErr
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO session_summaries (session_id, user_id, symbol, trade_count, total_quantity, realized_pnl, result, archived_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
		    trade_count=excluded.trade_count,
		    total_quantity=excluded.total_quantity,
		    realized_pnl=excluded.realized_pnl,
		    result=excluded.result,
		    archived_at=excluded.archived_at`,
		req.SessionID, req.UserID, req.Symbol, summary.TradeCount,
		summary.TotalQuantity.String(), summary.RealizedPnL.String(), req.Result, now)
	if err != nil {
		_ = tx.Rollback()
		return Summary{}, err
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// SessionSummary returns the stored aggregate for a session, if archived.
func (s *Store) SessionSummary(ctx context.Context, sessionID int64) (Summary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT session_id, trade_count, total_quantity, realized_pnl FROM session_summaries WHERE session_id = ?`,
		sessionID)
	var (
		summary  Summary
		quantity string
		pnl      string
	)
	if err := row.Scan(&summary.SessionID, &summary.TradeCount, &quantity, &pnl); err != nil {
		return Summary{}, err
	}
	var err error
	if summary.TotalQuantity, err = decimal.NewFromString(quantity); err != nil {
		return Summary{}, err
	}
	if summary.RealizedPnL, err = decimal.NewFromString(pnl); err != nil {
		return Summary{}, err
	}
	return summary, nil
}

// decimalField reads the first present numeric field among names. Missing or
// non-numeric fields count as zero: trade records are client-defined and not
// all of them carry pnl.
func decimalField(trade gjson.Result, names ...string) decimal.Decimal {
	for _, name := range names {
		v := trade.Get(name)
		if !v.Exists() {
			continue
		}
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			continue
		}
		return d
	}
	return decimal.Zero
}
