package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/biplawofficial/TradeAutomation/internal/domain"
	"github.com/biplawofficial/TradeAutomation/pkg/logger"
)

// Journal is an append-only sqlite audit of order placements and
// scheduled-trade outcomes. It is write-mostly: nothing is read back
// into trading state, so the in-memory scheduled-trade store still
// starts empty on every boot.
type Journal struct {
	db *sql.DB
}

// Source tags where an execution originated.
const (
	SourceAPI       = "api"
	SourceScheduler = "scheduler"
	SourceFlow      = "flow"
)

func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single connection is the stable mode
	db.SetMaxIdleConns(1)

	j := &Journal{db: db}
	if err := j.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) migrate() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`
CREATE TABLE IF NOT EXISTS executions (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  source TEXT NOT NULL,
  side TEXT NOT NULL,
  quantity REAL NOT NULL,
  order_type TEXT NOT NULL,
  price REAL,
  status TEXT NOT NULL,
  detail TEXT,
  created_at TEXT NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_executions_created_at ON executions(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate journal: %w", err)
		}
	}
	return nil
}

// Entry is one recorded execution attempt.
type Entry struct {
	ID        int64    `json:"id"`
	Source    string   `json:"source"`
	Side      string   `json:"side"`
	Quantity  float64  `json:"quantity"`
	OrderType string   `json:"order_type"`
	Price     *float64 `json:"price,omitempty"`
	Status    string   `json:"status"`
	Detail    string   `json:"detail,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// Record appends one execution row. Failures are logged and swallowed:
// the journal must never fail a trading call.
func (j *Journal) Record(ctx context.Context, source string, req domain.OrderRequest, status, detail string) {
	if j == nil {
		return
	}
	_, err := j.db.ExecContext(ctx, `
INSERT INTO executions (source, side, quantity, order_type, price, status, detail, created_at)
VALUES (?,?,?,?,?,?,?,?)
`, source, string(req.Side), req.Quantity, string(req.OrderType), req.Price, status, detail,
		time.Now().Format(time.RFC3339Nano))
	if err != nil {
		logger.Errorf("journal insert failed: %v", err)
	}
}

// Recent returns the newest entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, source, side, quantity, order_type, price, status, detail, created_at
FROM executions
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e      Entry
			price  sql.NullFloat64
			detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Source, &e.Side, &e.Quantity, &e.OrderType, &price, &e.Status, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		if price.Valid {
			v := price.Float64
			e.Price = &v
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
