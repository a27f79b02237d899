package ledger

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Archive is the embedded read-side store for completed trades. The JSON
// ledger stays the write-side source of truth; the monitor copies each
// resolution in here so reporting can aggregate without rescanning files.
type Archive struct {
	db *sql.DB
}

// Stats is the aggregate a report prints for one strategy.
type Stats struct {
	Strategy     string
	Wins         int
	Losses       int
	Expired      int
	WinRate      float64 // percent of decided (win+loss) trades
	TotalReturn  float64 // sum of actual returns, percent
	AvgReturn    float64
	BestReturn   float64
	WorstReturn  float64
}

// OpenArchive opens (and if needed creates) the archive database.
func OpenArchive(dbPath string) (*Archive, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("archive path is required")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Archive{db: db}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS completed_trades (
		id            TEXT PRIMARY KEY,
		symbol        TEXT NOT NULL,
		strategy      TEXT NOT NULL,
		action        TEXT NOT NULL,
		entry_price   TEXT NOT NULL,
		target_price  TEXT NOT NULL,
		stop_price    TEXT NOT NULL,
		confidence    INTEGER NOT NULL,
		result        TEXT NOT NULL,
		exit_price    TEXT,
		actual_return REAL,
		opened_at     TEXT NOT NULL,
		resolved_at   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_completed_trades_strategy ON completed_trades(strategy);
	CREATE INDEX IF NOT EXISTS idx_completed_trades_symbol ON completed_trades(symbol);`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init archive schema: %w", err)
	}
	return nil
}

// Record inserts a completed trade. Re-inserting the same trade is a no-op
// so a monitor re-run after a partial failure cannot duplicate rows.
func (a *Archive) Record(t Trade) error {
	if t.Status != StatusCompleted {
		return fmt.Errorf("trade %s is not completed", t.ID)
	}

	var exit interface{}
	if t.ExitPrice != nil {
		exit = t.ExitPrice.String()
	}
	var ret interface{}
	if t.ActualReturn != nil {
		ret = t.ActualReturn.InexactFloat64()
	}

	_, err := a.db.Exec(`
		INSERT OR IGNORE INTO completed_trades
		(id, symbol, strategy, action, entry_price, target_price, stop_price,
		 confidence, result, exit_price, actual_return, opened_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Symbol, t.Strategy, string(t.Action),
		t.EntryPrice.String(), t.TargetPrice.String(), t.StopPrice.String(),
		t.Confidence, t.Result, exit, ret, t.Timestamp, t.ResolvedAt)
	if err != nil {
		return fmt.Errorf("archive trade %s: %w", t.ID, err)
	}
	return nil
}

// StatsByStrategy aggregates outcomes per strategy, all strategies when
// strategy is empty.
func (a *Archive) StatsByStrategy(strategy string) ([]Stats, error) {
	query := `
		SELECT strategy,
		       SUM(CASE WHEN result = 'win' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result = 'loss' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN result = 'expired' THEN 1 ELSE 0 END),
		       COALESCE(SUM(actual_return), 0),
		       COALESCE(AVG(actual_return), 0),
		       COALESCE(MAX(actual_return), 0),
		       COALESCE(MIN(actual_return), 0)
		FROM completed_trades`
	args := []interface{}{}
	if strategy != "" {
		query += " WHERE strategy = ?"
		args = append(args, strategy)
	}
	query += " GROUP BY strategy ORDER BY strategy"

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query archive stats: %w", err)
	}
	defer rows.Close()

	var out []Stats
	for rows.Next() {
		var s Stats
		if err := rows.Scan(&s.Strategy, &s.Wins, &s.Losses, &s.Expired,
			&s.TotalReturn, &s.AvgReturn, &s.BestReturn, &s.WorstReturn); err != nil {
			return nil, fmt.Errorf("scan archive stats: %w", err)
		}
		if decided := s.Wins + s.Losses; decided > 0 {
			s.WinRate = float64(s.Wins) / float64(decided) * 100
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// StatsFromTrades computes the same aggregates as StatsByStrategy straight
// from a trade list. Reports fall back to this over the ledger file when
// the archive holds no rows yet.
func StatsFromTrades(trades []Trade, strategy string) []Stats {
	byStrategy := map[string]*Stats{}
	returns := map[string][]float64{}

	for _, t := range trades {
		if t.Status != StatusCompleted {
			continue
		}
		if strategy != "" && t.Strategy != strategy {
			continue
		}
		s := byStrategy[t.Strategy]
		if s == nil {
			s = &Stats{Strategy: t.Strategy}
			byStrategy[t.Strategy] = s
		}
		switch t.Result {
		case ResultWin:
			s.Wins++
		case ResultLoss:
			s.Losses++
		case ResultExpired:
			s.Expired++
		}
		if t.ActualReturn != nil {
			returns[t.Strategy] = append(returns[t.Strategy], t.ActualReturn.InexactFloat64())
		}
	}

	names := make([]string, 0, len(byStrategy))
	for name := range byStrategy {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Stats, 0, len(names))
	for _, name := range names {
		s := byStrategy[name]
		for i, r := range returns[name] {
			s.TotalReturn += r
			if i == 0 || r > s.BestReturn {
				s.BestReturn = r
			}
			if i == 0 || r < s.WorstReturn {
				s.WorstReturn = r
			}
		}
		if n := len(returns[name]); n > 0 {
			s.AvgReturn = s.TotalReturn / float64(n)
		}
		if decided := s.Wins + s.Losses; decided > 0 {
			s.WinRate = float64(s.Wins) / float64(decided) * 100
		}
		out = append(out, *s)
	}
	return out
}
