package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Store is the durable record of decisions and outcomes for one strategy:
// a JSON array of trades in a single file, read and written whole.
//
// A mutex serializes every read-modify-write cycle, so the bot and monitor
// may share one Store inside one process. Each strategy still owns its
// ledger file; two processes sharing a file would lose updates (last write
// wins), nothing here locks the file itself.
type Store struct {
	Path string

	mu sync.Mutex
}

// NewStore creates a store over the given file. The file need not exist.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// LoadAll reads the full ledger. A missing file is an empty ledger, not an
// error. A file that exists but does not parse is a fatal error for the
// caller to surface loudly: silently treating corrupt data as empty would
// erase the ledger on the next write.
func (s *Store) LoadAll() ([]Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() ([]Trade, error) {
	b, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return []Trade{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", s.Path, err)
	}

	var trades []Trade
	if err := json.Unmarshal(b, &trades); err != nil {
		return nil, fmt.Errorf("ledger %s is corrupt, refusing to continue: %w", s.Path, err)
	}
	return trades, nil
}

// LoadPending returns only the trades still awaiting resolution.
func (s *Store) LoadPending() ([]Trade, error) {
	all, err := s.LoadAll()
	if err != nil {
		return nil, err
	}
	pending := make([]Trade, 0)
	for _, t := range all {
		if t.IsPending() {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// HasPending reports whether a pending trade already exists for symbol.
// This is the at-most-one-open-trade-per-symbol pre-check.
func (s *Store) HasPending(symbol string) (bool, error) {
	pending, err := s.LoadPending()
	if err != nil {
		return false, err
	}
	for _, t := range pending {
		if t.Symbol == symbol {
			return true, nil
		}
	}
	return false, nil
}

// Append loads the ledger, enforces the one-pending-per-symbol rule, adds
// the trade, and persists, all under the write lock. Appending to a missing
// file is equivalent to appending to an empty array.
func (s *Store) Append(trade Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if trade.IsPending() {
		for _, t := range all {
			if t.IsPending() && t.Symbol == trade.Symbol {
				return fmt.Errorf("pending trade already exists for %s in %s", trade.Symbol, s.Path)
			}
		}
	}
	all = append(all, trade)
	return s.rewrite(all)
}

// Merge re-reads the ledger and replaces the entries whose ID matches an
// update, then persists. Resolutions computed from a snapshot must land
// through here: writing the snapshot back whole would erase any trade
// appended while the caller was off fetching candles.
func (s *Store) Merge(updates []Trade) error {
	if len(updates) == 0 {
		return nil
	}
	byID := make(map[string]Trade, len(updates))
	for _, u := range updates {
		byID[u.ID] = u
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	for i := range all {
		if u, ok := byID[all[i].ID]; ok {
			all[i] = u
		}
	}
	return s.rewrite(all)
}

// rewrite persists the array using an atomic write pattern: write to a temp
// file in the same directory, sync, then rename over the destination so a
// crash mid-write never leaves a corrupt ledger. Callers hold s.mu.
func (s *Store) rewrite(trades []Trade) error {
	b, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}

	tmpFile := s.Path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp ledger file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp ledger file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp ledger file: %w", err)
	}
	// Close explicitly before renaming (essential on Windows).
	f.Close()

	if err := os.Rename(tmpFile, s.Path); err != nil {
		return fmt.Errorf("replace ledger file: %w", err)
	}
	return nil
}

// Trim caps the ledger to the most recent keepLast completed trades while
// keeping every pending trade. A zero or negative cap is a no-op.
func (s *Store) Trim(keepLast int) error {
	if keepLast <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}

	var pending, completed []Trade
	for _, t := range all {
		if t.IsPending() {
			pending = append(pending, t)
		} else {
			completed = append(completed, t)
		}
	}
	if len(completed) > keepLast {
		completed = completed[len(completed)-keepLast:]
	}
	return s.rewrite(append(completed, pending...))
}
