package store

import (
	"fmt"

	"github.com/jward/symdex/internal/registry"
)

// SaveSnapshot replaces the stored snapshot with the given registry export.
// Runs in one transaction: a reader never sees a half-written snapshot.
func (s *Store) SaveSnapshot(records []registry.Record, sources []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	for _, q := range []string{"DELETE FROM symbols", "DELETE FROM sources"} {
		if _, err := tx.Exec(q); err != nil {
			return fmt.Errorf("clear snapshot: %w", err)
		}
	}

	symStmt, err := tx.Prepare("INSERT INTO symbols (name, hash, priority, source) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer symStmt.Close()
	for _, rec := range records {
		if _, err := symStmt.Exec(rec.Name, int64(rec.Hash), int(rec.Priority), rec.Source); err != nil {
			return fmt.Errorf("insert symbol %s: %w", rec.Name, err)
		}
	}

	for idx, id := range sources {
		if _, err := tx.Exec("INSERT INTO sources (idx, identifier) VALUES (?, ?)", idx, id); err != nil {
			return fmt.Errorf("insert source %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// SymbolFilter narrows Symbols queries. The zero value matches everything.
type SymbolFilter struct {
	// MaxPriority keeps symbols at or above this tier when non-nil.
	MaxPriority *registry.PriorityClass

	// Source keeps symbols attributed to this identifier when non-empty.
	Source string
}

// Symbols returns snapshot records matching the filter, ordered by name.
func (s *Store) Symbols(filter SymbolFilter) ([]registry.Record, error) {
	query := "SELECT name, hash, priority, source FROM symbols"
	var (
		conds []string
		args  []any
	)
	if filter.MaxPriority != nil {
		conds = append(conds, "priority <= ?")
		args = append(args, int(*filter.MaxPriority))
	}
	if filter.Source != "" {
		conds = append(conds, "source = ?")
		args = append(args, filter.Source)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY name"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var records []registry.Record
	for rows.Next() {
		var (
			rec      registry.Record
			hash     int64
			priority int
		)
		if err := rows.Scan(&rec.Name, &hash, &priority, &rec.Source); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		rec.Hash = uint32(hash)
		rec.Priority = registry.PriorityClass(priority)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Sources returns the snapshot's content-source identifiers in index order.
func (s *Store) Sources() ([]string, error) {
	rows, err := s.db.Query("SELECT identifier FROM sources ORDER BY idx")
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, id)
	}
	return sources, rows.Err()
}
