// Package memory keeps exported statements in process, for tests and for
// running the worker without spreadsheet credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"casaconti/internal/core"
	ports "casaconti/internal/sheets"
)

var _ ports.StatementWriter = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	items  map[core.Period]core.Statement
	writes int
}

func NewStore() *Store {
	return &Store{items: make(map[core.Period]core.Statement)}
}

func (s *Store) WriteStatement(_ context.Context, stmt core.Statement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[stmt.Period] = stmt
	s.writes++
	return fmt.Sprintf("memory:%s", stmt.Period), nil
}

// Statement returns the last statement written for p.
func (s *Store) Statement(p core.Period) (core.Statement, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stmt, ok := s.items[p]
	return stmt, ok
}

// Writes counts every WriteStatement call.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
