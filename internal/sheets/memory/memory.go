// Package memory is an in-process stand-in for the spreadsheet mirror, used
// by the memory backend and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"

	ports "fintrack/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	items []core.Transaction
}

var (
	_ ports.TransactionWriter  = (*Store)(nil)
	_ ports.TransactionDeleter = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, tx)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, tx := range s.items {
		if tx.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return nil
}

// Items returns a copy of everything appended so far.
func (s *Store) Items() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.items...)
}
