package storage

import (
	"context"
	"sync"

	"fintrack/internal/core"
)

// MemoryStore keeps transactions in a map guarded by a mutex. It backs the
// memory data backend and most of the test suite.
type MemoryStore struct {
	mu    sync.RWMutex
	txs   map[string]core.Transaction
	order []string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{txs: make(map[string]core.Transaction)}
}

func (m *MemoryStore) SaveTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.txs[tx.ID]; !exists {
		m.order = append(m.order, tx.ID)
	}
	m.txs[tx.ID] = tx
	return tx.ID, nil
}

func (m *MemoryStore) SaveMany(ctx context.Context, txs []core.Transaction) error {
	for _, tx := range txs {
		if _, err := m.SaveTransaction(ctx, tx); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryStore) GetTransaction(_ context.Context, id string) (core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tx, ok := m.txs[id]
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	return tx, nil
}

// FindByOwner returns the owner's transactions in insertion order.
func (m *MemoryStore) FindByOwner(_ context.Context, ownerID string) ([]core.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []core.Transaction
	for _, id := range m.order {
		tx, ok := m.txs[id]
		if ok && tx.OwnerID == ownerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *MemoryStore) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txs[id]; !ok {
		return ErrNotFound
	}
	delete(m.txs, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) UpdateByID(_ context.Context, id string, p Patch) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.txs[id]
	if !ok {
		return core.Transaction{}, ErrNotFound
	}
	if p.Category != nil {
		tx.Category = *p.Category
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.OccurredOn != nil {
		tx.OccurredOn = *p.OccurredOn
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	m.txs[id] = tx
	return tx, nil
}

func (m *MemoryStore) Close() error { return nil }
