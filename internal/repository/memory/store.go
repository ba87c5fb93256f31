// Package memory is a process-local account store. Accounts are serialised
// with one mutex per account id; transactional creates and writes are staged
// and applied on commit.
package memory

import (
	"context"
	"log/slog"
	"sync"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/errors"
)

type state struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]domain.Account
	byNumber map[string]int64
	byTaxID  map[string]int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func (st *state) lockFor(id int64) *sync.Mutex {
	st.locksMu.Lock()
	defer st.locksMu.Unlock()

	l, ok := st.locks[id]
	if !ok {
		l = &sync.Mutex{}
		st.locks[id] = l
	}
	return l
}

type Store struct {
	state  *state
	tx     *transaction
	logger *slog.Logger
}

var _ domain.Store = (*Store)(nil)

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		state: &state{
			accounts: make(map[int64]domain.Account),
			byNumber: make(map[string]int64),
			byTaxID:  make(map[string]int64),
			locks:    make(map[int64]*sync.Mutex),
		},
		logger: logger,
	}
}

func (s *Store) Account() domain.AccountRepository {
	return &accountRepository{store: s}
}

func (s *Store) Ping(ctx context.Context) error {
	return nil
}

func (s *Store) WithTransaction(ctx context.Context, fn func(domain.Store) error) error {
	if s.tx != nil {
		return errors.ErrCannotBeginTransaction
	}

	tx := &transaction{
		state:   s.state,
		held:    make(map[int64]*sync.Mutex),
		staged:  make(map[int64]domain.Account),
		pending: make(map[int64]domain.Account),
	}
	txStore := &Store{
		state:  s.state,
		tx:     tx,
		logger: s.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.rollback()
		return err
	}

	tx.commit()
	return nil
}

// pending holds accounts created inside the transaction. Their number and
// tax id stay reserved in the indexes until commit or rollback.
type transaction struct {
	state   *state
	held    map[int64]*sync.Mutex
	staged  map[int64]domain.Account
	pending map[int64]domain.Account
}

func (tx *transaction) lock(id int64) {
	if _, ok := tx.held[id]; ok {
		return
	}
	l := tx.state.lockFor(id)
	l.Lock()
	tx.held[id] = l
}

func (tx *transaction) release() {
	for id, l := range tx.held {
		l.Unlock()
		delete(tx.held, id)
	}
}

func (tx *transaction) commit() {
	st := tx.state
	st.mu.Lock()
	for id, account := range tx.pending {
		st.accounts[id] = account
	}
	for id, staged := range tx.staged {
		current, ok := st.accounts[id]
		if !ok {
			continue
		}
		current.Balance = staged.Balance
		current.Active = staged.Active
		current.UpdatedAt = staged.UpdatedAt
		st.accounts[id] = current
	}
	st.mu.Unlock()
	tx.release()
}

func (tx *transaction) rollback() {
	st := tx.state
	st.mu.Lock()
	for _, account := range tx.pending {
		delete(st.byNumber, account.Number)
		delete(st.byTaxID, account.HolderTaxID)
	}
	st.mu.Unlock()
	tx.release()
}
