package memory

import (
	"context"
	"sort"
	"time"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/errors"
)

// accountRepository never hands out pointers into the store; every read is a copy.
type accountRepository struct {
	store *Store
}

func (r *accountRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	st := r.store.state
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.byNumber[account.Number]; ok {
		r.store.logger.Warn("Duplicate account creation attempt", "number", account.Number, "field", "number")
		return errors.Duplicate("number")
	}
	if _, ok := st.byTaxID[account.HolderTaxID]; ok {
		r.store.logger.Warn("Duplicate account creation attempt", "number", account.Number, "field", "holderTaxId")
		return errors.Duplicate("holderTaxId")
	}

	st.nextID++
	now := time.Now().UTC()
	account.ID = st.nextID
	account.Balance = account.Balance.Round(domain.BalanceScale)
	account.CreatedAt = now
	account.UpdatedAt = now

	st.byNumber[account.Number] = account.ID
	st.byTaxID[account.HolderTaxID] = account.ID
	if tx := r.store.tx; tx != nil {
		tx.pending[account.ID] = *account
	} else {
		st.accounts[account.ID] = *account
	}

	r.store.logger.Info("Account created successfully", "account_id", account.ID)
	return nil
}

func (r *accountRepository) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	if tx := r.store.tx; tx != nil {
		if staged, ok := tx.staged[id]; ok {
			return &staged, nil
		}
		if pending, ok := tx.pending[id]; ok {
			return &pending, nil
		}
	}

	st := r.store.state
	st.mu.RLock()
	account, ok := st.accounts[id]
	st.mu.RUnlock()

	if !ok {
		r.store.logger.Warn("Account not found", "account_id", id)
		return nil, errors.ErrAccountNotFound
	}
	return &account, nil
}

func (r *accountRepository) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	tx := r.store.tx
	if tx == nil {
		return r.GetAccount(ctx, id)
	}

	if !r.exists(id) {
		r.store.logger.Warn("Account not found", "account_id", id)
		return nil, errors.ErrAccountNotFound
	}

	tx.lock(id)
	return r.GetAccount(ctx, id)
}

func (r *accountRepository) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	st := r.store.state
	st.mu.RLock()
	accounts := make([]*domain.Account, 0, len(st.accounts))
	for _, account := range st.accounts {
		account := account
		accounts = append(accounts, &account)
	}
	st.mu.RUnlock()

	if tx := r.store.tx; tx != nil {
		for _, pending := range tx.pending {
			pending := pending
			accounts = append(accounts, &pending)
		}
		for i, account := range accounts {
			if staged, ok := tx.staged[account.ID]; ok {
				staged := staged
				accounts[i] = &staged
			}
		}
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID < accounts[j].ID
	})
	return accounts, nil
}

func (r *accountRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byNumber[number]
	return ok && r.visible(id), nil
}

func (r *accountRepository) ExistsByHolderTaxID(ctx context.Context, taxID string) (bool, error) {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()
	id, ok := st.byTaxID[taxID]
	return ok && r.visible(id), nil
}

func (r *accountRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	if !r.exists(account.ID) {
		r.store.logger.Warn("No account found to save", "account_id", account.ID)
		return errors.ErrAccountNotFound
	}

	account.Balance = account.Balance.Round(domain.BalanceScale)
	account.UpdatedAt = time.Now().UTC()

	if tx := r.store.tx; tx != nil {
		tx.lock(account.ID)
		tx.staged[account.ID] = *account
		return nil
	}

	l := r.store.state.lockFor(account.ID)
	l.Lock()
	defer l.Unlock()

	st := r.store.state
	st.mu.Lock()
	current := st.accounts[account.ID]
	current.Balance = account.Balance
	current.Active = account.Active
	current.UpdatedAt = account.UpdatedAt
	st.accounts[account.ID] = current
	st.mu.Unlock()

	r.store.logger.Info("Account saved", "account_id", account.ID, "balance", account.Balance, "active", account.Active)
	return nil
}

func (r *accountRepository) exists(id int64) bool {
	st := r.store.state
	st.mu.RLock()
	defer st.mu.RUnlock()
	return r.visible(id)
}

// visible reports whether id is committed or pending in this store's own
// transaction. Callers hold st.mu.
func (r *accountRepository) visible(id int64) bool {
	if _, ok := r.store.state.accounts[id]; ok {
		return true
	}
	if tx := r.store.tx; tx != nil {
		_, ok := tx.pending[id]
		return ok
	}
	return false
}
