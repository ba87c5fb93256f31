package service

import (
	"context"
	"log/slog"
	"time"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/errors"
)

type AccountService struct {
	store  domain.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewAccountService(store domain.Store, logger *slog.Logger) *AccountService {
	return &AccountService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// OpenAccount persists a new active account. Number and holder tax ID must
// not belong to any existing account.
func (s *AccountService) OpenAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	s.logger.Info("Opening account", "number", account.Number, "branch_code", account.BranchCode, "kind", account.Kind)

	if err := account.Validate(s.now()); err != nil {
		return nil, err
	}

	candidate := *account
	candidate.ID = 0
	candidate.Active = true

	err := s.store.WithTransaction(ctx, func(tx domain.Store) error {
		repo := tx.Account()

		exists, err := repo.ExistsByNumber(ctx, candidate.Number)
		if err != nil {
			return err
		}
		if exists {
			s.logger.Warn("Account number already in use", "number", candidate.Number)
			return errors.Duplicate("number")
		}

		exists, err = repo.ExistsByHolderTaxID(ctx, candidate.HolderTaxID)
		if err != nil {
			return err
		}
		if exists {
			s.logger.Warn("Holder tax ID already in use", "number", candidate.Number)
			return errors.Duplicate("holderTaxId")
		}

		return repo.CreateAccount(ctx, &candidate)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account opened successfully", "account_id", candidate.ID)
	return &candidate, nil
}

// CloseAccount marks the account inactive. Closing an inactive account succeeds.
func (s *AccountService) CloseAccount(ctx context.Context, id int64) (*domain.Account, error) {
	s.logger.Info("Closing account", "account_id", id)

	if id <= 0 {
		return nil, errors.ErrInvalidAccountID
	}

	var closed *domain.Account
	err := s.store.WithTransaction(ctx, func(tx domain.Store) error {
		repo := tx.Account()

		account, err := repo.GetAccountForUpdate(ctx, id)
		if err != nil {
			return err
		}

		account.Active = false
		if err := repo.SaveAccount(ctx, account); err != nil {
			return err
		}

		closed = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account closed", "account_id", id)
	return closed, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	s.logger.Info("Getting account", "account_id", id)

	if id <= 0 {
		return nil, errors.ErrInvalidAccountID
	}

	return s.store.Account().GetAccount(ctx, id)
}

func (s *AccountService) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	accounts, err := s.store.Account().ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Listed accounts", "count", len(accounts))
	return accounts, nil
}
