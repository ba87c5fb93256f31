package service

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/errors"
)

// TransactionService moves money. Each operation runs in exactly one store
// transaction and leaves no partial state behind on failure.
type TransactionService struct {
	store  domain.Store
	logger *slog.Logger
}

func NewTransactionService(store domain.Store, logger *slog.Logger) *TransactionService {
	return &TransactionService{
		store:  store,
		logger: logger,
	}
}

type TransferRequest struct {
	SourceAccountID      int64
	DestinationAccountID int64
	Amount               decimal.Decimal
}

type TransferResult struct {
	Source      *domain.Account
	Destination *domain.Account
}

func (s *TransactionService) Deposit(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		s.logger.Warn("Rejected deposit amount", "account_id", accountID)
		return nil, err
	}
	s.logger.Info("Processing deposit", "account_id", accountID, "amount", amount)

	account, err := s.mutate(ctx, accountID, func(account *domain.Account) error {
		if !account.CanCredit(amount) {
			return errors.ErrBalanceLimitExceeded
		}
		account.Credit(amount)
		return nil
	})
	if err != nil {
		s.logger.Warn("Deposit failed", "account_id", accountID, "error", err)
		return nil, err
	}

	s.logger.Info("Deposit completed", "account_id", accountID, "new_balance", account.Balance)
	return account, nil
}

func (s *TransactionService) Withdraw(ctx context.Context, accountID int64, amount decimal.Decimal) (*domain.Account, error) {
	if err := domain.ValidateAmount(amount); err != nil {
		s.logger.Warn("Rejected withdrawal amount", "account_id", accountID)
		return nil, err
	}
	s.logger.Info("Processing withdrawal", "account_id", accountID, "amount", amount)

	account, err := s.mutate(ctx, accountID, func(account *domain.Account) error {
		if !account.HasSufficientFunds(amount) {
			return errors.ErrInsufficientFunds
		}
		account.Debit(amount)
		return nil
	})
	if err != nil {
		s.logger.Warn("Withdrawal failed", "account_id", accountID, "error", err)
		return nil, err
	}

	s.logger.Info("Withdrawal completed", "account_id", accountID, "new_balance", account.Balance)
	return account, nil
}

// mutate locks one active account, applies fn and saves the result.
func (s *TransactionService) mutate(ctx context.Context, accountID int64, fn func(*domain.Account) error) (*domain.Account, error) {
	var updated *domain.Account
	err := s.store.WithTransaction(ctx, func(tx domain.Store) error {
		repo := tx.Account()

		account, err := repo.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.CanMoveFunds() {
			return errors.ErrAccountInactive
		}

		if err := fn(account); err != nil {
			return err
		}

		if err := repo.SaveAccount(ctx, account); err != nil {
			return err
		}

		updated = account
		return nil
	})
	return updated, err
}

// Transfer debits the source and credits the destination atomically.
// Checks run in this order and the first failure is reported: amount,
// source exists, destination exists, source active, destination active,
// source funds, destination balance limit. A transfer to the same account
// is allowed and nets to zero.
func (s *TransactionService) Transfer(ctx context.Context, req *TransferRequest) (*TransferResult, error) {
	if err := domain.ValidateAmount(req.Amount); err != nil {
		s.logger.Warn("Rejected transfer amount",
			"source_account_id", req.SourceAccountID,
			"destination_account_id", req.DestinationAccountID)
		return nil, err
	}
	s.logger.Info("Processing transfer",
		"source_account_id", req.SourceAccountID,
		"destination_account_id", req.DestinationAccountID,
		"amount", req.Amount)

	var result *TransferResult
	err := s.store.WithTransaction(ctx, func(tx domain.Store) error {
		source, destination, err := s.lockPair(ctx, tx.Account(), req.SourceAccountID, req.DestinationAccountID)
		if err != nil {
			return err
		}

		if !source.CanMoveFunds() {
			return errors.Inactive(errors.RoleSource)
		}
		if !destination.CanMoveFunds() {
			return errors.Inactive(errors.RoleDestination)
		}
		if !source.HasSufficientFunds(req.Amount) {
			return errors.ErrInsufficientFunds
		}
		if destination != source && !destination.CanCredit(req.Amount) {
			return errors.ErrBalanceLimitExceeded
		}

		source.Debit(req.Amount)
		destination.Credit(req.Amount)

		if err := tx.Account().SaveAccount(ctx, source); err != nil {
			return err
		}
		if destination != source {
			if err := tx.Account().SaveAccount(ctx, destination); err != nil {
				return err
			}
		}

		result = &TransferResult{Source: source, Destination: destination}
		return nil
	})
	if err != nil {
		s.logger.Warn("Transfer failed",
			"source_account_id", req.SourceAccountID,
			"destination_account_id", req.DestinationAccountID,
			"error", err)
		return nil, err
	}

	s.logger.Info("Transfer completed",
		"source_account_id", req.SourceAccountID,
		"destination_account_id", req.DestinationAccountID,
		"source_balance", result.Source.Balance,
		"destination_balance", result.Destination.Balance)
	return result, nil
}

// lockPair locks both accounts in ascending id order so that opposite
// transfers between the same pair cannot deadlock. Missing accounts are
// reported source first regardless of lock order. For a self transfer both
// returned pointers are the same account.
func (s *TransactionService) lockPair(ctx context.Context, repo domain.AccountRepository, sourceID, destinationID int64) (*domain.Account, *domain.Account, error) {
	if sourceID == destinationID {
		account, err := repo.GetAccountForUpdate(ctx, sourceID)
		if err != nil {
			return nil, nil, roleNotFound(err, errors.RoleSource)
		}
		return account, account, nil
	}

	firstID, secondID := sourceID, destinationID
	if secondID < firstID {
		firstID, secondID = secondID, firstID
	}

	first, firstErr := repo.GetAccountForUpdate(ctx, firstID)
	if firstErr != nil && !stderrors.Is(firstErr, errors.ErrAccountNotFound) {
		return nil, nil, firstErr
	}
	second, secondErr := repo.GetAccountForUpdate(ctx, secondID)
	if secondErr != nil && !stderrors.Is(secondErr, errors.ErrAccountNotFound) {
		return nil, nil, secondErr
	}

	source, sourceErr := first, firstErr
	destination, destinationErr := second, secondErr
	if firstID != sourceID {
		source, sourceErr = second, secondErr
		destination, destinationErr = first, firstErr
	}

	if sourceErr != nil {
		return nil, nil, errors.NotFound(errors.RoleSource)
	}
	if destinationErr != nil {
		return nil, nil, errors.NotFound(errors.RoleDestination)
	}
	return source, destination, nil
}

func roleNotFound(err error, role errors.Role) error {
	if stderrors.Is(err, errors.ErrAccountNotFound) {
		return errors.NotFound(role)
	}
	return err
}
