package service

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/repository/memory"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ledgerSuite runs both services over a fresh in-memory store per test.
type ledgerSuite struct {
	suite.Suite
	ctx          context.Context
	store        *memory.Store
	accounts     *AccountService
	transactions *TransactionService
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewStore(discardLogger())
	s.accounts = NewAccountService(s.store, discardLogger())
	s.accounts.now = func() time.Time { return fixedNow }
	s.transactions = NewTransactionService(s.store, discardLogger())
}

func (s *ledgerSuite) open(number, taxID, balance string) *domain.Account {
	account, err := s.accounts.OpenAccount(s.ctx, candidate(number, taxID, balance))
	s.Require().NoError(err)
	return account
}

func (s *ledgerSuite) balanceOf(id int64) string {
	account, err := s.accounts.GetAccount(s.ctx, id)
	s.Require().NoError(err)
	return account.Balance.StringFixed(domain.BalanceScale)
}

func candidate(number, taxID, balance string) *domain.Account {
	return &domain.Account{
		Number:      number,
		BranchCode:  "0001",
		HolderName:  "Holder " + number,
		HolderTaxID: taxID,
		OpenedOn:    time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		Balance:     amount(balance),
		Kind:        domain.KindChecking,
	}
}

// failingStore simulates an infrastructure fault on every repository call.
type failingStore struct {
	err error
}

func (f *failingStore) Account() domain.AccountRepository { return &failingRepository{err: f.err} }

func (f *failingStore) WithTransaction(ctx context.Context, fn func(domain.Store) error) error {
	return fn(f)
}

func (f *failingStore) Ping(ctx context.Context) error { return f.err }

type failingRepository struct {
	err error
}

func (r *failingRepository) CreateAccount(ctx context.Context, account *domain.Account) error {
	return r.err
}

func (r *failingRepository) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return nil, r.err
}

func (r *failingRepository) GetAccountForUpdate(ctx context.Context, id int64) (*domain.Account, error) {
	return nil, r.err
}

func (r *failingRepository) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	return nil, r.err
}

func (r *failingRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	return false, r.err
}

func (r *failingRepository) ExistsByHolderTaxID(ctx context.Context, taxID string) (bool, error) {
	return false, r.err
}

func (r *failingRepository) SaveAccount(ctx context.Context, account *domain.Account) error {
	return r.err
}

var errStoreDown = stderrors.New("connection reset by peer")
